package dto

import (
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
)

// CreateProductRequest for POST /catalog/products.
type CreateProductRequest struct {
	Code               string          `json:"code"`
	Name               string          `json:"name" binding:"required"`
	Kind               string          `json:"kind" binding:"required,oneof=boutique fuel service"`
	Barcode            *string         `json:"barcode"`
	Unit               string          `json:"unit"`
	SalePrice          *types.Money    `json:"salePrice"`
	ToleranceThreshold *types.Quantity `json:"toleranceThreshold"`
}

// UpdateProductRequest for PUT /catalog/products/:id.
type UpdateProductRequest struct {
	Name               *string         `json:"name"`
	Barcode            *string         `json:"barcode"`
	Unit               *string         `json:"unit"`
	SalePrice          *types.Money    `json:"salePrice"`
	ToleranceThreshold *types.Quantity `json:"toleranceThreshold"`
	Active             *bool           `json:"active"`
	Version            int             `json:"version" binding:"required,min=1"`
}

// CreateStationRequest for POST /catalog/stations.
type CreateStationRequest struct {
	Code      string `json:"code"`
	Name      string `json:"name" binding:"required"`
	CompanyID string `json:"companyId" binding:"required"`
	Address   string `json:"address"`
}

// CreateTankRequest for POST /catalog/stations/:stationId/tanks.
type CreateTankRequest struct {
	Code      string         `json:"code"`
	Name      string         `json:"name" binding:"required"`
	ProductID string         `json:"productId" binding:"required"`
	Capacity  types.Quantity `json:"capacity"`
}
