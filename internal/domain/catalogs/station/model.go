// Package station provides the station and fuel-tank catalogs.
// A stock location is either a station (boutique stock) or one of its fuel
// tanks; the ledger keys every movement by (product, location).
package station

import (
	"context"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/entity"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
)

// Station represents a fuel station site.
type Station struct {
	entity.Catalog

	// CompanyID links the station to its owning company for group reporting
	CompanyID id.ID `db:"company_id" json:"companyId"`

	Address string `db:"address" json:"address,omitempty"`
	Active  bool   `db:"active" json:"active"`
}

// NewStation creates a new station.
func NewStation(code, name string, companyID id.ID) *Station {
	return &Station{
		Catalog:   entity.NewCatalog(code, name),
		CompanyID: companyID,
		Active:    true,
	}
}

// Validate implements entity.Validatable.
func (s *Station) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(s.CompanyID) {
		return apperror.NewValidation("company is required").
			WithDetail("field", "companyId")
	}
	return nil
}

// Tank represents a fuel tank at a station. A tank holds exactly one fuel
// grade and is its own stock location.
type Tank struct {
	entity.Catalog

	StationID id.ID `db:"station_id" json:"stationId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	// Capacity in litres
	Capacity types.Quantity `db:"capacity" json:"capacity"`

	Active bool `db:"active" json:"active"`
}

// NewTank creates a new tank.
func NewTank(code, name string, stationID, productID id.ID) *Tank {
	return &Tank{
		Catalog:   entity.NewCatalog(code, name),
		StationID: stationID,
		ProductID: productID,
		Active:    true,
	}
}

// Validate implements entity.Validatable.
func (t *Tank) Validate(ctx context.Context) error {
	if err := t.Catalog.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(t.StationID) {
		return apperror.NewValidation("station is required").
			WithDetail("field", "stationId")
	}
	if id.IsNil(t.ProductID) {
		return apperror.NewValidation("fuel product is required").
			WithDetail("field", "productId")
	}
	if t.Capacity.IsNegative() {
		return apperror.NewValidation("capacity must not be negative").
			WithDetail("field", "capacity")
	}
	return nil
}

// LocationKind distinguishes the two stock location types.
type LocationKind string

const (
	LocationStation LocationKind = "station"
	LocationTank    LocationKind = "tank"
)

// Location is the resolved view of a stock location.
type Location struct {
	ID        id.ID        `json:"id"`
	Kind      LocationKind `json:"kind"`
	StationID id.ID        `json:"stationId"` // equals ID for stations
}
