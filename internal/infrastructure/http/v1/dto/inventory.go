package dto

import (
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/inventory"
)

// SubmitCountRequest for POST /inventory/counts.
type SubmitCountRequest struct {
	StationID  string `json:"stationId" binding:"required"`
	ProductID  string `json:"productId" binding:"required"`
	LocationID string `json:"locationId" binding:"required"`

	DeclaredQuantity types.Quantity `json:"declaredQuantity"`
	CountedAt        time.Time      `json:"countedAt" binding:"required"`

	ToleranceThreshold *types.Quantity `json:"toleranceThreshold"`
	MeasurementMethod  string          `json:"measurementMethod" binding:"omitempty,oneof=manual_count dip_stick gauge"`
	Comment            string          `json:"comment"`
}

// TransitionCountRequest for POST /inventory/counts/:id/transition.
type TransitionCountRequest struct {
	Target string `json:"target" binding:"required,oneof=in_progress completed validated rejected reconciled closed"`
}

// CountResponse is the API view of an inventory count.
type CountResponse struct {
	ID     string `json:"id"`
	Number string `json:"number"`

	StationID  string `json:"stationId"`
	ProductID  string `json:"productId"`
	LocationID string `json:"locationId"`

	DeclaredQuantity types.Quantity `json:"declaredQuantity"`
	CountedAt        time.Time      `json:"countedAt"`
	ActorID          string         `json:"actorId"`
	Status           string         `json:"status"`

	ToleranceThreshold *types.Quantity `json:"toleranceThreshold,omitempty"`
	MeasurementMethod  string          `json:"measurementMethod"`
	Comment            string          `json:"comment,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromCount creates CountResponse from an inventory.InventoryCount.
func FromCount(count *inventory.InventoryCount) CountResponse {
	return CountResponse{
		ID:                 count.ID.String(),
		Number:             count.Number,
		StationID:          count.StationID.String(),
		ProductID:          count.ProductID.String(),
		LocationID:         count.LocationID.String(),
		DeclaredQuantity:   count.DeclaredQuantity,
		CountedAt:          count.CountedAt,
		ActorID:            count.ActorID,
		Status:             string(count.Status),
		ToleranceThreshold: count.ToleranceThreshold,
		MeasurementMethod:  string(count.MeasurementMethod),
		Comment:            count.Comment,
		Version:            count.Version,
		CreatedAt:          count.CreatedAt,
		UpdatedAt:          count.UpdatedAt,
	}
}

// VarianceResponse is the API view of a variance record.
type VarianceResponse struct {
	ID          string `json:"id"`
	InventoryID string `json:"inventoryId"`
	ProductID   string `json:"productId"`
	LocationID  string `json:"locationId"`

	TheoreticalQuantity types.Quantity `json:"theoreticalQuantity"`
	RealQuantity        types.Quantity `json:"realQuantity"`
	Variance            types.Quantity `json:"variance"`

	Classification string         `json:"classification"`
	AlertThreshold types.Quantity `json:"alertThreshold"`

	SeasonalContext string  `json:"seasonalContext"`
	AnomalyReason   *string `json:"anomalyReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// FromVariance creates VarianceResponse from an inventory.VarianceRecord.
func FromVariance(v *inventory.VarianceRecord) VarianceResponse {
	return VarianceResponse{
		ID:                  v.ID.String(),
		InventoryID:         v.InventoryID.String(),
		ProductID:           v.ProductID.String(),
		LocationID:          v.LocationID.String(),
		TheoreticalQuantity: v.TheoreticalQuantity,
		RealQuantity:        v.RealQuantity,
		Variance:            v.Variance,
		Classification:      string(v.Classification),
		AlertThreshold:      v.AlertThreshold,
		SeasonalContext:     string(v.SeasonalContext),
		AnomalyReason:       v.AnomalyReason,
		CreatedAt:           v.CreatedAt,
	}
}

// ClassifyResponse wraps the classification outcome. Variance is null when
// the count landed within tolerance.
type ClassifyResponse struct {
	InventoryID string            `json:"inventoryId"`
	Breached    bool              `json:"breached"`
	Variance    *VarianceResponse `json:"variance,omitempty"`
}
