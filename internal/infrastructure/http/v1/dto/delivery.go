package dto

import (
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/delivery"
)

// OrderDeliveryRequest for POST /deliveries.
type OrderDeliveryRequest struct {
	StationID string `json:"stationId" binding:"required"`
	TankID    string `json:"tankId" binding:"required"`
	ProductID string `json:"productId" binding:"required"`

	OrderedQuantity types.Quantity `json:"orderedQuantity" binding:"required"`
	UnitCost        types.Money    `json:"unitCost" binding:"required"`
	SupplierName    string         `json:"supplierName"`
	Comment         string         `json:"comment"`
}

// ReceiveDeliveryRequest for POST /deliveries/:id/receive.
type ReceiveDeliveryRequest struct {
	DeliveredQuantity types.Quantity `json:"deliveredQuantity" binding:"required"`
	DeliveredAt       time.Time      `json:"deliveredAt" binding:"required"`
}

// DeliveryResponse is the API view of a fuel delivery.
type DeliveryResponse struct {
	ID     string `json:"id"`
	Number string `json:"number"`

	StationID string `json:"stationId"`
	TankID    string `json:"tankId"`
	ProductID string `json:"productId"`

	OrderedQuantity   types.Quantity `json:"orderedQuantity"`
	DeliveredQuantity types.Quantity `json:"deliveredQuantity"`
	UnitCost          types.Money    `json:"unitCost"`
	SupplierName      string         `json:"supplierName,omitempty"`

	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	ActorID     string     `json:"actorId"`
	Status      string     `json:"status"`
	Comment     string     `json:"comment,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromDelivery creates DeliveryResponse from a delivery.FuelDelivery.
func FromDelivery(d *delivery.FuelDelivery) DeliveryResponse {
	return DeliveryResponse{
		ID:                d.ID.String(),
		Number:            d.Number,
		StationID:         d.StationID.String(),
		TankID:            d.TankID.String(),
		ProductID:         d.ProductID.String(),
		OrderedQuantity:   d.OrderedQuantity,
		DeliveredQuantity: d.DeliveredQuantity,
		UnitCost:          d.UnitCost,
		SupplierName:      d.SupplierName,
		DeliveredAt:       d.DeliveredAt,
		ActorID:           d.ActorID,
		Status:            string(d.Status),
		Comment:           d.Comment,
		Version:           d.Version,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// CompensationResponse is the API view of a compensation record.
type CompensationResponse struct {
	ID         string `json:"id"`
	DeliveryID string `json:"deliveryId"`

	CompensationType string `json:"compensationType"`

	TheoreticalOrderedQuantity types.Quantity `json:"theoreticalOrderedQuantity"`
	ActualDeliveredQuantity    types.Quantity `json:"actualDeliveredQuantity"`
	Difference                 types.Quantity `json:"difference"`

	CompensationAmount types.Money `json:"compensationAmount"`
	Reason             string      `json:"reason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// FromCompensation creates CompensationResponse from a delivery.CompensationRecord.
func FromCompensation(r *delivery.CompensationRecord) CompensationResponse {
	return CompensationResponse{
		ID:                         r.ID.String(),
		DeliveryID:                 r.DeliveryID.String(),
		CompensationType:           string(r.CompensationType),
		TheoreticalOrderedQuantity: r.TheoreticalOrderedQuantity,
		ActualDeliveredQuantity:    r.ActualDeliveredQuantity,
		Difference:                 r.Difference,
		CompensationAmount:         r.CompensationAmount,
		Reason:                     r.Reason,
		CreatedAt:                  r.CreatedAt,
	}
}

// CheckResponse wraps the reconciliation outcome. Compensation is null when
// the delivery landed within tolerance.
type CheckResponse struct {
	DeliveryID   string                `json:"deliveryId"`
	Compensation *CompensationResponse `json:"compensation,omitempty"`
}
