// Package delivery implements fuel delivery receipt and the ordered
// vs. delivered reconciliation that drives supplier compensations.
package delivery

import (
	"context"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/entity"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
)

// Status is the lifecycle state of a fuel delivery.
type Status string

const (
	// StatusPending: ordered, truck not yet arrived.
	StatusPending Status = "pending"
	// StatusReceived: delivered quantity recorded in the ledger.
	StatusReceived Status = "received"
	// StatusReconciled: ordered vs delivered checked, compensation
	// emitted if warranted.
	StatusReconciled Status = "reconciled"
)

// FuelDelivery is one tanker drop into a station tank.
type FuelDelivery struct {
	entity.Document

	TankID    id.ID `db:"tank_id" json:"tankId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	// OrderedQuantity is the litres stated on the purchase order.
	OrderedQuantity types.Quantity `db:"ordered_quantity" json:"orderedQuantity"`

	// DeliveredQuantity is the litres actually measured at receipt.
	// Zero until the delivery is received.
	DeliveredQuantity types.Quantity `db:"delivered_quantity" json:"deliveredQuantity"`

	// UnitCost is the purchase price per litre; it values both the
	// ledger entry and any compensation.
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	SupplierName string `db:"supplier_name" json:"supplierName,omitempty"`

	// DeliveredAt is when the drop happened; nil while pending.
	DeliveredAt *time.Time `db:"delivered_at" json:"deliveredAt,omitempty"`

	ActorID string `db:"actor_id" json:"actorId"`
	Status  Status `db:"status" json:"status"`
}

// NewFuelDelivery creates a pending delivery.
func NewFuelDelivery(stationID, tankID, productID id.ID) *FuelDelivery {
	return &FuelDelivery{
		Document:  entity.NewDocument(stationID),
		TankID:    tankID,
		ProductID: productID,
		Status:    StatusPending,
	}
}

// Validate implements entity.Validatable.
func (d *FuelDelivery) Validate(ctx context.Context) error {
	if err := d.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(d.TankID) {
		return apperror.NewValidation("tank is required").
			WithDetail("field", "tankId")
	}
	if id.IsNil(d.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if !d.OrderedQuantity.IsPositive() {
		return apperror.NewInvalidQuantity("ordered quantity must be positive").
			WithDetail("orderedQuantity", d.OrderedQuantity.String())
	}
	if d.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost must not be negative").
			WithDetail("field", "unitCost")
	}
	if d.ActorID == "" {
		return apperror.NewValidation("actor is required").
			WithDetail("field", "actorId")
	}
	return nil
}

// CompensationType drives downstream financial postings; the sign
// convention must be preserved exactly.
type CompensationType string

const (
	// CreditOwed: delivered < ordered, the supplier owes the station.
	CreditOwed CompensationType = "credit_owed"
	// CreditDue: delivered > ordered, the station owes the supplier.
	CreditDue CompensationType = "credit_due"
)

// CompensationRecord is written at most once per delivery whose
// ordered/delivered difference exceeds the delivery tolerance.
type CompensationRecord struct {
	ID         id.ID `db:"id" json:"id"`
	DeliveryID id.ID `db:"delivery_id" json:"deliveryId"`

	CompensationType CompensationType `db:"compensation_type" json:"compensationType"`

	TheoreticalOrderedQuantity types.Quantity `db:"theoretical_ordered_quantity" json:"theoreticalOrderedQuantity"`
	ActualDeliveredQuantity    types.Quantity `db:"actual_delivered_quantity" json:"actualDeliveredQuantity"`

	// Difference is the absolute litre gap.
	Difference types.Quantity `db:"difference" json:"difference"`

	// CompensationAmount = difference x delivery unit cost.
	CompensationAmount types.Money `db:"compensation_amount" json:"compensationAmount"`

	Reason string `db:"reason" json:"reason"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
