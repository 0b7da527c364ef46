// Package ledger provides the append-only stock movement ledger, the source
// of truth for quantity and cost history per (product, location).
package ledger

import (
	"context"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
)

// MovementKind defines the business nature of a stock movement.
type MovementKind string

const (
	// KindEntry records goods coming in (purchase, fuel delivery).
	KindEntry MovementKind = "entry"
	// KindExit records goods going out (sale, internal use).
	KindExit MovementKind = "exit"
	// KindAdjustment records an inventory correction in either direction.
	KindAdjustment MovementKind = "adjustment"
	// KindInitial records the opening stock position.
	KindInitial MovementKind = "initial"
	// KindCancellation is the audit marker appended when a movement is
	// voided. Cancellation markers never enter quantity or value folds.
	KindCancellation MovementKind = "cancellation"
)

// Direction defines the sign of a movement for balance folds.
type Direction string

const (
	// DirectionReceipt increases on-hand quantity.
	DirectionReceipt Direction = "receipt"
	// DirectionExpense decreases on-hand quantity.
	DirectionExpense Direction = "expense"
)

// MovementStatus is the lifecycle status of a movement.
type MovementStatus string

const (
	// StatusValidated movements participate in every fold.
	StatusValidated MovementStatus = "validated"
	// StatusCancelled movements are kept for audit but excluded from folds.
	StatusCancelled MovementStatus = "cancelled"
)

// StockMovement is one immutable ledger line. Once validated it is never
// mutated; corrections append a cancellation and flip the original's status,
// which is the only permitted transition.
type StockMovement struct {
	ID         id.ID     `db:"id" json:"id"`
	ProductID  id.ID     `db:"product_id" json:"productId"`
	LocationID id.ID     `db:"location_id" json:"locationId"`

	Kind      MovementKind `db:"kind" json:"kind"`
	Direction Direction    `db:"direction" json:"direction"`

	// Quantity is always a positive magnitude; Direction carries the sign.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// UnitCost is present iff the movement is value-bearing
	// (entry, initial, receipt-side adjustment).
	UnitCost *types.Money `db:"unit_cost" json:"unitCost,omitempty"`

	// OccurredAt is the business date, distinct from RecordedAt.
	OccurredAt time.Time `db:"occurred_at" json:"occurredAt"`

	// OriginModule and OriginReference identify the business event that
	// produced the movement (e.g. "achat", "vente", "stock_initial").
	OriginModule    string `db:"origin_module" json:"originModule"`
	OriginReference string `db:"origin_reference" json:"originReference"`

	ActorID string         `db:"actor_id" json:"actorId"`
	Status  MovementStatus `db:"status" json:"status"`

	// RecordedAt is the ledger insertion time; Seq breaks ordering ties
	// between movements sharing an OccurredAt.
	RecordedAt time.Time `db:"recorded_at" json:"recordedAt"`
	Seq        int64     `db:"seq" json:"seq"`
}

// ValueBearing reports whether the movement carries a unit cost into the
// weighted-average pool.
func (m *StockMovement) ValueBearing() bool {
	switch m.Kind {
	case KindEntry, KindInitial:
		return true
	case KindAdjustment:
		return m.Direction == DirectionReceipt
	case KindExit, KindCancellation:
		return false
	}
	return false
}

// SignedQuantity returns quantity with sign based on direction.
// Receipt = positive, expense = negative.
func (m *StockMovement) SignedQuantity() types.Quantity {
	if m.Direction == DirectionExpense {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// CountsInFold reports whether the movement participates in quantity and
// value folds: validated lines only, cancellation markers excluded.
func (m *StockMovement) CountsInFold() bool {
	return m.Status == StatusValidated && m.Kind != KindCancellation
}

// Validate checks the movement invariants.
func (m *StockMovement) Validate(ctx context.Context) error {
	if !m.Quantity.IsPositive() {
		return apperror.NewInvalidQuantity("quantity must be positive").
			WithDetail("quantity", m.Quantity.String())
	}

	if id.IsNil(m.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if id.IsNil(m.LocationID) {
		return apperror.NewValidation("location is required").
			WithDetail("field", "locationId")
	}
	if m.ActorID == "" {
		return apperror.NewValidation("actor is required").
			WithDetail("field", "actorId")
	}
	if m.OccurredAt.IsZero() {
		return apperror.NewValidation("occurred_at is required").
			WithDetail("field", "occurredAt")
	}

	switch m.Kind {
	case KindEntry, KindInitial:
		if m.Direction != DirectionReceipt {
			return apperror.NewValidation("entry and initial movements must be receipts").
				WithDetail("kind", string(m.Kind))
		}
	case KindExit:
		if m.Direction != DirectionExpense {
			return apperror.NewValidation("exit movements must be expenses").
				WithDetail("kind", string(m.Kind))
		}
	case KindAdjustment, KindCancellation:
		if m.Direction != DirectionReceipt && m.Direction != DirectionExpense {
			return apperror.NewValidation("direction is required").
				WithDetail("field", "direction")
		}
	default:
		return apperror.NewValidation("unknown movement kind").
			WithDetail("kind", string(m.Kind))
	}

	if m.ValueBearing() {
		if m.UnitCost == nil {
			return apperror.NewValidation("unit cost is required for value-bearing movements").
				WithDetail("kind", string(m.Kind))
		}
		if m.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost must not be negative").
				WithDetail("unitCost", m.UnitCost.String())
		}
	} else if m.UnitCost != nil {
		return apperror.NewValidation("unit cost is not allowed on depletion movements").
			WithDetail("kind", string(m.Kind))
	}

	return nil
}
