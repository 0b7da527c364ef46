// Package inventory implements physical stocktaking: inventory counts,
// their lifecycle, and variance detection against theoretical stock.
package inventory

import (
	"context"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/entity"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
)

// CountStatus is the lifecycle state of an inventory count.
type CountStatus string

const (
	StatusDraft      CountStatus = "draft"
	StatusInProgress CountStatus = "in_progress"
	StatusCompleted  CountStatus = "completed"
	StatusValidated  CountStatus = "validated"
	StatusRejected   CountStatus = "rejected"
	StatusReconciled CountStatus = "reconciled"
	// StatusClosed is terminal: no transition or reclassification is
	// permitted afterwards.
	StatusClosed CountStatus = "closed"
)

// countTransitions holds the allowed lifecycle edges.
var countTransitions = map[CountStatus][]CountStatus{
	StatusDraft:      {StatusInProgress},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {StatusValidated, StatusRejected},
	StatusValidated:  {StatusReconciled},
	StatusRejected:   {StatusReconciled},
	StatusReconciled: {StatusClosed},
	StatusClosed:     {},
}

// CanTransition reports whether moving from s to target is allowed.
func (s CountStatus) CanTransition(target CountStatus) bool {
	for _, next := range countTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsValid reports whether s is a known status.
func (s CountStatus) IsValid() bool {
	_, ok := countTransitions[s]
	return ok
}

// MeasurementMethod describes how the physical quantity was obtained.
type MeasurementMethod string

const (
	MethodManualCount MeasurementMethod = "manual_count"
	MethodDipStick    MeasurementMethod = "dip_stick"
	MethodGauge       MeasurementMethod = "gauge"
)

// InventoryCount is one physical stocktaking event for a single product
// at a single location (station shelf or fuel tank).
type InventoryCount struct {
	entity.Document

	ProductID  id.ID `db:"product_id" json:"productId"`
	LocationID id.ID `db:"location_id" json:"locationId"`

	// DeclaredQuantity is the physically counted quantity.
	DeclaredQuantity types.Quantity `db:"declared_quantity" json:"declaredQuantity"`

	// CountedAt is when the physical count was taken; theoretical stock
	// is projected as of this instant, not as of submission time.
	CountedAt time.Time `db:"counted_at" json:"countedAt"`

	ActorID string      `db:"actor_id" json:"actorId"`
	Status  CountStatus `db:"status" json:"status"`

	// ToleranceThreshold overrides product and category defaults for
	// this count only. Nil means normal resolution applies.
	ToleranceThreshold *types.Quantity `db:"tolerance_threshold" json:"toleranceThreshold,omitempty"`

	MeasurementMethod MeasurementMethod `db:"measurement_method" json:"measurementMethod"`
}

// NewInventoryCount creates a draft count.
func NewInventoryCount(stationID, productID, locationID id.ID) *InventoryCount {
	return &InventoryCount{
		Document:          entity.NewDocument(stationID),
		ProductID:         productID,
		LocationID:        locationID,
		Status:            StatusDraft,
		MeasurementMethod: MethodManualCount,
	}
}

// IsClosed reports whether the count reached its terminal state.
func (c *InventoryCount) IsClosed() bool {
	return c.Status == StatusClosed
}

// Validate implements entity.Validatable.
func (c *InventoryCount) Validate(ctx context.Context) error {
	if err := c.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(c.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if id.IsNil(c.LocationID) {
		return apperror.NewValidation("location is required").
			WithDetail("field", "locationId")
	}
	if c.DeclaredQuantity.IsNegative() {
		return apperror.NewInvalidQuantity("declared quantity must not be negative").
			WithDetail("declaredQuantity", c.DeclaredQuantity.String())
	}
	if c.CountedAt.IsZero() {
		return apperror.NewValidation("counted_at is required").
			WithDetail("field", "countedAt")
	}
	if c.ActorID == "" {
		return apperror.NewValidation("actor is required").
			WithDetail("field", "actorId")
	}
	if !c.Status.IsValid() {
		return apperror.NewValidation("unknown count status").
			WithDetail("status", string(c.Status))
	}
	if c.ToleranceThreshold != nil && c.ToleranceThreshold.IsNegative() {
		return apperror.NewValidation("tolerance threshold must not be negative").
			WithDetail("field", "toleranceThreshold")
	}
	return nil
}

// Classification labels a detected variance.
type Classification string

const (
	// ClassLoss is a shortage too large to explain by measurement or
	// physical shrinkage.
	ClassLoss Classification = "loss"
	// ClassEvaporation is a bounded shortage consistent with fuel
	// evaporation or boutique shrinkage.
	ClassEvaporation Classification = "evaporation"
	// ClassAnomaly is a variance that looks like measurement error,
	// on either side of zero.
	ClassAnomaly Classification = "anomaly"
	// ClassSurplus is an excess too large to be measurement error.
	ClassSurplus Classification = "surplus"
)

// Season is descriptive audit metadata derived from the count month.
// It never alters threshold resolution.
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
)

// SeasonOf maps a calendar month to one of the four fixed seasons.
func SeasonOf(t time.Time) Season {
	switch t.Month() {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonAutumn
	}
}

// VarianceRecord is written once per inventory count whose variance
// breaches tolerance. A re-count produces a new record tied to the new
// count; existing records are never overwritten.
type VarianceRecord struct {
	ID          id.ID `db:"id" json:"id"`
	InventoryID id.ID `db:"inventory_id" json:"inventoryId"`
	ProductID   id.ID `db:"product_id" json:"productId"`
	LocationID  id.ID `db:"location_id" json:"locationId"`

	TheoreticalQuantity types.Quantity `db:"theoretical_quantity" json:"theoreticalQuantity"`
	RealQuantity        types.Quantity `db:"real_quantity" json:"realQuantity"`

	// Variance = real - theoretical; negative means missing stock.
	Variance types.Quantity `db:"variance" json:"variance"`

	Classification Classification `db:"classification" json:"classification"`

	// AlertThreshold is the tolerance that was breached, after
	// count/product/category resolution.
	AlertThreshold types.Quantity `db:"alert_threshold" json:"alertThreshold"`

	// SeasonalContext is audit metadata only.
	SeasonalContext Season `db:"seasonal_context" json:"seasonalContext"`

	// AnomalyReason explains anomaly classifications.
	AnomalyReason *string `db:"anomaly_reason" json:"anomalyReason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
