package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/numerator"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/tx"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/catalogs/product"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/catalogs/station"
	"github.com/midasconsultingnet/successfuel-api-sub001/pkg/logger"
)

// ProductCatalog is the product lookup the classifier needs.
type ProductCatalog interface {
	RequireStockTracked(ctx context.Context, productID id.ID) (*product.Product, error)
}

// LocationResolver identifies stock locations.
type LocationResolver interface {
	ResolveLocation(ctx context.Context, locationID id.ID) (station.Location, error)
}

// Projector supplies theoretical quantities from the movement ledger.
type Projector interface {
	TheoreticalQuantity(ctx context.Context, productID, locationID id.ID, asOf time.Time) (types.Quantity, error)
}

// PositionWriter records the physically counted quantity on the cached
// stock position. Implemented by the valuation service.
type PositionWriter interface {
	RecordRealQuantity(ctx context.Context, productID, locationID id.ID, quantity types.Quantity) error
}

// Defaults carries the category tolerance policy.
type Defaults struct {
	BoutiqueTolerance types.Quantity
	FuelTolerance     types.Quantity
}

// SubmitInput carries the fields of a new inventory count.
type SubmitInput struct {
	StationID  id.ID
	ProductID  id.ID
	LocationID id.ID

	DeclaredQuantity types.Quantity
	CountedAt        time.Time
	ActorID          string

	ToleranceThreshold *types.Quantity
	MeasurementMethod  MeasurementMethod
	Comment            string
}

// Service manages the inventory count lifecycle and runs the variance
// classifier.
type Service struct {
	repo      Repository
	products  ProductCatalog
	locations LocationResolver
	projector Projector
	positions PositionWriter
	txManager tx.Manager
	numerator numerator.Generator
	defaults  Defaults
}

// NewService creates the inventory service.
func NewService(
	repo Repository,
	products ProductCatalog,
	locations LocationResolver,
	projector Projector,
	positions PositionWriter,
	txManager tx.Manager,
	gen numerator.Generator,
	defaults Defaults,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		locations: locations,
		projector: projector,
		positions: positions,
		txManager: txManager,
		numerator: gen,
		defaults:  defaults,
	}
}

// SubmitCount registers a new physical count in draft state.
func (s *Service) SubmitCount(ctx context.Context, in SubmitInput) (*InventoryCount, error) {
	count := NewInventoryCount(in.StationID, in.ProductID, in.LocationID)
	count.DeclaredQuantity = in.DeclaredQuantity
	count.CountedAt = in.CountedAt
	count.ActorID = in.ActorID
	count.ToleranceThreshold = in.ToleranceThreshold
	count.Comment = in.Comment
	if in.MeasurementMethod != "" {
		count.MeasurementMethod = in.MeasurementMethod
	}
	if count.CountedAt.IsZero() {
		count.CountedAt = time.Now().UTC()
	}

	if err := count.Validate(ctx); err != nil {
		return nil, err
	}

	p, err := s.products.RequireStockTracked(ctx, count.ProductID)
	if err != nil {
		return nil, err
	}

	loc, err := s.locations.ResolveLocation(ctx, count.LocationID)
	if err != nil {
		return nil, err
	}
	if p.IsFuel() && loc.Kind != station.LocationTank {
		return nil, apperror.NewValidation("fuel counts must target a tank").
			WithDetail("location_id", count.LocationID.String())
	}
	if !p.IsFuel() && loc.Kind != station.LocationStation {
		return nil, apperror.NewValidation("boutique counts must target a station").
			WithDetail("location_id", count.LocationID.String())
	}

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("INV"), nil, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}
	count.Number = number

	if err := s.repo.CreateCount(ctx, count); err != nil {
		return nil, fmt.Errorf("create count: %w", err)
	}

	logger.Info(ctx, "inventory count submitted",
		"count_id", count.ID,
		"number", count.Number,
		"product_id", count.ProductID,
		"location_id", count.LocationID,
		"declared", count.DeclaredQuantity.String(),
	)

	return count, nil
}

// Transition advances a count through its lifecycle. Closed counts are
// terminal and reject every further transition.
func (s *Service) Transition(ctx context.Context, countID id.ID, target CountStatus) (*InventoryCount, error) {
	count, err := s.repo.GetCountByID(ctx, countID)
	if err != nil {
		return nil, err
	}

	if count.IsClosed() {
		return nil, apperror.NewInventoryClosed(countID.String())
	}
	if !target.IsValid() {
		return nil, apperror.NewValidation("unknown count status").
			WithDetail("status", string(target))
	}
	if !count.Status.CanTransition(target) {
		return nil, apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			fmt.Sprintf("Cannot transition count from %s to %s", count.Status, target),
		).WithDetail("count_id", countID.String())
	}

	count.Status = target
	count.Touch()
	if err := s.repo.UpdateCount(ctx, count); err != nil {
		return nil, fmt.Errorf("update count: %w", err)
	}

	logger.Info(ctx, "inventory count transitioned",
		"count_id", count.ID,
		"status", string(target),
	)

	return count, nil
}

// GetCount retrieves a count.
func (s *Service) GetCount(ctx context.Context, countID id.ID) (*InventoryCount, error) {
	return s.repo.GetCountByID(ctx, countID)
}

// ListCounts lists counts for display.
func (s *Service) ListCounts(ctx context.Context, filter CountFilter) ([]InventoryCount, error) {
	return s.repo.ListCounts(ctx, filter)
}

// GetVariance returns the variance record for a count, or (nil, nil)
// when the count stayed within tolerance.
func (s *Service) GetVariance(ctx context.Context, inventoryID id.ID) (*VarianceRecord, error) {
	return s.repo.GetVarianceByInventory(ctx, inventoryID)
}

// ListVariances lists variance records for reporting.
func (s *Service) ListVariances(ctx context.Context, filter VarianceFilter) ([]VarianceRecord, error) {
	return s.repo.ListVariances(ctx, filter)
}

// Classify compares the count's declared quantity to the theoretical
// quantity projected as of the count instant, records the real quantity
// on the stock position, and writes a variance record when the variance
// breaches tolerance. Returns (nil, nil) when the count matches within
// tolerance.
//
// Re-running against the same count returns the already-written record
// instead of duplicating it; a re-count under a new count id always
// produces an independent record.
func (s *Service) Classify(ctx context.Context, inventoryID id.ID) (*VarianceRecord, error) {
	count, err := s.repo.GetCountByID(ctx, inventoryID)
	if err != nil {
		return nil, err
	}

	if count.IsClosed() {
		return nil, apperror.NewInventoryClosed(inventoryID.String())
	}
	if count.Status != StatusCompleted && count.Status != StatusValidated {
		return nil, apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			fmt.Sprintf("Variance classification requires a completed or validated count, got %s", count.Status),
		).WithDetail("count_id", inventoryID.String())
	}

	existing, err := s.repo.GetVarianceByInventory(ctx, inventoryID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	p, err := s.products.RequireStockTracked(ctx, count.ProductID)
	if err != nil {
		return nil, err
	}
	cat := CategoryBoutique
	if p.IsFuel() {
		cat = CategoryFuel
	}

	// A theoretical quantity that cannot be resolved must fail loudly;
	// defaulting to zero would corrupt downstream financial postings.
	theoretical, err := s.projector.TheoreticalQuantity(ctx, count.ProductID, count.LocationID, count.CountedAt)
	if err != nil {
		return nil, fmt.Errorf("project theoretical quantity: %w", err)
	}

	variance := count.DeclaredQuantity - theoretical
	threshold := s.resolveThreshold(count, p, cat)

	classification, breached := ClassifyVariance(variance, threshold, cat)

	var record *VarianceRecord
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.positions.RecordRealQuantity(ctx, count.ProductID, count.LocationID, count.DeclaredQuantity); err != nil {
			return fmt.Errorf("record real quantity: %w", err)
		}

		if !breached {
			return nil
		}

		record = &VarianceRecord{
			ID:                  id.New(),
			InventoryID:         count.ID,
			ProductID:           count.ProductID,
			LocationID:          count.LocationID,
			TheoreticalQuantity: theoretical,
			RealQuantity:        count.DeclaredQuantity,
			Variance:            variance,
			Classification:      classification,
			AlertThreshold:      threshold,
			SeasonalContext:     SeasonOf(count.CountedAt),
			CreatedAt:           time.Now().UTC(),
		}
		if classification == ClassAnomaly {
			reason := anomalyReason(variance, cat)
			record.AnomalyReason = &reason
		}

		if err := s.repo.InsertVariance(ctx, record); err != nil {
			return fmt.Errorf("insert variance: %w", err)
		}
		return nil
	})
	if err != nil {
		// A concurrent classify of the same count can win the insert
		// between the pre-check and ours. The unique constraint keeps
		// the record single; return it instead of a conflict.
		if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeConflict {
			return s.repo.GetVarianceByInventory(ctx, inventoryID)
		}
		return nil, err
	}

	if record == nil {
		logger.Info(ctx, "inventory count within tolerance",
			"count_id", count.ID,
			"variance", variance.String(),
			"threshold", threshold.String(),
		)
		return nil, nil
	}

	logger.Info(ctx, "variance recorded",
		"count_id", count.ID,
		"variance_id", record.ID,
		"classification", string(record.Classification),
		"variance", variance.String(),
		"threshold", threshold.String(),
	)

	return record, nil
}

// resolveThreshold picks the tolerance: count override, then product
// override, then category default. Season never enters the resolution.
func (s *Service) resolveThreshold(count *InventoryCount, p *product.Product, cat Category) types.Quantity {
	if count.ToleranceThreshold != nil {
		return *count.ToleranceThreshold
	}
	if p.ToleranceThreshold != nil {
		return *p.ToleranceThreshold
	}
	if cat == CategoryFuel {
		return s.defaults.FuelTolerance
	}
	return s.defaults.BoutiqueTolerance
}
