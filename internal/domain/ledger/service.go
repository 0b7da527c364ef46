package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/keylock"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/tx"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/catalogs/product"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/catalogs/station"
	"github.com/midasconsultingnet/successfuel-api-sub001/pkg/logger"
)

// ProductCatalog is the product lookup the ledger needs.
type ProductCatalog interface {
	RequireStockTracked(ctx context.Context, productID id.ID) (*product.Product, error)
}

// LocationResolver identifies stock locations.
type LocationResolver interface {
	ResolveLocation(ctx context.Context, locationID id.ID) (station.Location, error)
}

// PositionRecomputer refreshes the cached stock position for a key after an
// append. Implemented by the valuation service.
type PositionRecomputer interface {
	Recompute(ctx context.Context, productID, locationID id.ID) error
}

// AppendInput carries the fields of a movement to append.
type AppendInput struct {
	ProductID  id.ID
	LocationID id.ID

	Kind MovementKind
	// Direction is required for adjustments; derived from Kind otherwise.
	Direction Direction

	Quantity types.Quantity
	UnitCost *types.Money

	OccurredAt      time.Time
	OriginModule    string
	OriginReference string
	ActorID         string
}

// Service is the MovementLedger: the only writer of stock movements.
type Service struct {
	repo       Repository
	products   ProductCatalog
	locations  LocationResolver
	recomputer PositionRecomputer
	txManager  tx.Manager

	locks       *keylock.KeyLock
	lockRetries int
}

// NewService creates the ledger service.
func NewService(
	repo Repository,
	products ProductCatalog,
	locations LocationResolver,
	recomputer PositionRecomputer,
	txManager tx.Manager,
	lockRetries int,
) *Service {
	if lockRetries <= 0 {
		lockRetries = 3
	}
	return &Service{
		repo:        repo,
		products:    products,
		locations:   locations,
		recomputer:  recomputer,
		txManager:   txManager,
		locks:       keylock.New(),
		lockRetries: lockRetries,
	}
}

// Append validates and records a movement, then refreshes the cached stock
// position within the same transaction. All-or-nothing: a validation failure
// leaves no partial effect.
func (s *Service) Append(ctx context.Context, in AppendInput) (id.ID, error) {
	m := &StockMovement{
		ID:              id.New(),
		ProductID:       in.ProductID,
		LocationID:      in.LocationID,
		Kind:            in.Kind,
		Direction:       directionFor(in.Kind, in.Direction),
		Quantity:        in.Quantity,
		UnitCost:        in.UnitCost,
		OccurredAt:      in.OccurredAt,
		OriginModule:    in.OriginModule,
		OriginReference: in.OriginReference,
		ActorID:         in.ActorID,
		Status:          StatusValidated,
		RecordedAt:      time.Now().UTC(),
	}

	if err := m.Validate(ctx); err != nil {
		return id.Nil(), err
	}

	p, err := s.products.RequireStockTracked(ctx, m.ProductID)
	if err != nil {
		return id.Nil(), err
	}

	loc, err := s.locations.ResolveLocation(ctx, m.LocationID)
	if err != nil {
		return id.Nil(), err
	}

	// Fuel lives in tanks, boutique goods at the station itself.
	if p.IsFuel() && loc.Kind != station.LocationTank {
		return id.Nil(), apperror.NewValidation("fuel movements must target a tank").
			WithDetail("location_id", m.LocationID.String())
	}
	if !p.IsFuel() && loc.Kind != station.LocationStation {
		return id.Nil(), apperror.NewValidation("boutique movements must target a station").
			WithDetail("location_id", m.LocationID.String())
	}

	err = s.withKeyLock(ctx, m.ProductID, m.LocationID, func(ctx context.Context) error {
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if m.Direction == DirectionExpense && m.Kind != KindCancellation {
				hasEntry, err := s.repo.HasValueEntry(ctx, m.ProductID, m.LocationID)
				if err != nil {
					return fmt.Errorf("check history: %w", err)
				}
				if !hasEntry {
					return apperror.NewInsufficientHistory(
						m.ProductID.String(), m.LocationID.String())
				}
			}

			if err := s.repo.Insert(ctx, m); err != nil {
				return fmt.Errorf("insert movement: %w", err)
			}

			// Eager recompute: the position cache is never stale past an
			// append in the same transaction.
			if err := s.recomputer.Recompute(ctx, m.ProductID, m.LocationID); err != nil {
				return fmt.Errorf("recompute position: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return id.Nil(), err
	}

	logger.Info(ctx, "movement appended",
		"movement_id", m.ID,
		"product_id", m.ProductID,
		"location_id", m.LocationID,
		"kind", m.Kind,
		"quantity", m.Quantity.String(),
		"origin", m.OriginModule,
	)

	return m.ID, nil
}

// Cancel voids a validated movement: the original transitions to cancelled
// and a cancellation marker referencing it is appended, both atomically.
// History is never edited.
func (s *Service) Cancel(ctx context.Context, movementID id.ID, actorID string) (id.ID, error) {
	original, err := s.repo.GetByID(ctx, movementID)
	if err != nil {
		return id.Nil(), err
	}

	if original.Status == StatusCancelled {
		return id.Nil(), apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"Movement is already cancelled",
		).WithDetail("movement_id", movementID.String())
	}
	if original.Kind == KindCancellation {
		return id.Nil(), apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"Cancellation markers cannot be cancelled",
		).WithDetail("movement_id", movementID.String())
	}

	marker := &StockMovement{
		ID:              id.New(),
		ProductID:       original.ProductID,
		LocationID:      original.LocationID,
		Kind:            KindCancellation,
		Direction:       oppositeDirection(original.Direction),
		Quantity:        original.Quantity,
		OccurredAt:      time.Now().UTC(),
		OriginModule:    original.OriginModule,
		OriginReference: original.ID.String(),
		ActorID:         actorID,
		Status:          StatusValidated,
		RecordedAt:      time.Now().UTC(),
	}

	if err := marker.Validate(ctx); err != nil {
		return id.Nil(), err
	}

	err = s.withKeyLock(ctx, original.ProductID, original.LocationID, func(ctx context.Context) error {
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.repo.MarkCancelled(ctx, original.ID); err != nil {
				return fmt.Errorf("mark cancelled: %w", err)
			}
			if err := s.repo.Insert(ctx, marker); err != nil {
				return fmt.Errorf("insert cancellation: %w", err)
			}
			return s.recomputer.Recompute(ctx, original.ProductID, original.LocationID)
		})
	})
	if err != nil {
		return id.Nil(), err
	}

	logger.Info(ctx, "movement cancelled",
		"movement_id", original.ID,
		"cancellation_id", marker.ID,
		"actor_id", actorID,
	)

	return marker.ID, nil
}

// GetByID retrieves a movement.
func (s *Service) GetByID(ctx context.Context, movementID id.ID) (*StockMovement, error) {
	return s.repo.GetByID(ctx, movementID)
}

// History retrieves movements for display.
func (s *Service) History(ctx context.Context, filter HistoryFilter) ([]StockMovement, error) {
	return s.repo.History(ctx, filter)
}

// ImportOpeningBalances bulk-loads initial stock movements, one per
// (product, location), and recomputes every touched position in the
// same transaction. Meant for station onboarding, before concurrent
// traffic exists; individual appends go through Append.
func (s *Service) ImportOpeningBalances(ctx context.Context, inputs []AppendInput) (int, error) {
	if len(inputs) == 0 {
		return 0, nil
	}

	movements := make([]StockMovement, 0, len(inputs))
	type key struct{ productID, locationID id.ID }
	keys := make(map[key]struct{}, len(inputs))

	for i := range inputs {
		in := &inputs[i]
		m := StockMovement{
			ID:              id.New(),
			ProductID:       in.ProductID,
			LocationID:      in.LocationID,
			Kind:            KindInitial,
			Direction:       DirectionReceipt,
			Quantity:        in.Quantity,
			UnitCost:        in.UnitCost,
			OccurredAt:      in.OccurredAt,
			OriginModule:    in.OriginModule,
			OriginReference: in.OriginReference,
			ActorID:         in.ActorID,
			Status:          StatusValidated,
			RecordedAt:      time.Now().UTC(),
		}
		if m.OriginModule == "" {
			m.OriginModule = "stock_initial"
		}

		if err := m.Validate(ctx); err != nil {
			return 0, err
		}
		if _, err := s.products.RequireStockTracked(ctx, m.ProductID); err != nil {
			return 0, err
		}
		if _, err := s.locations.ResolveLocation(ctx, m.LocationID); err != nil {
			return 0, err
		}

		movements = append(movements, m)
		keys[key{m.ProductID, m.LocationID}] = struct{}{}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.InsertMany(ctx, movements); err != nil {
			return fmt.Errorf("bulk insert: %w", err)
		}
		for k := range keys {
			if err := s.recomputer.Recompute(ctx, k.productID, k.locationID); err != nil {
				return fmt.Errorf("recompute position: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "opening balances imported",
		"movements", len(movements),
		"positions", len(keys),
	)

	return len(movements), nil
}

// withKeyLock serializes the callback per (product, location) with a bounded
// retry budget, surfacing CONCURRENCY_CONFLICT once exhausted.
func (s *Service) withKeyLock(ctx context.Context, productID, locationID id.ID, fn func(ctx context.Context) error) error {
	key := productID.String() + "|" + locationID.String()

	for attempt := 0; attempt < s.lockRetries; attempt++ {
		release, ok := s.locks.TryAcquire(key)
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
			}
			continue
		}
		err := fn(ctx)
		release()
		return err
	}

	return apperror.NewConcurrencyConflict("stock_position", key)
}

func directionFor(kind MovementKind, explicit Direction) Direction {
	switch kind {
	case KindEntry, KindInitial:
		return DirectionReceipt
	case KindExit:
		return DirectionExpense
	default:
		return explicit
	}
}

func oppositeDirection(d Direction) Direction {
	if d == DirectionReceipt {
		return DirectionExpense
	}
	return DirectionReceipt
}
