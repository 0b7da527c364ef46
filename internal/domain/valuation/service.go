package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/ledger"
	"github.com/midasconsultingnet/successfuel-api-sub001/pkg/logger"
)

// Service is the CostValuator. It folds ledger history into a weighted
// average cost and maintains the StockPosition cache.
type Service struct {
	movements ledger.Repository
	positions PositionRepository
}

// NewService creates the valuation service.
func NewService(movements ledger.Repository, positions PositionRepository) *Service {
	return &Service{
		movements: movements,
		positions: positions,
	}
}

// WeightedAverageCost returns the current weighted average unit cost for the
// pair. Served from the position cache; computed from history when no
// position exists yet.
func (s *Service) WeightedAverageCost(ctx context.Context, productID, locationID id.ID) (types.Money, error) {
	pos, err := s.positions.GetPosition(ctx, productID, locationID)
	if err != nil {
		return types.ZeroMoney(), err
	}
	if pos != nil {
		return pos.WeightedAverageCost, nil
	}

	_, cost, err := s.foldHistory(ctx, productID, locationID)
	if err != nil {
		return types.ZeroMoney(), err
	}
	return cost, nil
}

// GetPosition returns the cached position, or a zero-valued one when the
// pair has no history.
func (s *Service) GetPosition(ctx context.Context, productID, locationID id.ID) (*StockPosition, error) {
	pos, err := s.positions.GetPosition(ctx, productID, locationID)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return &StockPosition{
			ProductID:           productID,
			LocationID:          locationID,
			WeightedAverageCost: types.ZeroMoney(),
		}, nil
	}
	return pos, nil
}

// Recompute folds full history for the pair and rewrites the cached
// position. Must run inside the caller's transaction, under the per-key
// serialization of the ledger service; the row lock taken here guards
// against recomputes from other processes.
func (s *Service) Recompute(ctx context.Context, productID, locationID id.ID) error {
	if _, err := s.positions.GetPositionForUpdate(ctx, productID, locationID); err != nil {
		return fmt.Errorf("lock position: %w", err)
	}

	qty, cost, err := s.foldHistory(ctx, productID, locationID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	pos := &StockPosition{
		ProductID:           productID,
		LocationID:          locationID,
		TheoreticalQuantity: qty,
		WeightedAverageCost: cost,
		LastRecomputedAt:    now,
		UpdatedAt:           now,
	}

	if err := s.positions.UpsertPosition(ctx, pos); err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}

	logger.Debug(ctx, "position recomputed",
		"product_id", productID,
		"location_id", locationID,
		"quantity", qty.String(),
		"weighted_average_cost", cost.String(),
	)

	return nil
}

// RecordRealQuantity stores the declared quantity of a physical count.
func (s *Service) RecordRealQuantity(ctx context.Context, productID, locationID id.ID, qty types.Quantity) error {
	return s.positions.SetRealQuantity(ctx, productID, locationID, qty)
}

func (s *Service) foldHistory(ctx context.Context, productID, locationID id.ID) (types.Quantity, types.Money, error) {
	movements, err := s.movements.ListByKey(ctx, productID, locationID)
	if err != nil {
		return 0, types.ZeroMoney(), fmt.Errorf("list movements: %w", err)
	}

	qty, cost, err := ComputePool(movements)
	if err != nil {
		if apperror.IsInsufficientHistory(err) {
			// Re-key the error to this pair for the caller.
			return 0, types.ZeroMoney(), apperror.NewInsufficientHistory(
				productID.String(), locationID.String())
		}
		return 0, types.ZeroMoney(), err
	}
	return qty, cost, nil
}

// ComputePool folds movements (already ordered by occurred_at, insertion
// order breaking ties) into the running quantity and weighted average cost.
//
// Weighted-average costing: only value-bearing receipts re-price the pool.
// Depletions relieve value at the running average cost, so the unit cost is
// invariant across depletions. When the pool empties, any residual value is
// discarded so the next entry re-prices from scratch.
func ComputePool(movements []ledger.StockMovement) (types.Quantity, types.Money, error) {
	var accQty types.Quantity
	accValue := types.ZeroMoney()
	seenValueEntry := false

	deplete := func(m *ledger.StockMovement) error {
		if !seenValueEntry {
			return apperror.NewInsufficientHistory(
				m.ProductID.String(), m.LocationID.String())
		}
		if accQty > 0 {
			wac := accValue.Div(accQty.Decimal())
			accValue = accValue.Sub(m.Quantity.Decimal().Mul(wac))
		}
		accQty -= m.Quantity
		return nil
	}

	for i := range movements {
		m := &movements[i]
		if !m.CountsInFold() {
			continue
		}

		switch m.Kind {
		case ledger.KindEntry, ledger.KindInitial:
			accQty += m.Quantity
			accValue = accValue.Add(m.Quantity.Decimal().Mul(*m.UnitCost))
			seenValueEntry = true

		case ledger.KindAdjustment:
			if m.Direction == ledger.DirectionReceipt {
				accQty += m.Quantity
				accValue = accValue.Add(m.Quantity.Decimal().Mul(*m.UnitCost))
				seenValueEntry = true
			} else if err := deplete(m); err != nil {
				return 0, types.ZeroMoney(), err
			}

		case ledger.KindExit:
			if err := deplete(m); err != nil {
				return 0, types.ZeroMoney(), err
			}

		case ledger.KindCancellation:
			// Excluded by CountsInFold; keep the switch exhaustive.
			continue
		}

		// Pool emptied: discard residual value so a later entry
		// re-prices cleanly.
		if accQty <= 0 {
			accValue = types.ZeroMoney()
		}
	}

	if accQty <= 0 {
		return accQty, types.ZeroMoney(), nil
	}

	return accQty, accValue.Div(accQty.Decimal()), nil
}
