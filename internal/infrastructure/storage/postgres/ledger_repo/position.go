package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/valuation"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres"
)

const positionSelect = `
	SELECT product_id, location_id, theoretical_quantity, real_quantity,
	       weighted_average_cost, last_recomputed_at, updated_at
	FROM reg_stock_positions
	WHERE product_id = $1 AND location_id = $2
`

// PositionRepo implements valuation.PositionRepository.
type PositionRepo struct {
	txManager *postgres.TxManager
}

var _ valuation.PositionRepository = (*PositionRepo)(nil)

// NewPositionRepo creates a position repository.
func NewPositionRepo(txManager *postgres.TxManager) *PositionRepo {
	return &PositionRepo{txManager: txManager}
}

// GetPosition returns the cached position, or (nil, nil) when the pair has
// never been recomputed.
func (r *PositionRepo) GetPosition(ctx context.Context, productID, locationID id.ID) (*valuation.StockPosition, error) {
	var pos valuation.StockPosition
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &pos, positionSelect, productID, locationID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get position: %w", err)
	}
	return &pos, nil
}

// GetPositionForUpdate locks the position row, inserting an empty one first
// when the pair is new. Concurrent recomputes for the same pair queue on the
// row lock.
func (r *PositionRepo) GetPositionForUpdate(ctx context.Context, productID, locationID id.ID) (*valuation.StockPosition, error) {
	querier := r.txManager.GetQuerier(ctx)

	insertQuery := `
		INSERT INTO reg_stock_positions (
			product_id, location_id, theoretical_quantity,
			weighted_average_cost, last_recomputed_at, updated_at
		) VALUES ($1, $2, 0, 0, NOW(), NOW())
		ON CONFLICT (product_id, location_id) DO NOTHING
	`
	if _, err := querier.Exec(ctx, insertQuery, productID, locationID); err != nil {
		return nil, fmt.Errorf("ensure position row: %w", err)
	}

	var pos valuation.StockPosition
	if err := pgxscan.Get(ctx, querier, &pos, positionSelect+" FOR UPDATE", productID, locationID); err != nil {
		return nil, fmt.Errorf("lock position: %w", err)
	}
	return &pos, nil
}

// UpsertPosition writes the recomputed quantity and cost for the pair.
// A nil RealQuantity keeps the value from the last physical count.
func (r *PositionRepo) UpsertPosition(ctx context.Context, pos *valuation.StockPosition) error {
	query := `
		INSERT INTO reg_stock_positions (
			product_id, location_id, theoretical_quantity, real_quantity,
			weighted_average_cost, last_recomputed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (product_id, location_id) DO UPDATE SET
			theoretical_quantity = EXCLUDED.theoretical_quantity,
			real_quantity = COALESCE(EXCLUDED.real_quantity, reg_stock_positions.real_quantity),
			weighted_average_cost = EXCLUDED.weighted_average_cost,
			last_recomputed_at = EXCLUDED.last_recomputed_at,
			updated_at = NOW()
	`

	if pos.LastRecomputedAt.IsZero() {
		pos.LastRecomputedAt = time.Now().UTC()
	}

	querier := r.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, query,
		pos.ProductID, pos.LocationID, pos.TheoreticalQuantity, pos.RealQuantity,
		pos.WeightedAverageCost, pos.LastRecomputedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}
	return nil
}

// SetRealQuantity records the last physical count on the position without
// touching the theoretical fold.
func (r *PositionRepo) SetRealQuantity(ctx context.Context, productID, locationID id.ID, qty types.Quantity) error {
	query := `
		INSERT INTO reg_stock_positions (
			product_id, location_id, theoretical_quantity, real_quantity,
			weighted_average_cost, last_recomputed_at, updated_at
		) VALUES ($1, $2, 0, $3, 0, NOW(), NOW())
		ON CONFLICT (product_id, location_id) DO UPDATE SET
			real_quantity = EXCLUDED.real_quantity,
			updated_at = NOW()
	`

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, query, productID, locationID, qty); err != nil {
		return fmt.Errorf("set real quantity: %w", err)
	}
	return nil
}
