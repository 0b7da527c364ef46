// Package ledger_repo provides PostgreSQL persistence for the stock
// movement ledger and the cached stock positions.
package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/ledger"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres"
)

const movementTable = "reg_stock_movements"

var movementCols = []string{
	"id", "product_id", "location_id", "kind", "direction", "quantity",
	"unit_cost", "occurred_at", "origin_module", "origin_reference",
	"actor_id", "status", "recorded_at", "seq",
}

// MovementRepo implements ledger.Repository.
type MovementRepo struct {
	txManager *postgres.TxManager
	batch     *postgres.BatchInserter
}

var _ ledger.Repository = (*MovementRepo)(nil)

// NewMovementRepo creates a movement repository.
func NewMovementRepo(txManager *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txManager: txManager,
		batch:     postgres.NewBatchInserter(txManager),
	}
}

func (r *MovementRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Insert appends a movement. Seq is assigned by the database and
// written back for deterministic tie-breaking.
func (r *MovementRepo) Insert(ctx context.Context, m *ledger.StockMovement) error {
	query := `
		INSERT INTO reg_stock_movements (
			id, product_id, location_id, kind, direction, quantity,
			unit_cost, occurred_at, origin_module, origin_reference,
			actor_id, status, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING seq
	`

	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, query,
		m.ID, m.ProductID, m.LocationID, m.Kind, m.Direction, m.Quantity,
		m.UnitCost, m.OccurredAt, m.OriginModule, m.OriginReference,
		m.ActorID, m.Status, m.RecordedAt,
	).Scan(&m.Seq)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// InsertMany bulk-loads movements via the COPY protocol. Requires a
// transaction in context.
func (r *MovementRepo) InsertMany(ctx context.Context, movements []ledger.StockMovement) error {
	columns := []string{
		"id", "product_id", "location_id", "kind", "direction", "quantity",
		"unit_cost", "occurred_at", "origin_module", "origin_reference",
		"actor_id", "status", "recorded_at",
	}

	rows := make([][]any, 0, len(movements))
	for i := range movements {
		m := &movements[i]
		rows = append(rows, []any{
			m.ID, m.ProductID, m.LocationID, m.Kind, m.Direction, m.Quantity,
			m.UnitCost, m.OccurredAt, m.OriginModule, m.OriginReference,
			m.ActorID, m.Status, m.RecordedAt,
		})
	}

	inserted, err := r.batch.CopyFromSlice(ctx, movementTable, columns, rows)
	if err != nil {
		return fmt.Errorf("copy movements: %w", err)
	}
	if inserted != int64(len(rows)) {
		return fmt.Errorf("copy movements: inserted %d of %d rows", inserted, len(rows))
	}
	return nil
}

// GetByID retrieves a single movement.
func (r *MovementRepo) GetByID(ctx context.Context, movementID id.ID) (*ledger.StockMovement, error) {
	q := r.builder().
		Select(movementCols...).
		From(movementTable).
		Where(squirrel.Eq{"id": movementID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m ledger.StockMovement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock_movement", movementID.String())
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return &m, nil
}

// ListByKey retrieves all movements for a (product, location) pair in
// fold order: occurred_at, then insertion order.
func (r *MovementRepo) ListByKey(ctx context.Context, productID, locationID id.ID) ([]ledger.StockMovement, error) {
	q := r.builder().
		Select(movementCols...).
		From(movementTable).
		Where(squirrel.Eq{"product_id": productID, "location_id": locationID}).
		OrderBy("occurred_at ASC", "seq ASC")

	return r.selectMovements(ctx, q)
}

// ListByOrigin retrieves movements produced by a business event.
func (r *MovementRepo) ListByOrigin(ctx context.Context, originModule, originReference string) ([]ledger.StockMovement, error) {
	q := r.builder().
		Select(movementCols...).
		From(movementTable).
		Where(squirrel.Eq{"origin_module": originModule, "origin_reference": originReference}).
		OrderBy("occurred_at ASC", "seq ASC")

	return r.selectMovements(ctx, q)
}

// SignedSumAsOf folds signed quantities in SQL. The same fold serves
// live stock display and historical tank checks.
func (r *MovementRepo) SignedSumAsOf(ctx context.Context, productID, locationID id.ID, asOf time.Time) (types.Quantity, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE WHEN direction = 'receipt' THEN quantity ELSE -quantity END
		), 0)
		FROM reg_stock_movements
		WHERE product_id = $1
		  AND location_id = $2
		  AND status = 'validated'
		  AND kind <> 'cancellation'
		  AND occurred_at <= $3
	`

	var total int64
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, query, productID, locationID, asOf).Scan(&total); err != nil {
		return 0, fmt.Errorf("signed sum: %w", err)
	}
	return types.NewQuantityFromInt64Scaled(total), nil
}

// HasValueEntry reports whether any validated value-bearing movement
// exists for the pair.
func (r *MovementRepo) HasValueEntry(ctx context.Context, productID, locationID id.ID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM reg_stock_movements
			WHERE product_id = $1
			  AND location_id = $2
			  AND status = 'validated'
			  AND unit_cost IS NOT NULL
		)
	`

	var exists bool
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, query, productID, locationID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check value entry: %w", err)
	}
	return exists, nil
}

// MarkCancelled flips a validated movement to cancelled.
func (r *MovementRepo) MarkCancelled(ctx context.Context, movementID id.ID) error {
	query := `
		UPDATE reg_stock_movements
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'validated'
	`

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, query, movementID)
	if err != nil {
		return fmt.Errorf("mark cancelled: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConflict("movement is not in validated status").
			WithDetail("movement_id", movementID.String())
	}
	return nil
}

// History retrieves movements with filtering for display.
func (r *MovementRepo) History(ctx context.Context, filter ledger.HistoryFilter) ([]ledger.StockMovement, error) {
	q := r.builder().
		Select(movementCols...).
		From(movementTable).
		OrderBy("occurred_at DESC", "seq DESC")

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *filter.LocationID})
	}
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"occurred_at": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	return r.selectMovements(ctx, q)
}

func (r *MovementRepo) selectMovements(ctx context.Context, q squirrel.SelectBuilder) ([]ledger.StockMovement, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []ledger.StockMovement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}
