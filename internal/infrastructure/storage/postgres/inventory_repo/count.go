// Package inventory_repo provides PostgreSQL persistence for inventory
// counts and variance records.
package inventory_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/inventory"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres"
)

const (
	countTable    = "doc_inventory_counts"
	varianceTable = "reg_variance_records"
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

// Repo implements inventory.Repository.
type Repo struct {
	txManager  *postgres.TxManager
	countCols  []string
	recordCols []string
}

var _ inventory.Repository = (*Repo)(nil)

// NewRepo creates an inventory repository.
func NewRepo(txManager *postgres.TxManager) *Repo {
	return &Repo{
		txManager:  txManager,
		countCols:  postgres.ExtractDBColumns[inventory.InventoryCount](),
		recordCols: postgres.ExtractDBColumns[inventory.VarianceRecord](),
	}
}

func (r *Repo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// CreateCount inserts a new count document.
func (r *Repo) CreateCount(ctx context.Context, count *inventory.InventoryCount) error {
	data := postgres.StructToMap(count)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in count")
	}

	sql, args, err := r.builder().
		Insert(countTable).
		SetMap(data).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert count: %w", err)
	}
	return nil
}

// GetCountByID retrieves a count document.
func (r *Repo) GetCountByID(ctx context.Context, countID id.ID) (*inventory.InventoryCount, error) {
	sql, args, err := r.builder().
		Select(r.countCols...).
		From(countTable).
		Where(squirrel.Eq{"id": countID, "deletion_mark": false}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var count inventory.InventoryCount
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &count, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("inventory_count", countID.String())
		}
		return nil, fmt.Errorf("get count: %w", err)
	}
	return &count, nil
}

// UpdateCount modifies a count with optimistic locking on version.
func (r *Repo) UpdateCount(ctx context.Context, count *inventory.InventoryCount) error {
	data := postgres.StructToMap(count)
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("count has no version field")
	}
	delete(data, "id")
	delete(data, "version")
	delete(data, "created_at")
	delete(data, "created_by")

	sql, args, err := r.builder().
		Update(countTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": count.ID}).
		Where(squirrel.Eq{"version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update count: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrencyConflict("inventory_count", count.ID.String())
	}
	count.Version = version + 1
	return nil
}

// ListCounts retrieves counts matching the filter, newest first.
func (r *Repo) ListCounts(ctx context.Context, filter inventory.CountFilter) ([]inventory.InventoryCount, error) {
	q := r.builder().
		Select(r.countCols...).
		From(countTable).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("counted_at DESC")

	if filter.StationID != nil {
		q = q.Where(squirrel.Eq{"station_id": *filter.StationID})
	}
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *filter.LocationID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"counted_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"counted_at": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var counts []inventory.InventoryCount
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &counts, sql, args...); err != nil {
		return nil, fmt.Errorf("list counts: %w", err)
	}
	return counts, nil
}

// InsertVariance appends a variance record. The unique constraint on
// inventory_id makes classification write-once per count.
func (r *Repo) InsertVariance(ctx context.Context, record *inventory.VarianceRecord) error {
	data := postgres.StructToMap(record)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in variance record")
	}

	sql, args, err := r.builder().
		Insert(varianceTable).
		SetMap(data).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewConflict("variance record already exists for count").
				WithDetail("inventory_id", record.InventoryID.String())
		}
		return fmt.Errorf("insert variance: %w", err)
	}
	return nil
}

// GetVarianceByInventory returns the record for a count, or (nil, nil)
// when the count produced none.
func (r *Repo) GetVarianceByInventory(ctx context.Context, inventoryID id.ID) (*inventory.VarianceRecord, error) {
	sql, args, err := r.builder().
		Select(r.recordCols...).
		From(varianceTable).
		Where(squirrel.Eq{"inventory_id": inventoryID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var record inventory.VarianceRecord
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &record, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get variance: %w", err)
	}
	return &record, nil
}

// ListVariances retrieves variance records matching the filter, newest first.
func (r *Repo) ListVariances(ctx context.Context, filter inventory.VarianceFilter) ([]inventory.VarianceRecord, error) {
	q := r.builder().
		Select(r.recordCols...).
		From(varianceTable).
		OrderBy("created_at DESC")

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *filter.LocationID})
	}
	if filter.Classification != nil {
		q = q.Where(squirrel.Eq{"classification": *filter.Classification})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var records []inventory.VarianceRecord
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &records, sql, args...); err != nil {
		return nil, fmt.Errorf("list variances: %w", err)
	}
	return records, nil
}
