// Package delivery_repo provides PostgreSQL persistence for fuel
// deliveries and compensation records.
package delivery_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/delivery"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres"
)

const (
	deliveryTable     = "doc_fuel_deliveries"
	compensationTable = "reg_compensation_records"
)

const pgUniqueViolation = "23505"

// Repo implements delivery.Repository.
type Repo struct {
	txManager    *postgres.TxManager
	deliveryCols []string
	recordCols   []string
}

var _ delivery.Repository = (*Repo)(nil)

// NewRepo creates a delivery repository.
func NewRepo(txManager *postgres.TxManager) *Repo {
	return &Repo{
		txManager:    txManager,
		deliveryCols: postgres.ExtractDBColumns[delivery.FuelDelivery](),
		recordCols:   postgres.ExtractDBColumns[delivery.CompensationRecord](),
	}
}

func (r *Repo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// CreateDelivery inserts a new delivery document.
func (r *Repo) CreateDelivery(ctx context.Context, d *delivery.FuelDelivery) error {
	data := postgres.StructToMap(d)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in delivery")
	}

	sql, args, err := r.builder().
		Insert(deliveryTable).
		SetMap(data).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// GetDeliveryByID retrieves a delivery document.
func (r *Repo) GetDeliveryByID(ctx context.Context, deliveryID id.ID) (*delivery.FuelDelivery, error) {
	sql, args, err := r.builder().
		Select(r.deliveryCols...).
		From(deliveryTable).
		Where(squirrel.Eq{"id": deliveryID, "deletion_mark": false}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var d delivery.FuelDelivery
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &d, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("fuel_delivery", deliveryID.String())
		}
		return nil, fmt.Errorf("get delivery: %w", err)
	}
	return &d, nil
}

// UpdateDelivery modifies a delivery with optimistic locking on version.
func (r *Repo) UpdateDelivery(ctx context.Context, d *delivery.FuelDelivery) error {
	data := postgres.StructToMap(d)
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("delivery has no version field")
	}
	delete(data, "id")
	delete(data, "version")
	delete(data, "created_at")
	delete(data, "created_by")

	sql, args, err := r.builder().
		Update(deliveryTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": d.ID}).
		Where(squirrel.Eq{"version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update delivery: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrencyConflict("fuel_delivery", d.ID.String())
	}
	d.Version = version + 1
	return nil
}

// ListDeliveries retrieves deliveries matching the filter, newest first.
func (r *Repo) ListDeliveries(ctx context.Context, filter delivery.Filter) ([]delivery.FuelDelivery, error) {
	q := r.builder().
		Select(r.deliveryCols...).
		From(deliveryTable).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("date DESC")

	if filter.StationID != nil {
		q = q.Where(squirrel.Eq{"station_id": *filter.StationID})
	}
	if filter.TankID != nil {
		q = q.Where(squirrel.Eq{"tank_id": *filter.TankID})
	}
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.ToDate})
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

	var deliveries []delivery.FuelDelivery
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &deliveries, sql, args...); err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	return deliveries, nil
}

// InsertCompensation appends a compensation record. The unique constraint on
// delivery_id guarantees at most one record per delivery.
func (r *Repo) InsertCompensation(ctx context.Context, record *delivery.CompensationRecord) error {
	data := postgres.StructToMap(record)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in compensation record")
	}

	sql, args, err := r.builder().
		Insert(compensationTable).
		SetMap(data).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewDuplicateCompensation(record.DeliveryID.String())
		}
		return fmt.Errorf("insert compensation: %w", err)
	}
	return nil
}

// GetCompensationByDelivery returns the record for a delivery, or (nil, nil)
// when none exists.
func (r *Repo) GetCompensationByDelivery(ctx context.Context, deliveryID id.ID) (*delivery.CompensationRecord, error) {
	sql, args, err := r.builder().
		Select(r.recordCols...).
		From(compensationTable).
		Where(squirrel.Eq{"delivery_id": deliveryID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var record delivery.CompensationRecord
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &record, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get compensation: %w", err)
	}
	return &record, nil
}

// ListCompensations retrieves compensation records, newest first.
func (r *Repo) ListCompensations(ctx context.Context, limit, offset int) ([]delivery.CompensationRecord, error) {
	q := r.builder().
		Select(r.recordCols...).
		From(compensationTable).
		OrderBy("created_at DESC")

	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var records []delivery.CompensationRecord
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &records, sql, args...); err != nil {
		return nil, fmt.Errorf("list compensations: %w", err)
	}
	return records, nil
}
