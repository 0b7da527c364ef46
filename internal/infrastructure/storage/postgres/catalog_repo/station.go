package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/catalogs/station"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres"
)

// StationRepo implements station.Repository for both stations and tanks.
type StationRepo struct {
	stations baseCatalogRepo[station.Station]
	tanks    baseCatalogRepo[station.Tank]

	txManager *postgres.TxManager
}

var _ station.Repository = (*StationRepo)(nil)

// NewStationRepo creates a station/tank repository.
func NewStationRepo(txManager *postgres.TxManager) *StationRepo {
	return &StationRepo{
		stations:  newBaseCatalogRepo[station.Station](txManager, "cat_stations"),
		tanks:     newBaseCatalogRepo[station.Tank](txManager, "cat_tanks"),
		txManager: txManager,
	}
}

func (r *StationRepo) CreateStation(ctx context.Context, st *station.Station) error {
	return r.stations.create(ctx, st)
}

func (r *StationRepo) UpdateStation(ctx context.Context, st *station.Station) error {
	return r.stations.update(ctx, st)
}

func (r *StationRepo) GetStationByID(ctx context.Context, stationID id.ID) (*station.Station, error) {
	return r.stations.getByID(ctx, stationID)
}

func (r *StationRepo) ListStations(ctx context.Context, companyID *id.ID) ([]*station.Station, error) {
	q := r.stations.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("code ASC")
	if companyID != nil {
		q = q.Where(squirrel.Eq{"company_id": *companyID})
	}
	return r.stations.selectMany(ctx, q)
}

func (r *StationRepo) CreateTank(ctx context.Context, t *station.Tank) error {
	return r.tanks.create(ctx, t)
}

func (r *StationRepo) UpdateTank(ctx context.Context, t *station.Tank) error {
	return r.tanks.update(ctx, t)
}

func (r *StationRepo) GetTankByID(ctx context.Context, tankID id.ID) (*station.Tank, error) {
	return r.tanks.getByID(ctx, tankID)
}

func (r *StationRepo) ListTanks(ctx context.Context, stationID id.ID) ([]*station.Tank, error) {
	q := r.tanks.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false, "station_id": stationID}).
		OrderBy("code ASC")
	return r.tanks.selectMany(ctx, q)
}

// ResolveLocation identifies a location ID as a station or a tank with a
// single round trip.
func (r *StationRepo) ResolveLocation(ctx context.Context, locationID id.ID) (station.Location, error) {
	query := `
		SELECT id, 'station' AS kind, id AS station_id
		FROM cat_stations
		WHERE id = $1 AND deletion_mark = FALSE
		UNION ALL
		SELECT id, 'tank' AS kind, station_id
		FROM cat_tanks
		WHERE id = $1 AND deletion_mark = FALSE
	`

	querier := r.txManager.GetQuerier(ctx)

	var loc station.Location
	err := querier.QueryRow(ctx, query, locationID).Scan(&loc.ID, &loc.Kind, &loc.StationID)
	if err != nil {
		if isNoRows(err) {
			return station.Location{}, apperror.NewNotFound("location", locationID.String())
		}
		return station.Location{}, fmt.Errorf("resolve location: %w", err)
	}
	return loc, nil
}
