package station

import (
	"context"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
)

// Repository defines the interface for station and tank persistence.
type Repository interface {
	CreateStation(ctx context.Context, st *Station) error
	UpdateStation(ctx context.Context, st *Station) error
	GetStationByID(ctx context.Context, stationID id.ID) (*Station, error)
	ListStations(ctx context.Context, companyID *id.ID) ([]*Station, error)

	CreateTank(ctx context.Context, t *Tank) error
	UpdateTank(ctx context.Context, t *Tank) error
	GetTankByID(ctx context.Context, tankID id.ID) (*Tank, error)
	ListTanks(ctx context.Context, stationID id.ID) ([]*Tank, error)

	// ResolveLocation identifies an arbitrary location ID as a station or
	// tank. Returns apperror.NewNotFound when neither exists.
	ResolveLocation(ctx context.Context, locationID id.ID) (Location, error)
}
