package station

import (
	"context"
	"fmt"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/numerator"
	"github.com/midasconsultingnet/successfuel-api-sub001/pkg/logger"
)

// Service provides business logic for stations and tanks.
type Service struct {
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new station service.
func NewService(repo Repository, numerator numerator.Generator) *Service {
	return &Service{
		repo:      repo,
		numerator: numerator,
	}
}

// CreateStation creates a new station, generating a code when missing.
func (s *Service) CreateStation(ctx context.Context, st *Station) error {
	if err := st.Validate(ctx); err != nil {
		return err
	}

	if st.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("STN"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		st.Code = code
	}

	if err := s.repo.CreateStation(ctx, st); err != nil {
		return fmt.Errorf("create station: %w", err)
	}

	logger.Info(ctx, "station created", "id", st.ID, "code", st.Code)
	return nil
}

// CreateTank creates a new tank for a station.
func (s *Service) CreateTank(ctx context.Context, t *Tank) error {
	if err := t.Validate(ctx); err != nil {
		return err
	}

	// Station must exist
	if _, err := s.repo.GetStationByID(ctx, t.StationID); err != nil {
		return err
	}

	if t.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("TNK"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		t.Code = code
	}

	if err := s.repo.CreateTank(ctx, t); err != nil {
		return fmt.Errorf("create tank: %w", err)
	}

	logger.Info(ctx, "tank created", "id", t.ID, "station_id", t.StationID, "product_id", t.ProductID)
	return nil
}

// GetStationByID retrieves a station.
func (s *Service) GetStationByID(ctx context.Context, stationID id.ID) (*Station, error) {
	return s.repo.GetStationByID(ctx, stationID)
}

// GetTankByID retrieves a tank.
func (s *Service) GetTankByID(ctx context.Context, tankID id.ID) (*Tank, error) {
	return s.repo.GetTankByID(ctx, tankID)
}

// ListStations lists stations, optionally scoped to a company.
func (s *Service) ListStations(ctx context.Context, companyID *id.ID) ([]*Station, error) {
	return s.repo.ListStations(ctx, companyID)
}

// ListTanks lists a station's tanks.
func (s *Service) ListTanks(ctx context.Context, stationID id.ID) ([]*Tank, error) {
	return s.repo.ListTanks(ctx, stationID)
}

// ResolveLocation identifies a location ID as a station or tank.
func (s *Service) ResolveLocation(ctx context.Context, locationID id.ID) (Location, error) {
	return s.repo.ResolveLocation(ctx, locationID)
}
