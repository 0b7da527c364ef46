package delivery

import (
	"context"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
)

// Filter narrows delivery listings.
type Filter struct {
	StationID *id.ID
	TankID    *id.ID
	ProductID *id.ID
	Status    *Status
	FromDate  *time.Time
	ToDate    *time.Time

	Limit  int
	Offset int
}

// Repository persists deliveries and compensation records.
type Repository interface {
	CreateDelivery(ctx context.Context, delivery *FuelDelivery) error
	GetDeliveryByID(ctx context.Context, deliveryID id.ID) (*FuelDelivery, error)
	UpdateDelivery(ctx context.Context, delivery *FuelDelivery) error
	ListDeliveries(ctx context.Context, filter Filter) ([]FuelDelivery, error)

	// InsertCompensation appends a record. The store enforces a unique
	// constraint on delivery_id and surfaces DUPLICATE_COMPENSATION on
	// violation.
	InsertCompensation(ctx context.Context, record *CompensationRecord) error

	// GetCompensationByDelivery returns the record for a delivery, or
	// (nil, nil) when none exists.
	GetCompensationByDelivery(ctx context.Context, deliveryID id.ID) (*CompensationRecord, error)

	ListCompensations(ctx context.Context, limit, offset int) ([]CompensationRecord, error)
}
