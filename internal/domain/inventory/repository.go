package inventory

import (
	"context"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
)

// CountFilter narrows count listings.
type CountFilter struct {
	StationID  *id.ID
	ProductID  *id.ID
	LocationID *id.ID
	Status     *CountStatus
	FromDate   *time.Time
	ToDate     *time.Time

	Limit  int
	Offset int
}

// VarianceFilter narrows variance listings.
type VarianceFilter struct {
	ProductID      *id.ID
	LocationID     *id.ID
	Classification *Classification
	FromDate       *time.Time
	ToDate         *time.Time

	Limit  int
	Offset int
}

// Repository persists inventory counts and variance records.
type Repository interface {
	CreateCount(ctx context.Context, count *InventoryCount) error
	GetCountByID(ctx context.Context, countID id.ID) (*InventoryCount, error)
	UpdateCount(ctx context.Context, count *InventoryCount) error
	ListCounts(ctx context.Context, filter CountFilter) ([]InventoryCount, error)

	// InsertVariance appends a record; records are write-once.
	InsertVariance(ctx context.Context, record *VarianceRecord) error

	// GetVarianceByInventory returns the record for a count, or
	// (nil, nil) when the count produced none.
	GetVarianceByInventory(ctx context.Context, inventoryID id.ID) (*VarianceRecord, error)

	ListVariances(ctx context.Context, filter VarianceFilter) ([]VarianceRecord, error)
}
