package valuation

import (
	"context"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
)

// PositionRepository persists cached stock positions.
type PositionRepository interface {
	// GetPosition returns the cached position, or (nil, nil) when no
	// position has been computed for the pair yet.
	GetPosition(ctx context.Context, productID, locationID id.ID) (*StockPosition, error)

	// GetPositionForUpdate returns the position with a row lock, creating
	// the row when missing. Serializes recomputes at the storage layer.
	GetPositionForUpdate(ctx context.Context, productID, locationID id.ID) (*StockPosition, error)

	// UpsertPosition writes the recomputed position.
	UpsertPosition(ctx context.Context, pos *StockPosition) error

	// SetRealQuantity records the declared quantity of the last physical
	// count on the position.
	SetRealQuantity(ctx context.Context, productID, locationID id.ID, qty types.Quantity) error
}
