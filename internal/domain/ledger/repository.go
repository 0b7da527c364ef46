package ledger

import (
	"context"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
)

// Repository defines persistence operations for the movement ledger.
// Insert is the only write primitive besides the cancellation status
// transition; there is no update or delete.
type Repository interface {
	// Insert appends a movement. The assigned Seq is written back.
	Insert(ctx context.Context, m *StockMovement) error

	// InsertMany appends movements in bulk (opening-balance imports).
	// Assigned Seq values are not written back; callers recompute
	// positions afterwards.
	InsertMany(ctx context.Context, movements []StockMovement) error

	// GetByID retrieves a single movement.
	GetByID(ctx context.Context, movementID id.ID) (*StockMovement, error)

	// ListByKey retrieves all movements for a (product, location) pair
	// ordered by occurred_at with insertion order breaking ties.
	// Includes cancelled lines; folds filter via CountsInFold.
	ListByKey(ctx context.Context, productID, locationID id.ID) ([]StockMovement, error)

	// ListByOrigin retrieves movements produced by a business event.
	ListByOrigin(ctx context.Context, originModule, originReference string) ([]StockMovement, error)

	// SignedSumAsOf folds signed quantities of validated, non-cancellation
	// movements with occurred_at <= asOf. Both the live view and
	// historical fuel-tank checks go through this single fold.
	SignedSumAsOf(ctx context.Context, productID, locationID id.ID, asOf time.Time) (types.Quantity, error)

	// HasValueEntry reports whether any validated value-bearing movement
	// exists for the pair. Used to reject depletions with no history.
	HasValueEntry(ctx context.Context, productID, locationID id.ID) (bool, error)

	// MarkCancelled flips a validated movement to cancelled. The only
	// permitted status transition; fails if the movement is already
	// cancelled.
	MarkCancelled(ctx context.Context, movementID id.ID) error

	// History retrieves movements with filtering for display.
	History(ctx context.Context, filter HistoryFilter) ([]StockMovement, error)
}

// HistoryFilter narrows movement history queries.
type HistoryFilter struct {
	ProductID  *id.ID
	LocationID *id.ID
	Kind       *MovementKind
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
