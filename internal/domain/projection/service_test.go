package projection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/ledger"
)

var baseTime = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func movement(kind ledger.MovementKind, dir ledger.Direction, qty int64, offset time.Duration) ledger.StockMovement {
	return ledger.StockMovement{
		ID:         id.New(),
		Kind:       kind,
		Direction:  dir,
		Quantity:   types.NewQuantityFromInt(qty),
		OccurredAt: baseTime.Add(offset),
		Status:     ledger.StatusValidated,
	}
}

func TestFoldQuantity_SignedSum(t *testing.T) {
	movements := []ledger.StockMovement{
		movement(ledger.KindInitial, ledger.DirectionReceipt, 500, 0),
		movement(ledger.KindEntry, ledger.DirectionReceipt, 200, time.Hour),
		movement(ledger.KindExit, ledger.DirectionExpense, 150, 2*time.Hour),
	}

	got := FoldQuantity(movements, baseTime.Add(24*time.Hour))
	assert.Equal(t, types.NewQuantityFromInt(550), got)
}

func TestFoldQuantity_AsOfCutoff(t *testing.T) {
	movements := []ledger.StockMovement{
		movement(ledger.KindInitial, ledger.DirectionReceipt, 500, 0),
		movement(ledger.KindExit, ledger.DirectionExpense, 100, time.Hour),
		movement(ledger.KindEntry, ledger.DirectionReceipt, 300, 3*time.Hour),
	}

	// Projected between the exit and the late entry. The boundary is
	// inclusive: a movement occurring exactly at asOf counts.
	got := FoldQuantity(movements, baseTime.Add(time.Hour))
	assert.Equal(t, types.NewQuantityFromInt(400), got)

	got = FoldQuantity(movements, baseTime.Add(3*time.Hour))
	assert.Equal(t, types.NewQuantityFromInt(700), got)
}

func TestFoldQuantity_ExcludesCancelledAndMarkers(t *testing.T) {
	cancelled := movement(ledger.KindEntry, ledger.DirectionReceipt, 200, time.Hour)
	cancelled.Status = ledger.StatusCancelled

	marker := movement(ledger.KindCancellation, ledger.DirectionExpense, 200, 2*time.Hour)

	movements := []ledger.StockMovement{
		movement(ledger.KindInitial, ledger.DirectionReceipt, 500, 0),
		cancelled,
		marker,
	}

	got := FoldQuantity(movements, baseTime.Add(24*time.Hour))
	assert.Equal(t, types.NewQuantityFromInt(500), got)
}

func TestFoldQuantity_NoHistoryIsZero(t *testing.T) {
	assert.True(t, FoldQuantity(nil, baseTime).IsZero())
}

func TestFoldQuantity_CanGoNegative(t *testing.T) {
	movements := []ledger.StockMovement{
		movement(ledger.KindInitial, ledger.DirectionReceipt, 100, 0),
		movement(ledger.KindExit, ledger.DirectionExpense, 130, time.Hour),
	}

	got := FoldQuantity(movements, baseTime.Add(2*time.Hour))
	assert.Equal(t, types.NewQuantityFromInt(-30), got)
}

// listRepo serves ComputeTurnover, which only reads ListByKey.
type listRepo struct {
	ledger.Repository
	movements []ledger.StockMovement
}

func (r *listRepo) ListByKey(ctx context.Context, productID, locationID id.ID) ([]ledger.StockMovement, error) {
	return r.movements, nil
}

func TestComputeTurnover(t *testing.T) {
	cancelled := movement(ledger.KindEntry, ledger.DirectionReceipt, 999, 2*time.Hour)
	cancelled.Status = ledger.StatusCancelled

	svc := NewService(&listRepo{movements: []ledger.StockMovement{
		movement(ledger.KindInitial, ledger.DirectionReceipt, 500, -48*time.Hour),
		movement(ledger.KindEntry, ledger.DirectionReceipt, 200, time.Hour),
		movement(ledger.KindExit, ledger.DirectionExpense, 150, 2*time.Hour),
		cancelled,
		movement(ledger.KindEntry, ledger.DirectionReceipt, 50, 72*time.Hour),
	}})

	got, err := svc.ComputeTurnover(context.Background(), id.New(), id.New(),
		baseTime, baseTime.Add(24*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(200), got.Receipts)
	assert.Equal(t, types.NewQuantityFromInt(150), got.Expenses)
	assert.Equal(t, types.NewQuantityFromInt(50), got.Net)
	assert.Equal(t, 2, got.Lines)
}
