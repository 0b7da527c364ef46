package valuation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/ledger"
)

var baseTime = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func receipt(kind ledger.MovementKind, qty int64, cost string, offset time.Duration) ledger.StockMovement {
	unitCost := types.MustMoney(cost)
	return ledger.StockMovement{
		ID:         id.New(),
		Kind:       kind,
		Direction:  ledger.DirectionReceipt,
		Quantity:   types.NewQuantityFromInt(qty),
		UnitCost:   &unitCost,
		OccurredAt: baseTime.Add(offset),
		Status:     ledger.StatusValidated,
	}
}

func expense(kind ledger.MovementKind, qty int64, offset time.Duration) ledger.StockMovement {
	return ledger.StockMovement{
		ID:         id.New(),
		Kind:       kind,
		Direction:  ledger.DirectionExpense,
		Quantity:   types.NewQuantityFromInt(qty),
		OccurredAt: baseTime.Add(offset),
		Status:     ledger.StatusValidated,
	}
}

func TestComputePool_WeightedAverage(t *testing.T) {
	movements := []ledger.StockMovement{
		receipt(ledger.KindEntry, 100, "10", 0),
		receipt(ledger.KindEntry, 50, "16", time.Hour),
	}

	qty, cost, err := ComputePool(movements)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(150), qty)
	assert.True(t, cost.Equal(types.MustMoney("12")), "want 12, got %s", cost)
}

func TestComputePool_DepletionKeepsUnitCost(t *testing.T) {
	movements := []ledger.StockMovement{
		receipt(ledger.KindEntry, 100, "10", 0),
		receipt(ledger.KindEntry, 50, "16", time.Hour),
		expense(ledger.KindExit, 30, 2*time.Hour),
	}

	qty, cost, err := ComputePool(movements)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(120), qty)
	// Depletions relieve value at the running average, so the unit cost
	// is unchanged by the exit.
	assert.True(t, cost.Equal(types.MustMoney("12")), "want 12, got %s", cost)
}

func TestComputePool_ZeroCrossingRepricesCleanly(t *testing.T) {
	movements := []ledger.StockMovement{
		receipt(ledger.KindEntry, 10, "10", 0),
		expense(ledger.KindExit, 10, time.Hour),
		receipt(ledger.KindEntry, 5, "20", 2*time.Hour),
	}

	qty, cost, err := ComputePool(movements)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(5), qty)
	// The pool emptied before the second entry, so no residual value
	// bleeds into the new price.
	assert.True(t, cost.Equal(types.MustMoney("20")), "want 20, got %s", cost)
}

func TestComputePool_DepletionBeforeAnyEntry(t *testing.T) {
	movements := []ledger.StockMovement{
		expense(ledger.KindExit, 5, 0),
	}

	_, _, err := ComputePool(movements)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientHistory(err))
}

func TestComputePool_ReceiptAdjustmentReprices(t *testing.T) {
	movements := []ledger.StockMovement{
		receipt(ledger.KindInitial, 100, "10", 0),
		receipt(ledger.KindAdjustment, 100, "14", time.Hour),
	}

	qty, cost, err := ComputePool(movements)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(200), qty)
	assert.True(t, cost.Equal(types.MustMoney("12")), "want 12, got %s", cost)
}

func TestComputePool_ExpenseAdjustmentDepletes(t *testing.T) {
	movements := []ledger.StockMovement{
		receipt(ledger.KindEntry, 100, "10", 0),
		expense(ledger.KindAdjustment, 40, time.Hour),
	}

	qty, cost, err := ComputePool(movements)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(60), qty)
	assert.True(t, cost.Equal(types.MustMoney("10")))
}

func TestComputePool_CancelledLinesExcluded(t *testing.T) {
	cancelled := receipt(ledger.KindEntry, 50, "16", time.Hour)
	cancelled.Status = ledger.StatusCancelled

	marker := expense(ledger.KindCancellation, 50, 2*time.Hour)

	movements := []ledger.StockMovement{
		receipt(ledger.KindEntry, 100, "10", 0),
		cancelled,
		marker,
	}

	qty, cost, err := ComputePool(movements)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(100), qty)
	assert.True(t, cost.Equal(types.MustMoney("10")))
}

func TestComputePool_Empty(t *testing.T) {
	qty, cost, err := ComputePool(nil)
	require.NoError(t, err)
	assert.True(t, qty.IsZero())
	assert.True(t, cost.IsZero())
}

// --- Service tests ---

type mockPositions struct {
	positions map[string]*StockPosition
	upserts   int
	locked    int
}

func newMockPositions() *mockPositions {
	return &mockPositions{positions: make(map[string]*StockPosition)}
}

func posKey(productID, locationID id.ID) string {
	return productID.String() + "/" + locationID.String()
}

func (m *mockPositions) GetPosition(_ context.Context, productID, locationID id.ID) (*StockPosition, error) {
	return m.positions[posKey(productID, locationID)], nil
}

func (m *mockPositions) GetPositionForUpdate(_ context.Context, productID, locationID id.ID) (*StockPosition, error) {
	m.locked++
	pos, ok := m.positions[posKey(productID, locationID)]
	if !ok {
		pos = &StockPosition{ProductID: productID, LocationID: locationID}
		m.positions[posKey(productID, locationID)] = pos
	}
	return pos, nil
}

func (m *mockPositions) UpsertPosition(_ context.Context, pos *StockPosition) error {
	m.upserts++
	key := posKey(pos.ProductID, pos.LocationID)
	if existing, ok := m.positions[key]; ok && pos.RealQuantity == nil {
		pos.RealQuantity = existing.RealQuantity
	}
	m.positions[key] = pos
	return nil
}

func (m *mockPositions) SetRealQuantity(_ context.Context, productID, locationID id.ID, qty types.Quantity) error {
	key := posKey(productID, locationID)
	pos, ok := m.positions[key]
	if !ok {
		pos = &StockPosition{ProductID: productID, LocationID: locationID}
		m.positions[key] = pos
	}
	pos.RealQuantity = &qty
	return nil
}

type mockMovements struct {
	byKey map[string][]ledger.StockMovement
}

func (m *mockMovements) ListByKey(_ context.Context, productID, locationID id.ID) ([]ledger.StockMovement, error) {
	return m.byKey[posKey(productID, locationID)], nil
}

func (m *mockMovements) Insert(context.Context, *ledger.StockMovement) error      { return nil }
func (m *mockMovements) InsertMany(context.Context, []ledger.StockMovement) error { return nil }
func (m *mockMovements) GetByID(context.Context, id.ID) (*ledger.StockMovement, error) {
	return nil, nil
}
func (m *mockMovements) ListByOrigin(context.Context, string, string) ([]ledger.StockMovement, error) {
	return nil, nil
}
func (m *mockMovements) SignedSumAsOf(context.Context, id.ID, id.ID, time.Time) (types.Quantity, error) {
	return 0, nil
}
func (m *mockMovements) HasValueEntry(context.Context, id.ID, id.ID) (bool, error) {
	return false, nil
}
func (m *mockMovements) MarkCancelled(context.Context, id.ID) error { return nil }
func (m *mockMovements) History(context.Context, ledger.HistoryFilter) ([]ledger.StockMovement, error) {
	return nil, nil
}

func TestRecompute_WritesFoldedPosition(t *testing.T) {
	productID, locationID := id.New(), id.New()
	movements := &mockMovements{byKey: map[string][]ledger.StockMovement{
		posKey(productID, locationID): {
			receipt(ledger.KindEntry, 100, "10", 0),
			expense(ledger.KindExit, 40, time.Hour),
		},
	}}
	positions := newMockPositions()
	svc := NewService(movements, positions)

	err := svc.Recompute(context.Background(), productID, locationID)
	require.NoError(t, err)
	require.Equal(t, 1, positions.locked)
	require.Equal(t, 1, positions.upserts)

	pos := positions.positions[posKey(productID, locationID)]
	require.NotNil(t, pos)
	assert.Equal(t, types.NewQuantityFromInt(60), pos.TheoreticalQuantity)
	assert.True(t, pos.WeightedAverageCost.Equal(types.MustMoney("10")))
}

func TestRecompute_PreservesRealQuantity(t *testing.T) {
	productID, locationID := id.New(), id.New()
	movements := &mockMovements{byKey: map[string][]ledger.StockMovement{
		posKey(productID, locationID): {receipt(ledger.KindEntry, 100, "10", 0)},
	}}
	positions := newMockPositions()
	svc := NewService(movements, positions)

	counted := types.NewQuantityFromInt(97)
	require.NoError(t, svc.RecordRealQuantity(context.Background(), productID, locationID, counted))
	require.NoError(t, svc.Recompute(context.Background(), productID, locationID))

	pos := positions.positions[posKey(productID, locationID)]
	require.NotNil(t, pos.RealQuantity)
	assert.Equal(t, counted, *pos.RealQuantity)
}

func TestWeightedAverageCost_FallsBackToHistory(t *testing.T) {
	productID, locationID := id.New(), id.New()
	movements := &mockMovements{byKey: map[string][]ledger.StockMovement{
		posKey(productID, locationID): {
			receipt(ledger.KindEntry, 100, "10", 0),
			receipt(ledger.KindEntry, 50, "16", time.Hour),
		},
	}}
	svc := NewService(movements, newMockPositions())

	cost, err := svc.WeightedAverageCost(context.Background(), productID, locationID)
	require.NoError(t, err)
	assert.True(t, cost.Equal(types.MustMoney("12")), "want 12, got %s", cost)
}

func TestGetPosition_ZeroValuedWhenNoHistory(t *testing.T) {
	svc := NewService(&mockMovements{}, newMockPositions())

	pos, err := svc.GetPosition(context.Background(), id.New(), id.New())
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.True(t, pos.TheoreticalQuantity.IsZero())
	assert.True(t, pos.WeightedAverageCost.IsZero())
	assert.Nil(t, pos.RealQuantity)
}
