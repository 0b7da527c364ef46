package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/catalogs/product"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/catalogs/station"
)

// --- mocks ---

type mockRepo struct {
	movements map[id.ID]*StockMovement
	order     []id.ID
	seq       int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{movements: make(map[id.ID]*StockMovement)}
}

func (m *mockRepo) Insert(_ context.Context, mv *StockMovement) error {
	m.seq++
	mv.Seq = m.seq
	clone := *mv
	m.movements[mv.ID] = &clone
	m.order = append(m.order, mv.ID)
	return nil
}

func (m *mockRepo) InsertMany(ctx context.Context, movements []StockMovement) error {
	for i := range movements {
		if err := m.Insert(ctx, &movements[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, movementID id.ID) (*StockMovement, error) {
	mv, ok := m.movements[movementID]
	if !ok {
		return nil, apperror.NewNotFound("stock_movement", movementID)
	}
	clone := *mv
	return &clone, nil
}

func (m *mockRepo) ListByKey(_ context.Context, productID, locationID id.ID) ([]StockMovement, error) {
	var out []StockMovement
	for _, mvID := range m.order {
		mv := m.movements[mvID]
		if mv.ProductID == productID && mv.LocationID == locationID {
			out = append(out, *mv)
		}
	}
	return out, nil
}

func (m *mockRepo) ListByOrigin(_ context.Context, originModule, originReference string) ([]StockMovement, error) {
	var out []StockMovement
	for _, mvID := range m.order {
		mv := m.movements[mvID]
		if mv.OriginModule == originModule && mv.OriginReference == originReference {
			out = append(out, *mv)
		}
	}
	return out, nil
}

func (m *mockRepo) SignedSumAsOf(_ context.Context, productID, locationID id.ID, asOf time.Time) (types.Quantity, error) {
	var total types.Quantity
	for _, mv := range m.movements {
		if mv.ProductID != productID || mv.LocationID != locationID {
			continue
		}
		if !mv.CountsInFold() || mv.OccurredAt.After(asOf) {
			continue
		}
		total += mv.SignedQuantity()
	}
	return total, nil
}

func (m *mockRepo) HasValueEntry(_ context.Context, productID, locationID id.ID) (bool, error) {
	for _, mv := range m.movements {
		if mv.ProductID == productID && mv.LocationID == locationID &&
			mv.Status == StatusValidated && mv.ValueBearing() {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) MarkCancelled(_ context.Context, movementID id.ID) error {
	mv, ok := m.movements[movementID]
	if !ok || mv.Status != StatusValidated {
		return apperror.NewConflict("movement is not in validated status")
	}
	mv.Status = StatusCancelled
	return nil
}

func (m *mockRepo) History(context.Context, HistoryFilter) ([]StockMovement, error) {
	return nil, nil
}

type mockProducts struct {
	product *product.Product
}

func (m *mockProducts) RequireStockTracked(context.Context, id.ID) (*product.Product, error) {
	return m.product, nil
}

type mockLocations struct {
	kind station.LocationKind
}

func (m *mockLocations) ResolveLocation(_ context.Context, locationID id.ID) (station.Location, error) {
	return station.Location{ID: locationID, Kind: m.kind}, nil
}

type mockRecomputer struct {
	calls int
}

func (m *mockRecomputer) Recompute(context.Context, id.ID, id.ID) error {
	m.calls++
	return nil
}

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc        *Service
	repo       *mockRepo
	recomputer *mockRecomputer
}

func newFixture(p *product.Product, locKind station.LocationKind) *fixture {
	repo := newMockRepo()
	recomputer := &mockRecomputer{}
	svc := NewService(
		repo,
		&mockProducts{product: p},
		&mockLocations{kind: locKind},
		recomputer,
		noopTxManager{},
		3,
	)
	return &fixture{svc: svc, repo: repo, recomputer: recomputer}
}

func boutiqueFixture() *fixture {
	return newFixture(product.NewProduct("SNK001", "Chips 45g", product.KindBoutique), station.LocationStation)
}

func entryInput(productID, locationID id.ID, qty int64, cost string) AppendInput {
	unitCost := types.MustMoney(cost)
	return AppendInput{
		ProductID:    productID,
		LocationID:   locationID,
		Kind:         KindEntry,
		Quantity:     types.NewQuantityFromInt(qty),
		UnitCost:     &unitCost,
		OccurredAt:   time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		OriginModule: "achat",
		ActorID:      "actor-1",
	}
}

// --- tests ---

func TestAppend_RecordsMovementAndRecomputes(t *testing.T) {
	f := boutiqueFixture()
	productID, locationID := id.New(), id.New()

	movementID, err := f.svc.Append(context.Background(), entryInput(productID, locationID, 100, "10"))
	require.NoError(t, err)
	require.False(t, id.IsNil(movementID))

	mv, err := f.svc.GetByID(context.Background(), movementID)
	require.NoError(t, err)
	assert.Equal(t, StatusValidated, mv.Status)
	assert.Equal(t, DirectionReceipt, mv.Direction)
	assert.Equal(t, int64(1), mv.Seq)
	assert.Equal(t, 1, f.recomputer.calls)
}

func TestAppend_DirectionDerivedFromKind(t *testing.T) {
	f := boutiqueFixture()
	productID, locationID := id.New(), id.New()

	_, err := f.svc.Append(context.Background(), entryInput(productID, locationID, 100, "10"))
	require.NoError(t, err)

	// Exit with no explicit direction resolves to expense.
	movementID, err := f.svc.Append(context.Background(), AppendInput{
		ProductID:    productID,
		LocationID:   locationID,
		Kind:         KindExit,
		Quantity:     types.NewQuantityFromInt(10),
		OccurredAt:   time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC),
		OriginModule: "vente",
		ActorID:      "actor-1",
	})
	require.NoError(t, err)

	mv, err := f.svc.GetByID(context.Background(), movementID)
	require.NoError(t, err)
	assert.Equal(t, DirectionExpense, mv.Direction)
}

func TestAppend_ExitWithoutHistoryFails(t *testing.T) {
	f := boutiqueFixture()

	_, err := f.svc.Append(context.Background(), AppendInput{
		ProductID:    id.New(),
		LocationID:   id.New(),
		Kind:         KindExit,
		Quantity:     types.NewQuantityFromInt(5),
		OccurredAt:   time.Now().UTC(),
		OriginModule: "vente",
		ActorID:      "actor-1",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientHistory(err))
	assert.Equal(t, 0, f.recomputer.calls)
}

func TestAppend_RejectsNonPositiveQuantity(t *testing.T) {
	f := boutiqueFixture()
	in := entryInput(id.New(), id.New(), 100, "10")
	in.Quantity = 0

	_, err := f.svc.Append(context.Background(), in)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidQuantity, appErr.Code)
}

func TestAppend_FuelMustTargetTank(t *testing.T) {
	f := newFixture(product.NewProduct("GAZ95", "Sans Plomb 95", product.KindFuel), station.LocationStation)

	_, err := f.svc.Append(context.Background(), entryInput(id.New(), id.New(), 1000, "1.45"))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestAppend_RejectsUnitCostOnExit(t *testing.T) {
	f := boutiqueFixture()
	productID, locationID := id.New(), id.New()
	_, err := f.svc.Append(context.Background(), entryInput(productID, locationID, 100, "10"))
	require.NoError(t, err)

	unitCost := types.MustMoney("10")
	_, err = f.svc.Append(context.Background(), AppendInput{
		ProductID:    productID,
		LocationID:   locationID,
		Kind:         KindExit,
		Quantity:     types.NewQuantityFromInt(5),
		UnitCost:     &unitCost,
		OccurredAt:   time.Now().UTC(),
		OriginModule: "vente",
		ActorID:      "actor-1",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCancel_FlipsStatusAndAppendsMarker(t *testing.T) {
	f := boutiqueFixture()
	productID, locationID := id.New(), id.New()

	movementID, err := f.svc.Append(context.Background(), entryInput(productID, locationID, 100, "10"))
	require.NoError(t, err)

	markerID, err := f.svc.Cancel(context.Background(), movementID, "actor-2")
	require.NoError(t, err)

	original, err := f.svc.GetByID(context.Background(), movementID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, original.Status)

	marker, err := f.svc.GetByID(context.Background(), markerID)
	require.NoError(t, err)
	assert.Equal(t, KindCancellation, marker.Kind)
	assert.Equal(t, DirectionExpense, marker.Direction)
	assert.Equal(t, movementID.String(), marker.OriginReference)
	assert.Equal(t, "actor-2", marker.ActorID)

	// Append and cancel each trigger a recompute.
	assert.Equal(t, 2, f.recomputer.calls)
}

func TestCancel_AlreadyCancelledFails(t *testing.T) {
	f := boutiqueFixture()
	productID, locationID := id.New(), id.New()

	movementID, err := f.svc.Append(context.Background(), entryInput(productID, locationID, 100, "10"))
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), movementID, "actor-2")
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), movementID, "actor-2")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestCancel_MarkerCannotBeCancelled(t *testing.T) {
	f := boutiqueFixture()
	productID, locationID := id.New(), id.New()

	movementID, err := f.svc.Append(context.Background(), entryInput(productID, locationID, 100, "10"))
	require.NoError(t, err)
	markerID, err := f.svc.Cancel(context.Background(), movementID, "actor-2")
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), markerID, "actor-2")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestCancelledMovementExcludedFromFold(t *testing.T) {
	f := boutiqueFixture()
	productID, locationID := id.New(), id.New()

	first, err := f.svc.Append(context.Background(), entryInput(productID, locationID, 100, "10"))
	require.NoError(t, err)
	_, err = f.svc.Append(context.Background(), entryInput(productID, locationID, 50, "16"))
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), first, "actor-2")
	require.NoError(t, err)

	total, err := f.repo.SignedSumAsOf(context.Background(), productID, locationID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(50), total)
}

func TestImportOpeningBalances(t *testing.T) {
	f := boutiqueFixture()
	unitCost := types.MustMoney("4.5")

	inputs := []AppendInput{
		{
			ProductID:  id.New(),
			LocationID: id.New(),
			Quantity:   types.NewQuantityFromInt(200),
			UnitCost:   &unitCost,
			OccurredAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			ActorID:    "actor-1",
		},
		{
			ProductID:  id.New(),
			LocationID: id.New(),
			Quantity:   types.NewQuantityFromInt(80),
			UnitCost:   &unitCost,
			OccurredAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			ActorID:    "actor-1",
		},
	}

	imported, err := f.svc.ImportOpeningBalances(context.Background(), inputs)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Len(t, f.repo.movements, 2)
	// One recompute per touched (product, location) pair.
	assert.Equal(t, 2, f.recomputer.calls)

	for _, mv := range f.repo.movements {
		assert.Equal(t, KindInitial, mv.Kind)
		assert.Equal(t, "stock_initial", mv.OriginModule)
	}
}

func TestImportOpeningBalances_Empty(t *testing.T) {
	f := boutiqueFixture()
	imported, err := f.svc.ImportOpeningBalances(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, imported)
}
