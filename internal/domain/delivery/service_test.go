package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/numerator"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/catalogs/product"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/catalogs/station"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/ledger"
)

// --- mocks ---

type mockRepo struct {
	deliveries    map[id.ID]*FuelDelivery
	compensations map[id.ID]*CompensationRecord // keyed by delivery id
	inserted      int
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		deliveries:    make(map[id.ID]*FuelDelivery),
		compensations: make(map[id.ID]*CompensationRecord),
	}
}

func (m *mockRepo) CreateDelivery(_ context.Context, d *FuelDelivery) error {
	m.deliveries[d.ID] = d
	return nil
}

func (m *mockRepo) GetDeliveryByID(_ context.Context, deliveryID id.ID) (*FuelDelivery, error) {
	d, ok := m.deliveries[deliveryID]
	if !ok {
		return nil, apperror.NewNotFound("fuel_delivery", deliveryID)
	}
	return d, nil
}

func (m *mockRepo) UpdateDelivery(_ context.Context, d *FuelDelivery) error {
	m.deliveries[d.ID] = d
	return nil
}

func (m *mockRepo) ListDeliveries(context.Context, Filter) ([]FuelDelivery, error) {
	return nil, nil
}

func (m *mockRepo) InsertCompensation(_ context.Context, record *CompensationRecord) error {
	if _, exists := m.compensations[record.DeliveryID]; exists {
		return apperror.NewDuplicateCompensation(record.DeliveryID.String())
	}
	m.compensations[record.DeliveryID] = record
	m.inserted++
	return nil
}

func (m *mockRepo) GetCompensationByDelivery(_ context.Context, deliveryID id.ID) (*CompensationRecord, error) {
	return m.compensations[deliveryID], nil
}

func (m *mockRepo) ListCompensations(context.Context, int, int) ([]CompensationRecord, error) {
	return nil, nil
}

type mockMovements struct {
	appended []ledger.AppendInput
}

func (m *mockMovements) Append(_ context.Context, in ledger.AppendInput) (id.ID, error) {
	m.appended = append(m.appended, in)
	return id.New(), nil
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

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc       *Service
	repo      *mockRepo
	movements *mockMovements
}

func newFixture() *fixture {
	repo := newMockRepo()
	movements := &mockMovements{}
	svc := NewService(
		repo,
		movements,
		&mockProducts{product: product.NewProduct("GAZ95", "Sans Plomb 95", product.KindFuel)},
		&mockLocations{kind: station.LocationTank},
		noopTxManager{},
		&numerator.MockGenerator{},
		types.NewQuantityFromInt(20),
	)
	return &fixture{svc: svc, repo: repo, movements: movements}
}

func orderDelivery(t *testing.T, f *fixture, ordered int64, unitCost string) *FuelDelivery {
	t.Helper()
	d, err := f.svc.Order(context.Background(), OrderInput{
		StationID:       id.New(),
		TankID:          id.New(),
		ProductID:       id.New(),
		OrderedQuantity: types.NewQuantityFromInt(ordered),
		UnitCost:        types.MustMoney(unitCost),
		SupplierName:    "Total Energies",
		ActorID:         "actor-1",
	})
	require.NoError(t, err)
	return d
}

func receiveDelivery(t *testing.T, f *fixture, deliveryID id.ID, delivered int64) *FuelDelivery {
	t.Helper()
	d, err := f.svc.Receive(context.Background(), ReceiveInput{
		DeliveryID:        deliveryID,
		DeliveredQuantity: types.NewQuantityFromInt(delivered),
		DeliveredAt:       time.Date(2026, 5, 3, 7, 30, 0, 0, time.UTC),
		ActorID:           "actor-1",
	})
	require.NoError(t, err)
	return d
}

// --- tests ---

func TestOrder_CreatesPendingDelivery(t *testing.T) {
	f := newFixture()

	d := orderDelivery(t, f, 5000, "1.45")
	assert.Equal(t, StatusPending, d.Status)
	assert.NotEmpty(t, d.Number)
	assert.True(t, d.DeliveredQuantity.IsZero())
}

func TestOrder_RejectsNonFuelProduct(t *testing.T) {
	f := newFixture()
	f.svc.products = &mockProducts{product: product.NewProduct("SNK001", "Chips 45g", product.KindBoutique)}

	_, err := f.svc.Order(context.Background(), OrderInput{
		StationID:       id.New(),
		TankID:          id.New(),
		ProductID:       id.New(),
		OrderedQuantity: types.NewQuantityFromInt(5000),
		UnitCost:        types.MustMoney("1.45"),
		ActorID:         "actor-1",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidProductKind, appErr.Code)
}

func TestReceive_AppendsLedgerEntryAtOrderCost(t *testing.T) {
	f := newFixture()
	d := orderDelivery(t, f, 5000, "1.45")

	received := receiveDelivery(t, f, d.ID, 4950)
	assert.Equal(t, StatusReceived, received.Status)
	assert.Equal(t, types.NewQuantityFromInt(4950), received.DeliveredQuantity)

	require.Len(t, f.movements.appended, 1)
	entry := f.movements.appended[0]
	assert.Equal(t, ledger.KindEntry, entry.Kind)
	assert.Equal(t, types.NewQuantityFromInt(4950), entry.Quantity)
	require.NotNil(t, entry.UnitCost)
	assert.True(t, entry.UnitCost.Equal(types.MustMoney("1.45")))
	assert.Equal(t, OriginModule, entry.OriginModule)
	assert.Equal(t, d.ID.String(), entry.OriginReference)
}

func TestReceive_RejectsNonPending(t *testing.T) {
	f := newFixture()
	d := orderDelivery(t, f, 5000, "1.45")
	receiveDelivery(t, f, d.ID, 4950)

	_, err := f.svc.Receive(context.Background(), ReceiveInput{
		DeliveryID:        d.ID,
		DeliveredQuantity: types.NewQuantityFromInt(100),
		ActorID:           "actor-1",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestCheck_ShortDeliveryEmitsCreditOwed(t *testing.T) {
	// Scenario: ordered 5000L, delivered 4950L, tolerance 20L.
	f := newFixture()
	d := orderDelivery(t, f, 5000, "1.45")
	receiveDelivery(t, f, d.ID, 4950)

	record, err := f.svc.Check(context.Background(), d.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, CreditOwed, record.CompensationType)
	assert.Equal(t, types.NewQuantityFromInt(50), record.Difference)
	assert.True(t, record.CompensationAmount.Equal(types.MustMoney("72.5")),
		"want 72.5, got %s", record.CompensationAmount)

	reconciled, err := f.svc.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReconciled, reconciled.Status)
}

func TestCheck_OverDeliveryEmitsCreditDue(t *testing.T) {
	f := newFixture()
	d := orderDelivery(t, f, 5000, "1.45")
	receiveDelivery(t, f, d.ID, 5080)

	record, err := f.svc.Check(context.Background(), d.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, CreditDue, record.CompensationType)
	assert.Equal(t, types.NewQuantityFromInt(80), record.Difference)
}

func TestCheck_WithinToleranceReconcilesWithoutRecord(t *testing.T) {
	f := newFixture()
	d := orderDelivery(t, f, 5000, "1.45")
	receiveDelivery(t, f, d.ID, 4985)

	record, err := f.svc.Check(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.Equal(t, 0, f.repo.inserted)

	reconciled, err := f.svc.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReconciled, reconciled.Status)
}

func TestCheck_Idempotent(t *testing.T) {
	f := newFixture()
	d := orderDelivery(t, f, 5000, "1.45")
	receiveDelivery(t, f, d.ID, 4950)

	first, err := f.svc.Check(context.Background(), d.ID)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := f.svc.Check(context.Background(), d.ID)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.repo.inserted)
}

func TestCheck_RejectsPendingDelivery(t *testing.T) {
	f := newFixture()
	d := orderDelivery(t, f, 5000, "1.45")

	_, err := f.svc.Check(context.Background(), d.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}
