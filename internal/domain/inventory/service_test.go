package inventory

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
)

func timeInMonth(month int) time.Time {
	return time.Date(2026, time.Month(month), 15, 10, 0, 0, 0, time.UTC)
}

// --- mocks ---

type mockRepo struct {
	counts    map[id.ID]*InventoryCount
	variances map[id.ID]*VarianceRecord // keyed by inventory id
	inserted  int

	// hideVarianceOnce makes the next GetVarianceByInventory miss,
	// simulating a concurrent classify winning between the service's
	// pre-check and its insert.
	hideVarianceOnce bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		counts:    make(map[id.ID]*InventoryCount),
		variances: make(map[id.ID]*VarianceRecord),
	}
}

func (m *mockRepo) CreateCount(_ context.Context, count *InventoryCount) error {
	m.counts[count.ID] = count
	return nil
}

func (m *mockRepo) GetCountByID(_ context.Context, countID id.ID) (*InventoryCount, error) {
	count, ok := m.counts[countID]
	if !ok {
		return nil, apperror.NewNotFound("inventory_count", countID)
	}
	return count, nil
}

func (m *mockRepo) UpdateCount(_ context.Context, count *InventoryCount) error {
	m.counts[count.ID] = count
	return nil
}

func (m *mockRepo) ListCounts(context.Context, CountFilter) ([]InventoryCount, error) {
	return nil, nil
}

func (m *mockRepo) InsertVariance(_ context.Context, record *VarianceRecord) error {
	if _, exists := m.variances[record.InventoryID]; exists {
		return apperror.NewConflict("variance record already exists for count")
	}
	m.variances[record.InventoryID] = record
	m.inserted++
	return nil
}

func (m *mockRepo) GetVarianceByInventory(_ context.Context, inventoryID id.ID) (*VarianceRecord, error) {
	if m.hideVarianceOnce {
		m.hideVarianceOnce = false
		return nil, nil
	}
	return m.variances[inventoryID], nil
}

func (m *mockRepo) ListVariances(context.Context, VarianceFilter) ([]VarianceRecord, error) {
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

type mockProjector struct {
	quantity types.Quantity
	asOf     time.Time
}

func (m *mockProjector) TheoreticalQuantity(_ context.Context, _, _ id.ID, asOf time.Time) (types.Quantity, error) {
	m.asOf = asOf
	return m.quantity, nil
}

type mockPositionWriter struct {
	recorded *types.Quantity
}

func (m *mockPositionWriter) RecordRealQuantity(_ context.Context, _, _ id.ID, qty types.Quantity) error {
	m.recorded = &qty
	return nil
}

// noopTxManager runs the function directly, without a database.
type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc       *Service
	repo      *mockRepo
	projector *mockProjector
	positions *mockPositionWriter
}

func newFixture(p *product.Product, locKind station.LocationKind, theoretical types.Quantity) *fixture {
	repo := newMockRepo()
	projector := &mockProjector{quantity: theoretical}
	positions := &mockPositionWriter{}
	svc := NewService(
		repo,
		&mockProducts{product: p},
		&mockLocations{kind: locKind},
		projector,
		positions,
		noopTxManager{},
		&numerator.MockGenerator{},
		Defaults{
			BoutiqueTolerance: types.NewQuantityFromInt(2),
			FuelTolerance:     types.NewQuantityFromInt(10),
		},
	)
	return &fixture{svc: svc, repo: repo, projector: projector, positions: positions}
}

func fuelProduct() *product.Product {
	return product.NewProduct("GAZ95", "Sans Plomb 95", product.KindFuel)
}

func boutiqueProduct() *product.Product {
	return product.NewProduct("SNK001", "Chips 45g", product.KindBoutique)
}

func submitCount(t *testing.T, f *fixture, declared types.Quantity) *InventoryCount {
	t.Helper()
	count, err := f.svc.SubmitCount(context.Background(), SubmitInput{
		StationID:        id.New(),
		ProductID:        id.New(),
		LocationID:       id.New(),
		DeclaredQuantity: declared,
		CountedAt:        time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC),
		ActorID:          "actor-1",
	})
	require.NoError(t, err)
	return count
}

func advance(t *testing.T, f *fixture, countID id.ID, statuses ...CountStatus) {
	t.Helper()
	for _, s := range statuses {
		_, err := f.svc.Transition(context.Background(), countID, s)
		require.NoError(t, err)
	}
}

// --- tests ---

func TestSubmitCount_AssignsNumberAndDraftStatus(t *testing.T) {
	f := newFixture(fuelProduct(), station.LocationTank, 0)

	count := submitCount(t, f, types.NewQuantityFromInt(500))
	assert.Equal(t, StatusDraft, count.Status)
	assert.NotEmpty(t, count.Number)
	assert.Equal(t, MethodManualCount, count.MeasurementMethod)
}

func TestSubmitCount_FuelMustTargetTank(t *testing.T) {
	f := newFixture(fuelProduct(), station.LocationStation, 0)

	_, err := f.svc.SubmitCount(context.Background(), SubmitInput{
		StationID:        id.New(),
		ProductID:        id.New(),
		LocationID:       id.New(),
		DeclaredQuantity: types.NewQuantityFromInt(500),
		CountedAt:        time.Now(),
		ActorID:          "actor-1",
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestTransition_RejectsSkippedStates(t *testing.T) {
	f := newFixture(boutiqueProduct(), station.LocationStation, 0)
	count := submitCount(t, f, types.NewQuantityFromInt(10))

	_, err := f.svc.Transition(context.Background(), count.ID, StatusValidated)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestTransition_ClosedIsTerminal(t *testing.T) {
	f := newFixture(boutiqueProduct(), station.LocationStation, 0)
	count := submitCount(t, f, types.NewQuantityFromInt(10))
	advance(t, f, count.ID, StatusInProgress, StatusCompleted, StatusValidated, StatusReconciled, StatusClosed)

	_, err := f.svc.Transition(context.Background(), count.ID, StatusReconciled)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInventoryClosed, appErr.Code)
}

func TestClassify_WithinToleranceProducesNoRecord(t *testing.T) {
	// Scenario: theoretical 1000L, declared 992L, fuel tolerance 10L.
	f := newFixture(fuelProduct(), station.LocationTank, types.NewQuantityFromInt(1000))
	count := submitCount(t, f, types.NewQuantityFromInt(992))
	advance(t, f, count.ID, StatusInProgress, StatusCompleted)

	record, err := f.svc.Classify(context.Background(), count.ID)
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.Equal(t, 0, f.repo.inserted)

	// The physical count is still recorded on the position.
	require.NotNil(t, f.positions.recorded)
	assert.Equal(t, types.NewQuantityFromInt(992), *f.positions.recorded)
}

func TestClassify_FuelShortageIsLoss(t *testing.T) {
	// Scenario: theoretical 1000L, declared 970L, fuel tolerance 10L.
	f := newFixture(fuelProduct(), station.LocationTank, types.NewQuantityFromInt(1000))
	count := submitCount(t, f, types.NewQuantityFromInt(970))
	advance(t, f, count.ID, StatusInProgress, StatusCompleted)

	record, err := f.svc.Classify(context.Background(), count.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, ClassLoss, record.Classification)
	assert.Equal(t, types.NewQuantityFromInt(-30), record.Variance)
	assert.Equal(t, types.NewQuantityFromInt(10), record.AlertThreshold)
	assert.Equal(t, SeasonSummer, record.SeasonalContext)
}

func TestClassify_BoutiqueSurplus(t *testing.T) {
	f := newFixture(boutiqueProduct(), station.LocationStation, types.NewQuantityFromInt(100))
	count := submitCount(t, f, types.NewQuantityFromInt(110))
	advance(t, f, count.ID, StatusInProgress, StatusCompleted)

	record, err := f.svc.Classify(context.Background(), count.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, ClassSurplus, record.Classification)
	assert.Equal(t, types.NewQuantityFromInt(10), record.Variance)
}

func TestClassify_ProjectsAsOfCountInstant(t *testing.T) {
	f := newFixture(fuelProduct(), station.LocationTank, types.NewQuantityFromInt(1000))
	count := submitCount(t, f, types.NewQuantityFromInt(970))
	advance(t, f, count.ID, StatusInProgress, StatusCompleted)

	_, err := f.svc.Classify(context.Background(), count.ID)
	require.NoError(t, err)
	assert.Equal(t, count.CountedAt, f.projector.asOf)
}

func TestClassify_RerunReturnsExistingRecord(t *testing.T) {
	f := newFixture(fuelProduct(), station.LocationTank, types.NewQuantityFromInt(1000))
	count := submitCount(t, f, types.NewQuantityFromInt(970))
	advance(t, f, count.ID, StatusInProgress, StatusCompleted)

	first, err := f.svc.Classify(context.Background(), count.ID)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := f.svc.Classify(context.Background(), count.ID)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.repo.inserted)
}

func TestClassify_LostInsertRaceReturnsExistingRecord(t *testing.T) {
	f := newFixture(fuelProduct(), station.LocationTank, types.NewQuantityFromInt(1000))
	count := submitCount(t, f, types.NewQuantityFromInt(970))
	advance(t, f, count.ID, StatusInProgress, StatusCompleted)

	first, err := f.svc.Classify(context.Background(), count.ID)
	require.NoError(t, err)
	require.NotNil(t, first)

	// The pre-check misses the record but the insert still conflicts;
	// the caller must get the winner's record, not an error.
	f.repo.hideVarianceOnce = true
	second, err := f.svc.Classify(context.Background(), count.ID)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.repo.inserted)
}

func TestClassify_RecountProducesIndependentRecord(t *testing.T) {
	f := newFixture(fuelProduct(), station.LocationTank, types.NewQuantityFromInt(1000))

	first := submitCount(t, f, types.NewQuantityFromInt(970))
	advance(t, f, first.ID, StatusInProgress, StatusCompleted)
	firstRecord, err := f.svc.Classify(context.Background(), first.ID)
	require.NoError(t, err)
	require.NotNil(t, firstRecord)

	second := submitCount(t, f, types.NewQuantityFromInt(960))
	advance(t, f, second.ID, StatusInProgress, StatusCompleted)
	secondRecord, err := f.svc.Classify(context.Background(), second.ID)
	require.NoError(t, err)
	require.NotNil(t, secondRecord)

	assert.NotEqual(t, firstRecord.ID, secondRecord.ID)
	assert.Equal(t, 2, f.repo.inserted)
}

func TestClassify_RequiresCompletedOrValidated(t *testing.T) {
	f := newFixture(fuelProduct(), station.LocationTank, types.NewQuantityFromInt(1000))
	count := submitCount(t, f, types.NewQuantityFromInt(970))

	_, err := f.svc.Classify(context.Background(), count.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestClassify_CountOverrideBeatsDefaults(t *testing.T) {
	f := newFixture(fuelProduct(), station.LocationTank, types.NewQuantityFromInt(1000))

	override := types.NewQuantityFromInt(50)
	count, err := f.svc.SubmitCount(context.Background(), SubmitInput{
		StationID:          id.New(),
		ProductID:          id.New(),
		LocationID:         id.New(),
		DeclaredQuantity:   types.NewQuantityFromInt(970),
		CountedAt:          time.Now().UTC(),
		ActorID:            "actor-1",
		ToleranceThreshold: &override,
	})
	require.NoError(t, err)
	advance(t, f, count.ID, StatusInProgress, StatusCompleted)

	// Variance of 30 stays within the per-count override of 50.
	record, err := f.svc.Classify(context.Background(), count.ID)
	require.NoError(t, err)
	assert.Nil(t, record)
}
