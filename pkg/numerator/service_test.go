package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "github.com/midasconsultingnet/successfuel-api-sub001/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences UPSERT: every call bumps the
// stored value by the increment argument (1 for strict calls).
type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	calls        int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	m.calls++
	return &mockRow{val: m.currentValue}
}

var testPeriod = time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("INV")

	num, err := svc.GetNextNumber(ctx, cfg, nil, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "INV-2026-00001" {
		t.Errorf("expected INV-2026-00001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "INV-2026-00002" {
		t.Errorf("expected INV-2026-00002, got %s", num)
	}
	if q.calls != 2 {
		t.Errorf("strict strategy must hit the DB every call, got %d calls", q.calls)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("PRD")
	opts := &corenumerator.Options{
		Strategy:  corenumerator.StrategyCached,
		RangeSize: 10,
	}

	// First call reserves the range (0, 10] with one DB round trip.
	num, err := svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PRD-2026-00001" {
		t.Errorf("expected PRD-2026-00001, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected DB value 10 after first reservation, got %d", q.currentValue)
	}

	// Second call is served from memory.
	num, err = svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PRD-2026-00002" {
		t.Errorf("expected PRD-2026-00002, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("DB must not change for cached calls, got %d", q.currentValue)
	}

	// Exhaust the rest of the range, then cross into a fresh reservation.
	for i := 0; i < 8; i++ {
		if _, err := svc.GetNextNumber(ctx, cfg, opts, testPeriod); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	num, err = svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PRD-2026-00011" {
		t.Errorf("expected PRD-2026-00011 after range refill, got %s", num)
	}
	if q.currentValue != 20 {
		t.Errorf("expected DB value 20 after refill, got %d", q.currentValue)
	}
}

func TestGetNextNumber_QueryError(t *testing.T) {
	q := &errQuerier{}
	svc := New(q)

	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("X"), nil, testPeriod)
	if err == nil {
		t.Fatal("expected error from querier")
	}
}

type errQuerier struct{}

func (e *errQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &mockRow{err: context.DeadlineExceeded}
}

func TestBuildKey(t *testing.T) {
	cases := []struct {
		reset string
		want  string
	}{
		{"year", "DLV_2026"},
		{"month", "DLV_2026_07"},
		{"never", "DLV"},
	}
	for _, tc := range cases {
		cfg := corenumerator.Config{Prefix: "DLV", ResetPeriod: tc.reset}
		if got := buildKey(cfg, testPeriod); got != tc.want {
			t.Errorf("buildKey(%s): expected %s, got %s", tc.reset, tc.want, got)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	withYear := corenumerator.DefaultConfig("INV")
	if got := formatNumber(withYear, testPeriod, 42); got != "INV-2026-00042" {
		t.Errorf("expected INV-2026-00042, got %s", got)
	}

	noYear := corenumerator.Config{Prefix: "TNK", PadWidth: 3}
	if got := formatNumber(noYear, testPeriod, 7); got != "TNK-007" {
		t.Errorf("expected TNK-007, got %s", got)
	}
}

func TestParseNumber(t *testing.T) {
	if got := ParseNumber("INV-2026-00042"); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if got := ParseNumber("TNK-007"); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	if got := ParseNumber("garbage"); got != -1 {
		t.Errorf("expected -1 for unparseable input, got %d", got)
	}
	if got := ParseNumber("INV-2026-"); got != -1 {
		t.Errorf("expected -1 for empty counter segment, got %d", got)
	}
	if got := ParseNumber("INV-2026-12abc"); got != -1 {
		t.Errorf("expected -1 for non-numeric counter, got %d", got)
	}
}

func TestParseNumberRoundTrip(t *testing.T) {
	cfg := corenumerator.DefaultConfig("DLV")
	formatted := formatNumber(cfg, testPeriod, 137)
	if got := ParseNumber(formatted); got != 137 {
		t.Errorf("expected 137 back from %s, got %d", formatted, got)
	}
}
