package numerator

import (
	"context"
	"time"
)

// Generator generates sequential codes and document numbers.
// This is the domain contract, implementations live in the
// infrastructure layer.
type Generator interface {
	// GetNextNumber generates the next number.
	// Pattern: PREFIX-YEAR-XXXXX (e.g. INV-2026-00001).
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber sets the next number value (for data imports).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
