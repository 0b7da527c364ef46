// Package numerator provides domain contracts for catalog and document
// auto-numbering.
package numerator

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict uses UPSERT ... RETURNING for every number.
	// Guarantees sequential numbers without gaps. Suitable for
	// inventory counts and delivery documents.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Faster, but may leave gaps after a restart. Suitable for
	// catalog codes.
	StrategyCached
)

// Options configuration for number generation.
type Options struct {
	Strategy Strategy
	// RangeSize is the number of values to reserve at once in Cached
	// strategy. Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// Config holds numbering configuration for one sequence.
type Config struct {
	// Prefix added to all numbers (e.g. "INV", "DLV").
	Prefix string

	// IncludeYear adds the year to the formatted number.
	IncludeYear bool

	// PadWidth is the minimum number width (default 5).
	PadWidth int

	// ResetPeriod: "year", "month", "never".
	ResetPeriod string
}

// DefaultConfig returns sensible defaults for a prefix.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}
