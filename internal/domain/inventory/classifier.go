package inventory

import (
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
)

// Category splits threshold policy between shop goods and fuel tanks.
// Fuel carries wider tolerances (gauge imprecision) but a tighter
// evaporation fraction (evaporation is a bounded physical process).
type Category string

const (
	CategoryBoutique Category = "boutique"
	CategoryFuel     Category = "fuel"
)

// smallErrorBand is the absolute shortage magnitude still attributable
// to measurement error: 1 piece for boutique, 2 litres for fuel.
func smallErrorBand(cat Category) types.Quantity {
	if cat == CategoryFuel {
		return types.NewQuantityFromInt(2)
	}
	return types.NewQuantityFromInt(1)
}

// fractionBand returns the fraction-of-threshold band separating
// explainable variances from loss/surplus: 0.5 of threshold for
// boutique, 0.3 for fuel.
func fractionBand(threshold types.Quantity, cat Category) types.Quantity {
	if cat == CategoryFuel {
		return types.Quantity(int64(threshold) * 3 / 10)
	}
	return threshold / 2
}

// ClassifyVariance labels a variance (real minus theoretical) against a
// resolved tolerance threshold. Returns ok=false when the variance is
// within tolerance and no record should be created.
//
// Deterministic: the same (variance, threshold, category) always yields
// the same classification.
func ClassifyVariance(variance, threshold types.Quantity, cat Category) (Classification, bool) {
	abs := variance.Abs()
	if abs <= threshold {
		return "", false
	}

	frac := fractionBand(threshold, cat)

	if variance.IsNegative() {
		switch {
		case abs <= smallErrorBand(cat):
			return ClassAnomaly, true
		case abs <= frac:
			return ClassEvaporation, true
		default:
			return ClassLoss, true
		}
	}

	if abs <= frac {
		return ClassAnomaly, true
	}
	return ClassSurplus, true
}

// anomalyReason describes why a variance was tagged as anomaly.
func anomalyReason(variance types.Quantity, cat Category) string {
	if variance.IsNegative() {
		return "shortage within measurement error band of " + smallErrorBand(cat).String()
	}
	return "excess within fraction band, likely measurement error"
}
