// Package valuation computes the weighted-average unit cost per
// (product, location) and owns the cached StockPosition derived from the
// ledger.
package valuation

import (
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
)

// StockPosition is the cached quantity/value state for one
// (product, location) pair. It is derived: the theoretical quantity must
// always equal the fold of validated movements, never an independent source
// of truth.
type StockPosition struct {
	ProductID  id.ID `db:"product_id" json:"productId"`
	LocationID id.ID `db:"location_id" json:"locationId"`

	TheoreticalQuantity types.Quantity `db:"theoretical_quantity" json:"theoreticalQuantity"`

	// RealQuantity is set by the last physical count, nil before any.
	RealQuantity *types.Quantity `db:"real_quantity" json:"realQuantity,omitempty"`

	WeightedAverageCost types.Money `db:"weighted_average_cost" json:"weightedAverageCost"`

	LastRecomputedAt time.Time `db:"last_recomputed_at" json:"lastRecomputedAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}
