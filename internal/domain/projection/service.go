// Package projection computes theoretical stock quantities by folding
// the movement ledger as of a point in time.
package projection

import (
	"context"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/ledger"
)

// Service answers "how much should be on hand" questions from the
// ledger. It never reads physical counts, only recorded movements.
type Service struct {
	movements ledger.Repository
}

// NewService creates a projection service.
func NewService(movements ledger.Repository) *Service {
	return &Service{movements: movements}
}

// TheoreticalQuantity returns the signed sum of validated movements for
// the product at the location, up to and including asOf. A key with no
// history projects to zero.
func (s *Service) TheoreticalQuantity(ctx context.Context, productID, locationID id.ID, asOf time.Time) (types.Quantity, error) {
	return s.movements.SignedSumAsOf(ctx, productID, locationID, asOf)
}

// CurrentQuantity is TheoreticalQuantity as of now.
func (s *Service) CurrentQuantity(ctx context.Context, productID, locationID id.ID) (types.Quantity, error) {
	return s.movements.SignedSumAsOf(ctx, productID, locationID, time.Now())
}

// Turnover summarizes movement flow for a key over [from, to].
type Turnover struct {
	Receipts types.Quantity `json:"receipts"`
	Expenses types.Quantity `json:"expenses"`
	Net      types.Quantity `json:"net"`
	Lines    int            `json:"lines"`
}

// ComputeTurnover totals receipts and expenses for the period. Cancelled
// lines and cancellation markers are excluded, like every other fold.
func (s *Service) ComputeTurnover(ctx context.Context, productID, locationID id.ID, from, to time.Time) (Turnover, error) {
	movements, err := s.movements.ListByKey(ctx, productID, locationID)
	if err != nil {
		return Turnover{}, err
	}

	var t Turnover
	for i := range movements {
		m := &movements[i]
		if !m.CountsInFold() {
			continue
		}
		if m.OccurredAt.Before(from) || m.OccurredAt.After(to) {
			continue
		}
		switch m.Direction {
		case ledger.DirectionReceipt:
			t.Receipts += m.Quantity
		case ledger.DirectionExpense:
			t.Expenses += m.Quantity
		}
		t.Lines++
	}
	t.Net = t.Receipts - t.Expenses
	return t, nil
}

// FoldQuantity folds an in-memory movement slice the same way the
// repository folds rows: validated movements only, occurred_at <= asOf,
// receipts add and expenses subtract.
func FoldQuantity(movements []ledger.StockMovement, asOf time.Time) types.Quantity {
	var total types.Quantity
	for i := range movements {
		m := &movements[i]
		if !m.CountsInFold() {
			continue
		}
		if m.OccurredAt.After(asOf) {
			continue
		}
		total += m.SignedQuantity()
	}
	return total
}
