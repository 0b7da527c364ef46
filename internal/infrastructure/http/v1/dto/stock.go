package dto

import (
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/ledger"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/valuation"
)

// AppendMovementRequest for POST /stock/movements.
type AppendMovementRequest struct {
	ProductID  string `json:"productId" binding:"required"`
	LocationID string `json:"locationId" binding:"required"`

	Kind string `json:"kind" binding:"required,oneof=entry exit adjustment initial"`
	// Direction is required for adjustments only.
	Direction string `json:"direction" binding:"omitempty,oneof=receipt expense"`

	Quantity types.Quantity `json:"quantity" binding:"required"`
	UnitCost *types.Money   `json:"unitCost"`

	OccurredAt      time.Time `json:"occurredAt" binding:"required"`
	OriginModule    string    `json:"originModule" binding:"required"`
	OriginReference string    `json:"originReference"`
}

// OpeningBalanceLine is one line of an opening balance import.
type OpeningBalanceLine struct {
	ProductID  string         `json:"productId" binding:"required"`
	LocationID string         `json:"locationId" binding:"required"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`
	UnitCost   types.Money    `json:"unitCost" binding:"required"`
	OccurredAt time.Time      `json:"occurredAt" binding:"required"`
}

// ImportOpeningBalancesRequest for POST /stock/opening-balances.
type ImportOpeningBalancesRequest struct {
	Lines []OpeningBalanceLine `json:"lines" binding:"required,min=1,dive"`
}

// ImportOpeningBalancesResponse reports the number of lines imported.
type ImportOpeningBalancesResponse struct {
	Imported int `json:"imported"`
}

// MovementResponse is the API view of a stock movement.
type MovementResponse struct {
	ID         string `json:"id"`
	ProductID  string `json:"productId"`
	LocationID string `json:"locationId"`

	Kind      string         `json:"kind"`
	Direction string         `json:"direction"`
	Quantity  types.Quantity `json:"quantity"`
	UnitCost  *types.Money   `json:"unitCost,omitempty"`

	OccurredAt      time.Time `json:"occurredAt"`
	OriginModule    string    `json:"originModule"`
	OriginReference string    `json:"originReference,omitempty"`

	ActorID    string    `json:"actorId"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recordedAt"`
}

// FromMovement creates MovementResponse from a ledger.StockMovement.
func FromMovement(m *ledger.StockMovement) MovementResponse {
	return MovementResponse{
		ID:              m.ID.String(),
		ProductID:       m.ProductID.String(),
		LocationID:      m.LocationID.String(),
		Kind:            string(m.Kind),
		Direction:       string(m.Direction),
		Quantity:        m.Quantity,
		UnitCost:        m.UnitCost,
		OccurredAt:      m.OccurredAt,
		OriginModule:    m.OriginModule,
		OriginReference: m.OriginReference,
		ActorID:         m.ActorID,
		Status:          string(m.Status),
		RecordedAt:      m.RecordedAt,
	}
}

// PositionResponse is the API view of a stock position.
type PositionResponse struct {
	ProductID  string `json:"productId"`
	LocationID string `json:"locationId"`

	TheoreticalQuantity types.Quantity  `json:"theoreticalQuantity"`
	RealQuantity        *types.Quantity `json:"realQuantity,omitempty"`
	WeightedAverageCost types.Money     `json:"weightedAverageCost"`

	LastRecomputedAt time.Time `json:"lastRecomputedAt"`
}

// FromPosition creates PositionResponse from a valuation.StockPosition.
func FromPosition(p *valuation.StockPosition) PositionResponse {
	return PositionResponse{
		ProductID:           p.ProductID.String(),
		LocationID:          p.LocationID.String(),
		TheoreticalQuantity: p.TheoreticalQuantity,
		RealQuantity:        p.RealQuantity,
		WeightedAverageCost: p.WeightedAverageCost,
		LastRecomputedAt:    p.LastRecomputedAt,
	}
}

// QuantityResponse carries a single quantity figure.
type QuantityResponse struct {
	ProductID  string         `json:"productId"`
	LocationID string         `json:"locationId"`
	Quantity   types.Quantity `json:"quantity"`
	AsOf       time.Time      `json:"asOf"`
}

// CostResponse carries the weighted average unit cost.
type CostResponse struct {
	ProductID  string      `json:"productId"`
	LocationID string      `json:"locationId"`
	UnitCost   types.Money `json:"unitCost"`
}

// TurnoverResponse summarizes movement flow for a key over a period.
type TurnoverResponse struct {
	ProductID  string         `json:"productId"`
	LocationID string         `json:"locationId"`
	From       time.Time      `json:"from"`
	To         time.Time      `json:"to"`
	Receipts   types.Quantity `json:"receipts"`
	Expenses   types.Quantity `json:"expenses"`
	Net        types.Quantity `json:"net"`
	Lines      int            `json:"lines"`
}
