package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/ledger"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/projection"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/valuation"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/http/v1/dto"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres"
)

// StockHandler handles stock ledger, valuation and projection endpoints.
type StockHandler struct {
	*BaseHandler
	movements *ledger.Service
	values    *valuation.Service
	projector *projection.Service
	audit     *postgres.AuditService
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, movements *ledger.Service, values *valuation.Service, projector *projection.Service, audit *postgres.AuditService) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		movements:   movements,
		values:      values,
		projector:   projector,
		audit:       audit,
	}
}

// AppendMovement handles POST /stock/movements
func (h *StockHandler) AppendMovement(c *gin.Context) {
	var req dto.AppendMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}
	locationID, err := id.Parse(req.LocationID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid locationId format"))
		return
	}

	movementID, err := h.movements.Append(c.Request.Context(), ledger.AppendInput{
		ProductID:       productID,
		LocationID:      locationID,
		Kind:            ledger.MovementKind(req.Kind),
		Direction:       ledger.Direction(req.Direction),
		Quantity:        req.Quantity,
		UnitCost:        req.UnitCost,
		OccurredAt:      req.OccurredAt,
		OriginModule:    req.OriginModule,
		OriginReference: req.OriginReference,
		ActorID:         h.ActorID(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	auditChange(c, h.audit, "stock_movement", movementID, postgres.AuditActionCreate, map[string]any{
		"kind":        req.Kind,
		"product_id":  req.ProductID,
		"location_id": req.LocationID,
		"quantity":    req.Quantity,
	})
	h.Created(c, movementID)
}

// CancelMovement handles POST /stock/movements/:id/cancel
func (h *StockHandler) CancelMovement(c *gin.Context) {
	movementID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	markerID, err := h.movements.Cancel(c.Request.Context(), movementID, h.ActorID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	auditChange(c, h.audit, "stock_movement", movementID, postgres.AuditActionCancel, map[string]any{
		"cancellation_id": markerID.String(),
	})
	h.OK(c, dto.NewIDResponse(markerID))
}

// GetMovement handles GET /stock/movements/:id
func (h *StockHandler) GetMovement(c *gin.Context) {
	movementID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	m, err := h.movements.GetByID(c.Request.Context(), movementID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromMovement(m))
}

// History handles GET /stock/movements
func (h *StockHandler) History(c *gin.Context) {
	filter := ledger.HistoryFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	var ok bool
	if filter.ProductID, ok = h.ParseIDQuery(c, "productId"); !ok {
		return
	}
	if filter.LocationID, ok = h.ParseIDQuery(c, "locationId"); !ok {
		return
	}
	if kind := c.Query("kind"); kind != "" {
		k := ledger.MovementKind(kind)
		filter.Kind = &k
	}
	if filter.FromDate, ok = h.parseTimeQuery(c, "from"); !ok {
		return
	}
	if filter.ToDate, ok = h.parseTimeQuery(c, "to"); !ok {
		return
	}

	movements, err := h.movements.History(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.MovementResponse, len(movements))
	for i := range movements {
		items[i] = dto.FromMovement(&movements[i])
	}
	h.OK(c, dto.ListResponse[dto.MovementResponse]{Items: items})
}

// ImportOpeningBalances handles POST /stock/opening-balances
func (h *StockHandler) ImportOpeningBalances(c *gin.Context) {
	var req dto.ImportOpeningBalancesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	actorID := h.ActorID(c)
	inputs := make([]ledger.AppendInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format").WithDetail("productId", line.ProductID))
			return
		}
		locationID, err := id.Parse(line.LocationID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid locationId format").WithDetail("locationId", line.LocationID))
			return
		}
		unitCost := line.UnitCost
		inputs = append(inputs, ledger.AppendInput{
			ProductID:  productID,
			LocationID: locationID,
			Quantity:   line.Quantity,
			UnitCost:   &unitCost,
			OccurredAt: line.OccurredAt,
			ActorID:    actorID,
		})
	}

	imported, err := h.movements.ImportOpeningBalances(c.Request.Context(), inputs)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ImportOpeningBalancesResponse{Imported: imported})
}

// GetPosition handles GET /stock/position
func (h *StockHandler) GetPosition(c *gin.Context) {
	productID, locationID, ok := h.requireKey(c)
	if !ok {
		return
	}

	pos, err := h.values.GetPosition(c.Request.Context(), productID, locationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPosition(pos))
}

// GetCost handles GET /stock/cost
func (h *StockHandler) GetCost(c *gin.Context) {
	productID, locationID, ok := h.requireKey(c)
	if !ok {
		return
	}

	cost, err := h.values.WeightedAverageCost(c.Request.Context(), productID, locationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CostResponse{
		ProductID:  productID.String(),
		LocationID: locationID.String(),
		UnitCost:   cost,
	})
}

// GetQuantity handles GET /stock/quantity
// Optional asOf returns the theoretical quantity at a past instant.
func (h *StockHandler) GetQuantity(c *gin.Context) {
	productID, locationID, ok := h.requireKey(c)
	if !ok {
		return
	}

	asOf := time.Now().UTC()
	parsed, ok := h.parseTimeQuery(c, "asOf")
	if !ok {
		return
	}
	if parsed != nil {
		asOf = *parsed
	}

	qty, err := h.projector.TheoreticalQuantity(c.Request.Context(), productID, locationID, asOf)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.QuantityResponse{
		ProductID:  productID.String(),
		LocationID: locationID.String(),
		Quantity:   qty,
		AsOf:       asOf,
	})
}

// GetTurnover handles GET /stock/turnover
func (h *StockHandler) GetTurnover(c *gin.Context) {
	productID, locationID, ok := h.requireKey(c)
	if !ok {
		return
	}

	from := time.Time{}
	to := time.Now().UTC()
	if parsed, ok := h.parseTimeQuery(c, "from"); !ok {
		return
	} else if parsed != nil {
		from = *parsed
	}
	if parsed, ok := h.parseTimeQuery(c, "to"); !ok {
		return
	} else if parsed != nil {
		to = *parsed
	}

	turnover, err := h.projector.ComputeTurnover(c.Request.Context(), productID, locationID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.TurnoverResponse{
		ProductID:  productID.String(),
		LocationID: locationID.String(),
		From:       from,
		To:         to,
		Receipts:   turnover.Receipts,
		Expenses:   turnover.Expenses,
		Net:        turnover.Net,
		Lines:      turnover.Lines,
	})
}

// requireKey parses the mandatory productId and locationId query parameters.
func (h *StockHandler) requireKey(c *gin.Context) (id.ID, id.ID, bool) {
	productID, err := id.Parse(c.Query("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("productId is required"))
		return id.Nil(), id.Nil(), false
	}
	locationID, err := id.Parse(c.Query("locationId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("locationId is required"))
		return id.Nil(), id.Nil(), false
	}
	return productID, locationID, true
}

func (h *StockHandler) parseTimeQuery(c *gin.Context, key string) (*time.Time, bool) {
	val := c.Query(key)
	if val == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, val)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+key+" timestamp, expected RFC3339"))
		return nil, false
	}
	return &parsed, true
}
