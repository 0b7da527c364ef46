package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/inventory"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/http/v1/dto"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres"
)

// InventoryHandler handles inventory count and variance endpoints.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
	audit   *postgres.AuditService
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service, audit *postgres.AuditService) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, service: service, audit: audit}
}

// SubmitCount handles POST /inventory/counts
func (h *InventoryHandler) SubmitCount(c *gin.Context) {
	var req dto.SubmitCountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	stationID, err := parseIDField(req.StationID, "stationId")
	if err != nil {
		h.Error(c, err)
		return
	}
	productID, err := parseIDField(req.ProductID, "productId")
	if err != nil {
		h.Error(c, err)
		return
	}
	locationID, err := parseIDField(req.LocationID, "locationId")
	if err != nil {
		h.Error(c, err)
		return
	}

	count, err := h.service.SubmitCount(c.Request.Context(), inventory.SubmitInput{
		StationID:          stationID,
		ProductID:          productID,
		LocationID:         locationID,
		DeclaredQuantity:   req.DeclaredQuantity,
		CountedAt:          req.CountedAt,
		ActorID:            h.ActorID(c),
		ToleranceThreshold: req.ToleranceThreshold,
		MeasurementMethod:  inventory.MeasurementMethod(req.MeasurementMethod),
		Comment:            req.Comment,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	auditChange(c, h.audit, "inventory_count", count.ID, postgres.AuditActionCreate, map[string]any{
		"number":            count.Number,
		"product_id":        req.ProductID,
		"location_id":       req.LocationID,
		"declared_quantity": req.DeclaredQuantity,
	})
	h.Created(c, count.ID)
}

// Transition handles POST /inventory/counts/:id/transition
func (h *InventoryHandler) Transition(c *gin.Context) {
	countID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.TransitionCountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	count, err := h.service.Transition(c.Request.Context(), countID, inventory.CountStatus(req.Target))
	if err != nil {
		h.Error(c, err)
		return
	}
	auditChange(c, h.audit, "inventory_count", countID, postgres.AuditActionUpdate, map[string]any{
		"status": req.Target,
	})
	h.OK(c, dto.FromCount(count))
}

// Classify handles POST /inventory/counts/:id/classify
func (h *InventoryHandler) Classify(c *gin.Context) {
	countID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	record, err := h.service.Classify(c.Request.Context(), countID)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.ClassifyResponse{InventoryID: countID.String()}
	changes := map[string]any{"breached": record != nil}
	if record != nil {
		resp.Breached = true
		v := dto.FromVariance(record)
		resp.Variance = &v
		changes["classification"] = string(record.Classification)
		changes["variance"] = record.Variance
	}
	auditChange(c, h.audit, "inventory_count", countID, postgres.AuditActionClassify, changes)
	h.OK(c, resp)
}

// GetCount handles GET /inventory/counts/:id
func (h *InventoryHandler) GetCount(c *gin.Context) {
	countID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	count, err := h.service.GetCount(c.Request.Context(), countID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCount(count))
}

// ListCounts handles GET /inventory/counts
func (h *InventoryHandler) ListCounts(c *gin.Context) {
	filter := inventory.CountFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	var ok bool
	if filter.StationID, ok = h.ParseIDQuery(c, "stationId"); !ok {
		return
	}
	if filter.ProductID, ok = h.ParseIDQuery(c, "productId"); !ok {
		return
	}
	if filter.LocationID, ok = h.ParseIDQuery(c, "locationId"); !ok {
		return
	}
	if status := c.Query("status"); status != "" {
		s := inventory.CountStatus(status)
		if !s.IsValid() {
			h.Error(c, apperror.NewValidation("unknown status").WithDetail("status", status))
			return
		}
		filter.Status = &s
	}

	counts, err := h.service.ListCounts(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.CountResponse, len(counts))
	for i := range counts {
		items[i] = dto.FromCount(&counts[i])
	}
	h.OK(c, dto.ListResponse[dto.CountResponse]{Items: items})
}

// GetVariance handles GET /inventory/counts/:id/variance
func (h *InventoryHandler) GetVariance(c *gin.Context) {
	countID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	record, err := h.service.GetVariance(c.Request.Context(), countID)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.ClassifyResponse{InventoryID: countID.String()}
	if record != nil {
		resp.Breached = true
		v := dto.FromVariance(record)
		resp.Variance = &v
	}
	h.OK(c, resp)
}

// ListVariances handles GET /inventory/variances
func (h *InventoryHandler) ListVariances(c *gin.Context) {
	filter := inventory.VarianceFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	var ok bool
	if filter.ProductID, ok = h.ParseIDQuery(c, "productId"); !ok {
		return
	}
	if filter.LocationID, ok = h.ParseIDQuery(c, "locationId"); !ok {
		return
	}
	if cls := c.Query("classification"); cls != "" {
		classification := inventory.Classification(cls)
		filter.Classification = &classification
	}

	records, err := h.service.ListVariances(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.VarianceResponse, len(records))
	for i := range records {
		items[i] = dto.FromVariance(&records[i])
	}
	h.OK(c, dto.ListResponse[dto.VarianceResponse]{Items: items})
}
