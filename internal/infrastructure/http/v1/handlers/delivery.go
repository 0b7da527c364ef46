package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/delivery"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/http/v1/dto"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres"
)

// DeliveryHandler handles fuel delivery and compensation endpoints.
type DeliveryHandler struct {
	*BaseHandler
	service *delivery.Service
	audit   *postgres.AuditService
}

// NewDeliveryHandler creates a new delivery handler.
func NewDeliveryHandler(base *BaseHandler, service *delivery.Service, audit *postgres.AuditService) *DeliveryHandler {
	return &DeliveryHandler{BaseHandler: base, service: service, audit: audit}
}

// Order handles POST /deliveries
func (h *DeliveryHandler) Order(c *gin.Context) {
	var req dto.OrderDeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	stationID, err := parseIDField(req.StationID, "stationId")
	if err != nil {
		h.Error(c, err)
		return
	}
	tankID, err := parseIDField(req.TankID, "tankId")
	if err != nil {
		h.Error(c, err)
		return
	}
	productID, err := parseIDField(req.ProductID, "productId")
	if err != nil {
		h.Error(c, err)
		return
	}

	d, err := h.service.Order(c.Request.Context(), delivery.OrderInput{
		StationID:       stationID,
		TankID:          tankID,
		ProductID:       productID,
		OrderedQuantity: req.OrderedQuantity,
		UnitCost:        req.UnitCost,
		SupplierName:    req.SupplierName,
		ActorID:         h.ActorID(c),
		Comment:         req.Comment,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	auditChange(c, h.audit, "fuel_delivery", d.ID, postgres.AuditActionCreate, map[string]any{
		"number":           d.Number,
		"tank_id":          req.TankID,
		"product_id":       req.ProductID,
		"ordered_quantity": req.OrderedQuantity,
	})
	h.Created(c, d.ID)
}

// Receive handles POST /deliveries/:id/receive
func (h *DeliveryHandler) Receive(c *gin.Context) {
	deliveryID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReceiveDeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.service.Receive(c.Request.Context(), delivery.ReceiveInput{
		DeliveryID:        deliveryID,
		DeliveredQuantity: req.DeliveredQuantity,
		DeliveredAt:       req.DeliveredAt,
		ActorID:           h.ActorID(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	auditChange(c, h.audit, "fuel_delivery", deliveryID, postgres.AuditActionUpdate, map[string]any{
		"status":             string(d.Status),
		"delivered_quantity": req.DeliveredQuantity,
	})
	h.OK(c, dto.FromDelivery(d))
}

// Check handles POST /deliveries/:id/check
func (h *DeliveryHandler) Check(c *gin.Context) {
	deliveryID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	record, err := h.service.Check(c.Request.Context(), deliveryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.CheckResponse{DeliveryID: deliveryID.String()}
	changes := map[string]any{"compensation": record != nil}
	if record != nil {
		comp := dto.FromCompensation(record)
		resp.Compensation = &comp
		changes["compensation_type"] = string(record.CompensationType)
		changes["difference"] = record.Difference
		changes["compensation_amount"] = record.CompensationAmount
	}
	auditChange(c, h.audit, "fuel_delivery", deliveryID, postgres.AuditActionCompensate, changes)
	h.OK(c, resp)
}

// Get handles GET /deliveries/:id
func (h *DeliveryHandler) Get(c *gin.Context) {
	deliveryID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	d, err := h.service.GetByID(c.Request.Context(), deliveryID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDelivery(d))
}

// GetCompensation handles GET /deliveries/:id/compensation
func (h *DeliveryHandler) GetCompensation(c *gin.Context) {
	deliveryID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	record, err := h.service.GetCompensation(c.Request.Context(), deliveryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.CheckResponse{DeliveryID: deliveryID.String()}
	if record != nil {
		comp := dto.FromCompensation(record)
		resp.Compensation = &comp
	}
	h.OK(c, resp)
}

// List handles GET /deliveries
func (h *DeliveryHandler) List(c *gin.Context) {
	filter := delivery.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	var ok bool
	if filter.StationID, ok = h.ParseIDQuery(c, "stationId"); !ok {
		return
	}
	if filter.TankID, ok = h.ParseIDQuery(c, "tankId"); !ok {
		return
	}
	if filter.ProductID, ok = h.ParseIDQuery(c, "productId"); !ok {
		return
	}
	if status := c.Query("status"); status != "" {
		s := delivery.Status(status)
		filter.Status = &s
	}

	deliveries, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.DeliveryResponse, len(deliveries))
	for i := range deliveries {
		items[i] = dto.FromDelivery(&deliveries[i])
	}
	h.OK(c, dto.ListResponse[dto.DeliveryResponse]{Items: items})
}

// ListCompensations handles GET /deliveries/compensations
func (h *DeliveryHandler) ListCompensations(c *gin.Context) {
	records, err := h.service.ListCompensations(c.Request.Context(),
		h.ParseIntQuery(c, "limit", 50),
		h.ParseIntQuery(c, "offset", 0),
	)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.CompensationResponse, len(records))
	for i := range records {
		items[i] = dto.FromCompensation(&records[i])
	}
	h.OK(c, dto.ListResponse[dto.CompensationResponse]{Items: items})
}
