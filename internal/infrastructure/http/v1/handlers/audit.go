package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/http/v1/dto"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres"
	"github.com/midasconsultingnet/successfuel-api-sub001/pkg/logger"
)

// auditChange records an audit entry after a successful mutation. Audit
// failures are logged but never surfaced to the client.
func auditChange(c *gin.Context, audit *postgres.AuditService, entityType string, entityID id.ID, action postgres.AuditAction, changes map[string]any) {
	if audit == nil {
		return
	}
	ctx := c.Request.Context()
	if err := audit.LogChange(ctx, entityType, entityID, action, changes); err != nil {
		logger.Warn(ctx, "audit log failed",
			"entity_type", entityType,
			"entity_id", entityID.String(),
			"action", string(action),
			"error", err,
		)
	}
}

var auditEntityTypes = map[string]bool{
	"stock_movement":      true,
	"inventory_count":     true,
	"fuel_delivery":       true,
	"compensation_record": true,
}

// AuditHandler exposes the audit trail of stock documents.
type AuditHandler struct {
	*BaseHandler
	audit *postgres.AuditService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, audit *postgres.AuditService) *AuditHandler {
	return &AuditHandler{BaseHandler: base, audit: audit}
}

// EntityHistory handles GET /audit/:entityType/:id
func (h *AuditHandler) EntityHistory(c *gin.Context) {
	entityType := c.Param("entityType")
	if !auditEntityTypes[entityType] {
		h.Error(c, apperror.NewValidation("unknown entity type").WithDetail("entity_type", entityType))
		return
	}
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	entries, err := h.audit.GetEntityHistory(c.Request.Context(), entityType, entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.AuditEntryResponse, len(entries))
	for i := range entries {
		items[i] = dto.FromAuditEntry(&entries[i])
	}
	h.OK(c, dto.ListResponse[dto.AuditEntryResponse]{Items: items})
}
