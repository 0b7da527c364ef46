package dto

import (
	"encoding/json"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres"
)

// AuditEntryResponse represents an audit entry in API responses.
type AuditEntryResponse struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Action     string          `json:"action"`
	ActorID    string          `json:"actorId,omitempty"`
	ActorEmail string          `json:"actorEmail,omitempty"`
	Changes    json.RawMessage `json:"changes,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// FromAuditEntry converts an audit entry to its API representation.
func FromAuditEntry(e *postgres.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         e.ID.String(),
		EntityType: e.EntityType,
		EntityID:   e.EntityID.String(),
		Action:     string(e.Action),
		ActorID:    e.ActorID,
		ActorEmail: e.ActorEmail,
		Changes:    e.Changes,
		CreatedAt:  e.CreatedAt,
	}
}
