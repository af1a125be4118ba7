// Package producer publishes audit events to external streams (Kafka).
package producer

import (
	"context"
	"time"

	"society-shield/backend/internal/audit/domain"
)

// SentinelTenantID replaces an empty tenant id in published events so consumers can
// partition platform events.
const SentinelTenantID = "_platform"

// Event is the JSON document written to the stream.
type Event struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenantId"`
	UserID     string    `json:"userId,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId,omitempty"`
	Payload    string    `json:"payload,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewEvent converts an audit log entry to its published form.
func NewEvent(a *domain.AuditLog) Event {
	tenantID := a.TenantID
	if tenantID == "" {
		tenantID = SentinelTenantID
	}
	return Event{
		ID:         a.ID,
		TenantID:   tenantID,
		UserID:     a.UserID,
		Action:     a.Action,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		Payload:    a.Payload,
		CreatedAt:  a.CreatedAt,
	}
}

// Publisher sends audit events. Callers use it best-effort: log and ignore errors.
type Publisher interface {
	// Publish sends one event. Implementations may block briefly; call from a goroutine if needed.
	Publish(ctx context.Context, a *domain.AuditLog) error
	// Close releases resources. Safe to call if already closed.
	Close() error
}
