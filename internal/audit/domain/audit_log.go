package domain

import "time"

// AuditLog is one recorded security or business event. TenantID and UserID are empty
// for platform events.
type AuditLog struct {
	ID         string
	TenantID   string
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	Payload    string // JSON object, may be empty
	CreatedAt  time.Time
}
