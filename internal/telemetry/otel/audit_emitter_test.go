package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	auditdomain "society-shield/backend/internal/audit/domain"
)

type recordCapture struct {
	recs []otellog.Record
}

func (r *recordCapture) Emit(_ context.Context, rec otellog.Record) {
	r.recs = append(r.recs, rec)
}

func attributes(rec otellog.Record) map[string]string {
	attrs := make(map[string]string)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	return attrs
}

func TestNewAuditEmitter_NilProviderIsNoop(t *testing.T) {
	pub := NewAuditEmitter(nil)
	if err := pub.Publish(context.Background(), &auditdomain.AuditLog{Action: "AUTH_LOGIN"}); err != nil {
		t.Errorf("Publish: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNewAuditEmitter_WithProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	pub := NewAuditEmitter(provider)
	if err := pub.Publish(context.Background(), nil); err != nil {
		t.Errorf("Publish(nil): %v", err)
	}
	if err := pub.Publish(context.Background(), &auditdomain.AuditLog{TenantID: "t1", Action: "AMENITY_CREATED"}); err != nil {
		t.Errorf("Publish: %v", err)
	}
}

func TestAuditEmitter_TenantEntry(t *testing.T) {
	capture := &recordCapture{}
	em := newAuditEmitterWithLogger(capture)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entry := &auditdomain.AuditLog{
		ID:         "a1",
		TenantID:   "tenant-1",
		UserID:     "user-1",
		Action:     "AUTH_LOGIN",
		EntityType: "user",
		EntityID:   "user-1",
		Payload:    `{"ip":"10.0.0.1"}`,
		CreatedAt:  created,
	}
	if err := em.Publish(context.Background(), entry); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(capture.recs) != 1 {
		t.Fatalf("records = %d, want 1", len(capture.recs))
	}
	rec := capture.recs[0]
	if !rec.Timestamp().Equal(created) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), created)
	}
	if got := rec.Body().AsString(); got != entry.Payload {
		t.Errorf("body = %q, want %q", got, entry.Payload)
	}
	want := map[string]string{
		"tenant_id":   "tenant-1",
		"user_id":     "user-1",
		"action":      "AUTH_LOGIN",
		"entity_type": "user",
		"entity_id":   "user-1",
	}
	got := attributes(rec)
	for k, v := range want {
		if got[k] != v {
			t.Errorf("attribute %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestAuditEmitter_PlatformEntry(t *testing.T) {
	capture := &recordCapture{}
	em := newAuditEmitterWithLogger(capture)
	if err := em.Publish(context.Background(), &auditdomain.AuditLog{Action: "ROOT_LOGIN", EntityType: "platform_root_account"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	rec := capture.recs[0]
	attrs := attributes(rec)
	if attrs["tenant_id"] != "_platform" {
		t.Errorf("tenant_id = %q, want _platform", attrs["tenant_id"])
	}
	if _, ok := attrs["user_id"]; ok {
		t.Error("user_id should be omitted when empty")
	}
	if rec.Timestamp().IsZero() {
		t.Error("timestamp should default to now")
	}
	if !rec.Body().Empty() {
		t.Error("body should be empty without payload")
	}
}
