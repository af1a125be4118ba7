package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	auditdomain "society-shield/backend/internal/audit/domain"
	"society-shield/backend/internal/audit/producer"
)

const auditLoggerName = "shield.audit"

// recordEmitter is the part of otellog.Logger the audit emitter needs.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewAuditEmitter returns a Publisher that sends audit entries as OTel log records
// through provider. A nil provider yields a no-op publisher.
func NewAuditEmitter(provider *sdklog.LoggerProvider) producer.Publisher {
	if provider == nil {
		return noopPublisher{}
	}
	return &auditEmitter{logger: provider.Logger(auditLoggerName)}
}

func newAuditEmitterWithLogger(l recordEmitter) *auditEmitter {
	return &auditEmitter{logger: l}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, *auditdomain.AuditLog) error { return nil }
func (noopPublisher) Close() error                                         { return nil }

type auditEmitter struct {
	logger recordEmitter
}

// Publish converts the entry to a log record. The payload becomes the record body and
// the identifying fields become attributes.
func (e *auditEmitter) Publish(ctx context.Context, a *auditdomain.AuditLog) error {
	if a == nil {
		return nil
	}
	ev := producer.NewEvent(a)
	rec := otellog.Record{}
	ts := ev.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetSeverity(otellog.SeverityInfo)
	if ev.Payload != "" {
		rec.SetBody(otellog.StringValue(ev.Payload))
	}
	rec.AddAttributes(
		otellog.String("tenant_id", ev.TenantID),
		otellog.String("action", ev.Action),
		otellog.String("entity_type", ev.EntityType),
	)
	if ev.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", ev.UserID))
	}
	if ev.EntityID != "" {
		rec.AddAttributes(otellog.String("entity_id", ev.EntityID))
	}
	e.logger.Emit(ctx, rec)
	return nil
}

// Close is a no-op; the logger provider is shut down with the other providers.
func (e *auditEmitter) Close() error { return nil }
