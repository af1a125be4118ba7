package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"society-shield/backend/internal/audit/domain"
	"society-shield/backend/internal/audit/producer"
	auditrepo "society-shield/backend/internal/audit/repository"
	"society-shield/backend/internal/db"
	"society-shield/backend/internal/observability/logger"
	"society-shield/backend/internal/telemetry"
)

// IPExtractor returns the client IP from the request context (HTTP remote address or gRPC peer).
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event. LogEvent is best-effort: failures are logged
// and never affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, tenantID, userID, action, entityType, entityID string, payload map[string]any)
}

// Logger implements AuditLogger. Entries are persisted in their own unscoped unit of
// work and then fanned out to the configured publishers asynchronously.
type Logger struct {
	uow         db.UnitOfWork
	repo        auditrepo.Repository
	publishers  []producer.Publisher
	async       *telemetry.Async
	ipExtractor IPExtractor
	log         *zap.Logger
	now         func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithPublishers adds stream publishers. Nil publishers are skipped.
func WithPublishers(pubs ...producer.Publisher) Option {
	return func(l *Logger) {
		for _, p := range pubs {
			if p != nil {
				l.publishers = append(l.publishers, p)
			}
		}
	}
}

// WithAsync sets the runner used for publishing. Without it publishers are not called.
func WithAsync(a *telemetry.Async) Option {
	return func(l *Logger) { l.async = a }
}

// WithIPExtractor records the client IP under "ip" in every payload.
func WithIPExtractor(fn IPExtractor) Option {
	return func(l *Logger) { l.ipExtractor = fn }
}

// NewLogger returns a Logger persisting through uow and repo.
func NewLogger(uow db.UnitOfWork, repo auditrepo.Repository, opts ...Option) *Logger {
	l := &Logger{
		uow:  uow,
		repo: repo,
		log:  logger.Named("audit"),
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogEvent records one audit entry. The write runs detached from any active unit of
// work so it commits even when the caller's unit rolls back.
func (l *Logger) LogEvent(ctx context.Context, tenantID, userID, action, entityType, entityID string, payload map[string]any) {
	if l == nil || l.repo == nil || l.uow == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    l.encodePayload(ctx, action, payload),
		CreatedAt:  l.now(),
	}
	err := l.uow.WithinPlatform(db.Detach(ctx), func(ctx context.Context) error {
		return l.repo.Create(ctx, entry)
	})
	if err != nil {
		l.log.Warn("audit write failed",
			logger.Action(action), logger.TenantID(tenantID), logger.UserID(userID), logger.Err(err))
	}
	for _, p := range l.publishers {
		p := p
		l.async.Go("audit.publish", func(ctx context.Context) error {
			return p.Publish(ctx, entry)
		})
	}
}

func (l *Logger) encodePayload(ctx context.Context, action string, payload map[string]any) string {
	if l.ipExtractor != nil {
		if ip := l.ipExtractor(ctx); ip != "" {
			if payload == nil {
				payload = make(map[string]any, 1)
			} else {
				cp := make(map[string]any, len(payload)+1)
				for k, v := range payload {
					cp[k] = v
				}
				payload = cp
			}
			payload["ip"] = ip
		}
	}
	if len(payload) == 0 {
		return ""
	}
	b, err := json.Marshal(payload)
	if err != nil {
		l.log.Warn("audit payload not serializable", logger.Action(action), logger.Err(err))
		return ""
	}
	return string(b)
}

// Close closes every publisher.
func (l *Logger) Close() error {
	var errs error
	for _, p := range l.publishers {
		errs = multierr.Append(errs, p.Close())
	}
	return errs
}

// NopLogger discards every event.
type NopLogger struct{}

func (NopLogger) LogEvent(context.Context, string, string, string, string, string, map[string]any) {}
