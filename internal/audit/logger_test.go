package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"society-shield/backend/internal/audit/domain"
	auditrepo "society-shield/backend/internal/audit/repository"
	"society-shield/backend/internal/db"
	"society-shield/backend/internal/telemetry"
	"society-shield/backend/internal/tenant"
)

type failingRepo struct{ auditrepo.Repository }

func (failingRepo) Create(context.Context, *domain.AuditLog) error { return errors.New("disk full") }

type capturePublisher struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
	err     error
	closed  bool
}

func (p *capturePublisher) Publish(_ context.Context, a *domain.AuditLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, a)
	return p.err
}

func (p *capturePublisher) Close() error {
	p.closed = true
	return nil
}

func waitAsync(t *testing.T, a *telemetry.Async) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Wait(ctx); err != nil {
		t.Fatalf("async Wait: %v", err)
	}
}

func TestLogger_LogEvent_Persists(t *testing.T) {
	repo := auditrepo.NewMemoryRepository()
	l := NewLogger(db.NewMemoryUnitOfWork(nil), repo,
		WithIPExtractor(func(context.Context) string { return "10.0.0.7" }))

	l.LogEvent(context.Background(), "tenant-1", "user-1", ActionAuthLogin, EntityUser, "user-1",
		map[string]any{"email": "a@b.co"})

	entries := repo.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.TenantID != "tenant-1" || e.UserID != "user-1" || e.Action != ActionAuthLogin || e.EntityType != EntityUser {
		t.Errorf("entry = %+v", e)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Error("id and created_at should be set")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(e.Payload), &payload); err != nil {
		t.Fatalf("payload %q: %v", e.Payload, err)
	}
	if payload["ip"] != "10.0.0.7" || payload["email"] != "a@b.co" {
		t.Errorf("payload = %v", payload)
	}
}

func TestLogger_LogEvent_EmptyPayload(t *testing.T) {
	repo := auditrepo.NewMemoryRepository()
	l := NewLogger(db.NewMemoryUnitOfWork(nil), repo)
	l.LogEvent(context.Background(), "", "", ActionRootLogin, EntityRootAccount, "root-id", nil)
	if got := repo.Entries()[0].Payload; got != "" {
		t.Errorf("payload = %q, want empty", got)
	}
}

func TestLogger_LogEvent_DetachedFromCallerUnit(t *testing.T) {
	uow := db.NewMemoryUnitOfWork(nil)
	repo := auditrepo.NewMemoryRepository()
	l := NewLogger(uow, repo)
	ctx := tenant.WithTenantID(context.Background(), "tenant-1")

	callerErr := errors.New("business failure")
	err := uow.WithinTenant(ctx, func(ctx context.Context) error {
		l.LogEvent(ctx, "tenant-1", "user-1", ActionAmenityCreated, EntityAmenity, "a1", nil)
		return callerErr
	})
	if !errors.Is(err, callerErr) {
		t.Fatalf("WithinTenant = %v, want caller error", err)
	}
	if got := repo.Actions(); len(got) != 1 || got[0] != ActionAmenityCreated {
		t.Errorf("actions = %v, want the audit row despite the caller's failure", got)
	}
	if uow.Units() != 2 {
		t.Errorf("units = %d, want 2 (caller + detached audit)", uow.Units())
	}
}

func TestLogger_LogEvent_RepoFailureIsSwallowed(t *testing.T) {
	pub := &capturePublisher{}
	async := telemetry.NewAsync("audit-test")
	l := NewLogger(db.NewMemoryUnitOfWork(nil), failingRepo{}, WithPublishers(pub), WithAsync(async))

	l.LogEvent(context.Background(), "t1", "u1", ActionAuthLoginFailed, EntityUser, "", nil)
	waitAsync(t, async)

	if len(pub.entries) != 1 {
		t.Errorf("published = %d, want 1 even when persistence fails", len(pub.entries))
	}
}

func TestLogger_LogEvent_PublishesAsync(t *testing.T) {
	first := &capturePublisher{}
	second := &capturePublisher{err: errors.New("broker down")}
	async := telemetry.NewAsync("audit-test")
	l := NewLogger(db.NewMemoryUnitOfWork(nil), auditrepo.NewMemoryRepository(),
		WithPublishers(first, nil, second), WithAsync(async))

	l.LogEvent(context.Background(), "t1", "u1", ActionAmenityDeleted, EntityAmenity, "a1", nil)
	waitAsync(t, async)

	for i, p := range []*capturePublisher{first, second} {
		if len(p.entries) != 1 || p.entries[0].Action != ActionAmenityDeleted {
			t.Errorf("publisher %d got %v", i, p.entries)
		}
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !first.closed || !second.closed {
		t.Error("Close should close every publisher")
	}
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger
	l.LogEvent(context.Background(), "t", "u", "A", "e", "", nil)
	NewLogger(nil, nil).LogEvent(context.Background(), "t", "u", "A", "e", "", nil)
}
