package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"society-shield/backend/internal/db"
	"society-shield/backend/internal/tenant"
	"society-shield/backend/internal/user/domain"
)

func newUser(id, tenantID, email string) *domain.User {
	now := time.Now().UTC()
	return &domain.User{ID: id, TenantID: tenantID, Name: id, Email: email, Role: domain.RoleOwner,
		Status: domain.UserStatusActive, CreatedAt: now, UpdatedAt: now}
}

func TestMemoryRepository_RequiresUnit(t *testing.T) {
	r := NewMemoryRepository()
	if _, err := r.GetByID(context.Background(), "u1"); !errors.Is(err, db.ErrNoUnitOfWork) {
		t.Errorf("GetByID outside unit: %v", err)
	}
	if err := r.Create(context.Background(), newUser("u1", "t1", "a@x.io")); !errors.Is(err, db.ErrNoUnitOfWork) {
		t.Errorf("Create outside unit: %v", err)
	}
}

func TestMemoryRepository_TenantScope(t *testing.T) {
	r := NewMemoryRepository()
	uow := db.NewMemoryUnitOfWork(nil)
	ctxA := tenant.WithTenantID(context.Background(), "A")
	ctxB := tenant.WithTenantID(context.Background(), "B")

	if err := uow.WithinTenant(ctxA, func(ctx context.Context) error {
		return r.Create(ctx, newUser("u1", "A", "one@a.io"))
	}); err != nil {
		t.Fatal(err)
	}
	err := uow.WithinTenant(ctxB, func(ctx context.Context) error {
		if err := r.Create(ctx, newUser("u2", "A", "two@a.io")); !errors.Is(err, db.ErrRowPolicy) {
			t.Errorf("foreign create: %v", err)
		}
		if u, _ := r.GetByID(ctx, "u1"); u != nil {
			t.Error("B must not read A's user")
		}
		if u, _ := r.GetByEmail(ctx, "ONE@a.io"); u != nil {
			t.Error("B must not find A's user by email")
		}
		if ok, _ := r.Update(ctx, newUser("u1", "B", "one@a.io")); ok {
			t.Error("B must not update A's user")
		}
		if n, _ := r.Count(ctx); n != 0 {
			t.Errorf("B count = %d", n)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	err = uow.WithinPlatform(context.Background(), func(ctx context.Context) error {
		u, err := r.GetByEmail(ctx, "One@A.io")
		if err != nil || u == nil || u.TenantID != "A" {
			t.Errorf("platform lookup = %+v, %v", u, err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMemoryRepository_UpdateKeepsTenantAndBumpsVersion(t *testing.T) {
	r := NewMemoryRepository()
	uow := db.NewMemoryUnitOfWork(nil)
	ctx := tenant.WithTenantID(context.Background(), "A")
	_ = uow.WithinTenant(ctx, func(ctx context.Context) error {
		u := newUser("u1", "A", "one@a.io")
		if err := r.Create(ctx, u); err != nil {
			t.Fatal(err)
		}
		if err := r.Create(ctx, newUser("u9", "A", "ONE@a.io")); !errors.Is(err, domain.ErrEmailTaken) {
			t.Errorf("duplicate email: %v", err)
		}
		u.Name = "Renamed"
		if ok, err := r.Update(ctx, u); !ok || err != nil {
			t.Fatalf("Update = %v, %v", ok, err)
		}
		if u.Version != 1 {
			t.Errorf("Version = %d, want 1", u.Version)
		}
		moved := newUser("u1", "B", "one@a.io")
		if _, err := r.Update(ctx, moved); !errors.Is(err, db.ErrRowPolicy) {
			t.Errorf("tenant change: %v", err)
		}
		got, _ := r.GetByID(ctx, "u1")
		if got.Name != "Renamed" || got.TenantID != "A" {
			t.Errorf("stored = %+v", got)
		}
		return nil
	})
}
