package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"society-shield/backend/internal/amenity/domain"
	"society-shield/backend/internal/db"
	"society-shield/backend/internal/tenant"
)

func newAmenity(id, tenantID, name string) *domain.Amenity {
	now := time.Now().UTC()
	return &domain.Amenity{ID: id, TenantID: tenantID, Name: name, Capacity: 10, BookingAllowed: true,
		CreatedAt: now, UpdatedAt: now}
}

func TestMemoryRepository_RequiresUnit(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	if _, err := r.GetByID(ctx, "a1"); !errors.Is(err, db.ErrNoUnitOfWork) {
		t.Errorf("GetByID outside unit: %v", err)
	}
	if _, err := r.List(ctx, 10, 0); !errors.Is(err, db.ErrNoUnitOfWork) {
		t.Errorf("List outside unit: %v", err)
	}
	if _, err := r.SoftDelete(ctx, "a1"); !errors.Is(err, db.ErrNoUnitOfWork) {
		t.Errorf("SoftDelete outside unit: %v", err)
	}
}

// Every operation run under tenant B must leave tenant A's amenity invisible and untouched.
func TestMemoryRepository_IsolationAcrossOperations(t *testing.T) {
	r := NewMemoryRepository()
	uow := db.NewMemoryUnitOfWork(nil)
	ctxA := tenant.WithTenantID(context.Background(), "A")
	ctxB := tenant.WithTenantID(context.Background(), "B")

	if err := uow.WithinTenant(ctxA, func(ctx context.Context) error {
		return r.Create(ctx, newAmenity("a1", "A", "Pool"))
	}); err != nil {
		t.Fatal(err)
	}

	err := uow.WithinTenant(ctxB, func(ctx context.Context) error {
		if err := r.Create(ctx, newAmenity("b-forged", "A", "Forged")); !errors.Is(err, db.ErrRowPolicy) {
			t.Errorf("create for A under B: %v", err)
		}
		if got, _ := r.List(ctx, 100, 0); len(got) != 0 {
			t.Errorf("list under B = %d rows", len(got))
		}
		if got, _ := r.GetByID(ctx, "a1"); got != nil {
			t.Error("get under B returned A's amenity")
		}
		if ok, _ := r.Update(ctx, newAmenity("a1", "", "Hacked")); ok {
			t.Error("update under B matched A's amenity")
		}
		if ok, _ := r.SoftDelete(ctx, "a1"); ok {
			t.Error("delete under B matched A's amenity")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	err = uow.WithinTenant(ctxA, func(ctx context.Context) error {
		got, err := r.GetByID(ctx, "a1")
		if err != nil || got == nil {
			t.Fatalf("get under A: %v, %v", got, err)
		}
		if got.Name != "Pool" || got.Version != 0 {
			t.Errorf("A's amenity changed: %+v", got)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMemoryRepository_UpdateKeepsTenant(t *testing.T) {
	r := NewMemoryRepository()
	uow := db.NewMemoryUnitOfWork(nil)
	ctxA := tenant.WithTenantID(context.Background(), "A")
	err := uow.WithinTenant(ctxA, func(ctx context.Context) error {
		if err := r.Create(ctx, newAmenity("a1", "A", "Pool")); err != nil {
			return err
		}
		if _, err := r.Update(ctx, newAmenity("a1", "B", "Pool")); !errors.Is(err, db.ErrRowPolicy) {
			t.Errorf("tenant change err = %v, want ErrRowPolicy", err)
		}
		next := newAmenity("a1", "A", "Lap Pool")
		ok, err := r.Update(ctx, next)
		if err != nil || !ok || next.Version != 1 {
			t.Errorf("Update = %v, %v, version %d", ok, err, next.Version)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMemoryRepository_ListPagingAndDelete(t *testing.T) {
	r := NewMemoryRepository()
	uow := db.NewMemoryUnitOfWork(nil)
	ctxA := tenant.WithTenantID(context.Background(), "A")
	err := uow.WithinTenant(ctxA, func(ctx context.Context) error {
		for _, a := range []*domain.Amenity{newAmenity("1", "A", "Tennis"), newAmenity("2", "A", "Gym"), newAmenity("3", "A", "Pool")} {
			if err := r.Create(ctx, a); err != nil {
				return err
			}
		}
		page, _ := r.List(ctx, 2, 0)
		if len(page) != 2 || page[0].Name != "Gym" || page[1].Name != "Pool" {
			t.Errorf("first page = %v", names(page))
		}
		page, _ = r.List(ctx, 2, 2)
		if len(page) != 1 || page[0].Name != "Tennis" {
			t.Errorf("second page = %v", names(page))
		}
		if ok, _ := r.SoftDelete(ctx, "2"); !ok {
			t.Error("SoftDelete should match")
		}
		if ok, _ := r.SoftDelete(ctx, "2"); ok {
			t.Error("second SoftDelete should not match")
		}
		if got, _ := r.GetByID(ctx, "2"); got != nil {
			t.Error("deleted amenity still visible")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func names(as []*domain.Amenity) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Name
	}
	return out
}
