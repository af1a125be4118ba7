package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"society-shield/backend/internal/amenity/domain"
	"society-shield/backend/internal/db"
)

// MemoryRepository is an in-memory Repository that applies the active unit's scope
// the way the row policy does.
type MemoryRepository struct {
	mu    sync.Mutex
	items map[string]*domain.Amenity
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]*domain.Amenity)}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Amenity, error) {
	scope, err := db.CurrentScope(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok || a.Deleted || !scope.Allows(a.TenantID) {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) List(ctx context.Context, limit, offset int) ([]*domain.Amenity, error) {
	scope, err := db.CurrentScope(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	var all []*domain.Amenity
	for _, a := range r.items {
		if !a.Deleted && scope.Allows(a.TenantID) {
			cp := *a
			all = append(all, &cp)
		}
	}
	r.mu.Unlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryRepository) Create(ctx context.Context, a *domain.Amenity) error {
	scope, err := db.CurrentScope(ctx)
	if err != nil {
		return err
	}
	if !scope.Allows(a.TenantID) {
		return db.ErrRowPolicy
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[a.ID]; ok {
		return db.ErrUniqueViolation
	}
	cp := *a
	r.items[a.ID] = &cp
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, a *domain.Amenity) (bool, error) {
	scope, err := db.CurrentScope(ctx)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[a.ID]
	if !ok || cur.Deleted || !scope.Allows(cur.TenantID) {
		return false, nil
	}
	if a.TenantID != "" && a.TenantID != cur.TenantID {
		return false, db.ErrRowPolicy
	}
	next := *a
	next.TenantID = cur.TenantID
	next.CreatedAt = cur.CreatedAt
	next.Version = cur.Version + 1
	r.items[a.ID] = &next
	a.Version = next.Version
	return true, nil
}

func (r *MemoryRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	scope, err := db.CurrentScope(ctx)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[id]
	if !ok || cur.Deleted || !scope.Allows(cur.TenantID) {
		return false, nil
	}
	cur.Deleted = true
	cur.UpdatedAt = time.Now().UTC()
	cur.Version++
	return true, nil
}
