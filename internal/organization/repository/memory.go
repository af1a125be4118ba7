package repository

import (
	"context"
	"strings"
	"sync"

	"society-shield/backend/internal/db"
	"society-shield/backend/internal/organization/domain"
)

// MemoryRepository is an in-memory Repository for tests and local runs.
type MemoryRepository struct {
	mu      sync.Mutex
	tenants map[string]*domain.Tenant
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tenants: make(map[string]*domain.Tenant)}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	if _, err := db.CurrentScope(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok || t.Deleted {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryRepository) Create(ctx context.Context, t *domain.Tenant) error {
	if _, err := db.CurrentScope(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tenants {
		if strings.EqualFold(existing.Name, t.Name) {
			return domain.ErrNameTaken
		}
	}
	cp := *t
	r.tenants[t.ID] = &cp
	return nil
}

func (r *MemoryRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	if _, err := db.CurrentScope(ctx); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tenants {
		if strings.EqualFold(t.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) Count(ctx context.Context) (int, error) {
	if _, err := db.CurrentScope(ctx); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tenants), nil
}
