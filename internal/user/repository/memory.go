package repository

import (
	"context"
	"sync"

	"society-shield/backend/internal/db"
	"society-shield/backend/internal/user/domain"
)

// MemoryRepository is an in-memory Repository. It applies the active unit's scope the
// same way the Postgres row policy does.
type MemoryRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]*domain.User)}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	scope, err := db.CurrentScope(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.Deleted || !scope.Allows(u.TenantID) {
		return nil, nil
	}
	return copyUser(u), nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	scope, err := db.CurrentScope(ctx)
	if err != nil {
		return nil, err
	}
	email = domain.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if !u.Deleted && scope.Allows(u.TenantID) && domain.NormalizeEmail(u.Email) == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Create(ctx context.Context, u *domain.User) error {
	scope, err := db.CurrentScope(ctx)
	if err != nil {
		return err
	}
	if !scope.Allows(u.TenantID) {
		return db.ErrRowPolicy
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if domain.NormalizeEmail(existing.Email) == domain.NormalizeEmail(u.Email) {
			return domain.ErrEmailTaken
		}
	}
	r.users[u.ID] = copyUser(u)
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, u *domain.User) (bool, error) {
	scope, err := db.CurrentScope(ctx)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[u.ID]
	if !ok || cur.Deleted || !scope.Allows(cur.TenantID) {
		return false, nil
	}
	if u.TenantID != "" && u.TenantID != cur.TenantID {
		return false, db.ErrRowPolicy
	}
	next := copyUser(u)
	next.TenantID = cur.TenantID
	next.Email = cur.Email
	next.CreatedAt = cur.CreatedAt
	next.Version = cur.Version + 1
	r.users[u.ID] = next
	u.Version = next.Version
	return true, nil
}

func (r *MemoryRepository) Count(ctx context.Context) (int, error) {
	scope, err := db.CurrentScope(ctx)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.users {
		if scope.Allows(u.TenantID) {
			n++
		}
	}
	return n, nil
}

func copyUser(u *domain.User) *domain.User {
	cp := *u
	if u.LockedUntil != nil {
		t := *u.LockedUntil
		cp.LockedUntil = &t
	}
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		cp.LastLoginAt = &t
	}
	return &cp
}
