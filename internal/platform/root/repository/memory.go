package repository

import (
	"context"
	"sync"

	"society-shield/backend/internal/db"
	"society-shield/backend/internal/platform/root/domain"
)

// MemoryRepository is an in-memory Repository for tests and local runs.
type MemoryRepository struct {
	mu       sync.Mutex
	accounts map[string]*domain.RootAccount
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]*domain.RootAccount)}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.RootAccount, error) {
	if _, err := db.CurrentScope(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		return copyAccount(a), nil
	}
	return nil, nil
}

func (r *MemoryRepository) GetByLoginID(ctx context.Context, loginID string) (*domain.RootAccount, error) {
	if _, err := db.CurrentScope(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.LoginID == loginID {
			return copyAccount(a), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Create(ctx context.Context, a *domain.RootAccount) error {
	if _, err := db.CurrentScope(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.LoginID == a.LoginID {
			return db.ErrUniqueViolation
		}
	}
	r.accounts[a.ID] = copyAccount(a)
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, a *domain.RootAccount) error {
	if _, err := db.CurrentScope(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.accounts[a.ID]
	if !ok {
		return ErrNotFound
	}
	cp := copyAccount(a)
	cp.LoginID = existing.LoginID
	cp.CreatedAt = existing.CreatedAt
	r.accounts[a.ID] = cp
	return nil
}

// Count returns the number of stored accounts.
func (r *MemoryRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

func copyAccount(a *domain.RootAccount) *domain.RootAccount {
	cp := *a
	if a.LockedUntil != nil {
		t := *a.LockedUntil
		cp.LockedUntil = &t
	}
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		cp.LastLoginAt = &t
	}
	if a.PasswordChangedAt != nil {
		t := *a.PasswordChangedAt
		cp.PasswordChangedAt = &t
	}
	return &cp
}
