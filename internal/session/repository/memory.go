package repository

import (
	"context"
	"sync"
	"time"

	"society-shield/backend/internal/db"
	"society-shield/backend/internal/session/domain"
)

// MemoryRepository is an in-memory Repository for tests and local runs.
type MemoryRepository struct {
	mu       sync.Mutex
	sessions map[string]*domain.RootSession
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]*domain.RootSession)}
}

func (r *MemoryRepository) Create(ctx context.Context, s *domain.RootSession) error {
	if _, err := db.CurrentScope(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.TokenHash == s.TokenHash {
			return db.ErrUniqueViolation
		}
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RootSession, error) {
	if _, err := db.CurrentScope(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.TokenHash == tokenHash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Consume(ctx context.Context, id string, at time.Time) (bool, error) {
	if _, err := db.CurrentScope(ctx); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.ConsumedAt != nil {
		return false, nil
	}
	t := at
	s.ConsumedAt = &t
	return true, nil
}

func (r *MemoryRepository) ConsumeAllForAccount(ctx context.Context, rootAccountID string, at time.Time) (int64, error) {
	if _, err := db.CurrentScope(ctx); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.sessions {
		if s.RootAccountID == rootAccountID && s.ConsumedAt == nil {
			t := at
			s.ConsumedAt = &t
			n++
		}
	}
	return n, nil
}

// Open returns the number of unconsumed sessions for the account.
func (r *MemoryRepository) Open(rootAccountID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s.RootAccountID == rootAccountID && s.ConsumedAt == nil {
			n++
		}
	}
	return n
}
