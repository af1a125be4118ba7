package repository

import (
	"context"
	"time"

	"society-shield/backend/internal/session/domain"
)

// Repository defines persistence for root sessions. Methods must run inside a unit of work.
type Repository interface {
	Create(ctx context.Context, s *domain.RootSession) error
	// GetByTokenHash returns the session and locks it for the rest of the unit, or nil if not found.
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RootSession, error)
	// Consume marks the session used. Returns false if it was already consumed.
	Consume(ctx context.Context, id string, at time.Time) (bool, error)
	// ConsumeAllForAccount marks every open session of the account used and returns how many.
	ConsumeAllForAccount(ctx context.Context, rootAccountID string, at time.Time) (int64, error)
}
