// Package service implements amenity management for the caller's society. Every
// operation runs in a unit of work scoped to the tenant bound to the request.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"society-shield/backend/internal/amenity/domain"
	"society-shield/backend/internal/amenity/repository"
	"society-shield/backend/internal/audit"
	"society-shield/backend/internal/db"
	"society-shield/backend/internal/platform/rbac"
	"society-shield/backend/internal/policy/engine"
	"society-shield/backend/internal/principal"
	"society-shield/backend/internal/tenant"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Input carries the writable fields of an amenity.
type Input struct {
	Name           string
	Description    string
	Capacity       int
	BookingAllowed bool
}

// Service manages amenities.
type Service struct {
	uow    db.UnitOfWork
	repo   repository.Repository
	policy engine.Evaluator
	audit  audit.AuditLogger
	now    func() time.Time
}

// NewService returns an amenity Service. A nil policy falls back to the static rules.
func NewService(uow db.UnitOfWork, repo repository.Repository, policy engine.Evaluator, auditLogger audit.AuditLogger) *Service {
	if policy == nil {
		policy = engine.StaticEvaluator{}
	}
	if auditLogger == nil {
		auditLogger = audit.NopLogger{}
	}
	return &Service{
		uow:    uow,
		repo:   repo,
		policy: policy,
		audit:  auditLogger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List returns a page of the society's amenities. Any tenant user may list.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.Amenity, error) {
	if _, err := principal.RequireUser(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	var out []*domain.Amenity
	err := s.uow.WithinTenant(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.List(ctx, limit, offset)
		return err
	})
	return out, err
}

// Get returns one amenity, or domain.ErrNotFound if it is absent or belongs to another society.
func (s *Service) Get(ctx context.Context, id string) (*domain.Amenity, error) {
	if _, err := principal.RequireUser(ctx); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	var a *domain.Amenity
	err := s.uow.WithinTenant(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

// Create adds an amenity to the caller's society. Requires a tenant writer.
func (s *Service) Create(ctx context.Context, in Input) (*domain.Amenity, error) {
	p, err := rbac.RequireTenantWriter(ctx, s.policy)
	if err != nil {
		return nil, err
	}
	tenantID, err := tenant.RequiredTenantID(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	a := &domain.Amenity{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		Name:           in.Name,
		Description:    in.Description,
		Capacity:       in.Capacity,
		BookingAllowed: in.BookingAllowed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	err = s.uow.WithinTenant(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, tenantID, p.UserID, audit.ActionAmenityCreated, audit.EntityAmenity, a.ID,
		map[string]any{"name": a.Name})
	return a, nil
}

// Update replaces the writable fields of an amenity. Requires a tenant writer.
func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.Amenity, error) {
	p, err := rbac.RequireTenantWriter(ctx, s.policy)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	var a *domain.Amenity
	err = s.uow.WithinTenant(ctx, func(ctx context.Context) error {
		cur, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.ErrNotFound
		}
		cur.Name = in.Name
		cur.Description = in.Description
		cur.Capacity = in.Capacity
		cur.BookingAllowed = in.BookingAllowed
		cur.UpdatedAt = s.now()
		if err := cur.Validate(); err != nil {
			return err
		}
		ok, err := s.repo.Update(ctx, cur)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound
		}
		a = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, a.TenantID, p.UserID, audit.ActionAmenityUpdated, audit.EntityAmenity, a.ID,
		map[string]any{"name": a.Name, "version": a.Version})
	return a, nil
}

// Delete soft-deletes an amenity. Requires a tenant writer.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := rbac.RequireTenantWriter(ctx, s.policy)
	if err != nil {
		return err
	}
	if !validID(id) {
		return domain.ErrNotFound
	}
	err = s.uow.WithinTenant(ctx, func(ctx context.Context) error {
		ok, err := s.repo.SoftDelete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.audit.LogEvent(ctx, p.TenantID, p.UserID, audit.ActionAmenityDeleted, audit.EntityAmenity, id, nil)
	return nil
}

// validID reports whether id can name a stored amenity; ids are UUIDs.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
