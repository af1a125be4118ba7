package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"society-shield/backend/internal/amenity/domain"
	"society-shield/backend/internal/db"
)

const (
	amenityColumns   = `id, tenant_id, name, description, capacity, booking_allowed, created_at, updated_at, version, deleted`
	getAmenitySQL    = `SELECT ` + amenityColumns + ` FROM amenities WHERE id = $1 AND NOT deleted`
	listAmenitySQL   = `SELECT ` + amenityColumns + ` FROM amenities WHERE NOT deleted ORDER BY name, id LIMIT $1 OFFSET $2`
	createAmenitySQL = `INSERT INTO amenities (id, tenant_id, name, description, capacity, booking_allowed,
		created_at, updated_at, version, deleted) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, false)`
	updateAmenitySQL = `UPDATE amenities SET name = $2, description = $3, capacity = $4, booking_allowed = $5,
		updated_at = $6, version = version + 1
		WHERE id = $1 AND NOT deleted
		RETURNING version`
	deleteAmenitySQL = `UPDATE amenities SET deleted = true, updated_at = $2, version = version + 1
		WHERE id = $1 AND NOT deleted`
)

type PostgresRepository struct{}

// NewPostgresRepository returns an amenity repository that runs on the active unit of work.
func NewPostgresRepository() *PostgresRepository {
	return &PostgresRepository{}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Amenity, error) {
	q, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	a, err := scanAmenity(q.QueryRowContext(ctx, getAmenitySQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*domain.Amenity, error) {
	q, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, listAmenitySQL, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Amenity
	for rows.Next() {
		a, err := scanAmenity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create persists a. A tenant_id other than the bound tenant is rejected by the row
// policy and surfaces as db.ErrRowPolicy.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Amenity) error {
	q, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, createAmenitySQL,
		a.ID, a.TenantID, a.Name, a.Description, a.Capacity, a.BookingAllowed, a.CreatedAt, a.UpdatedAt)
	return db.MapError(err)
}

func (r *PostgresRepository) Update(ctx context.Context, a *domain.Amenity) (bool, error) {
	q, err := db.Conn(ctx)
	if err != nil {
		return false, err
	}
	var version int64
	err = q.QueryRowContext(ctx, updateAmenitySQL,
		a.ID, a.Name, a.Description, a.Capacity, a.BookingAllowed, a.UpdatedAt,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, db.MapError(err)
	}
	a.Version = version
	return true, nil
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	q, err := db.Conn(ctx)
	if err != nil {
		return false, err
	}
	res, err := q.ExecContext(ctx, deleteAmenitySQL, id, time.Now().UTC())
	if err != nil {
		return false, db.MapError(err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAmenity(s scanner) (*domain.Amenity, error) {
	var a domain.Amenity
	err := s.Scan(&a.ID, &a.TenantID, &a.Name, &a.Description, &a.Capacity, &a.BookingAllowed,
		&a.CreatedAt, &a.UpdatedAt, &a.Version, &a.Deleted)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
