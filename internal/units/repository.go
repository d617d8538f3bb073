package units

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lecturenotes/backend/internal/models"
	"github.com/lecturenotes/backend/pkg/apperr"
)

// Store is the unit persistence boundary used by the handler.
type Store interface {
	Create(ctx context.Context, u *models.Unit) error
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Unit, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Repository handles unit persistence.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

// NewRepository creates a units repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a unit.
func (r *Repository) Create(ctx context.Context, u *models.Unit) error {
	const q = `INSERT INTO units (name, description, course_id) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, q, u.Name, u.Description, u.CourseID).Scan(&u.ID, &u.CreatedAt); err != nil {
		return apperr.Storage("failed to create unit", err)
	}
	return nil
}

// ListByCourse returns a course's units in creation order.
func (r *Repository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Unit, error) {
	const q = `SELECT id, name, description, course_id, created_at FROM units WHERE course_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, q, courseID)
	if err != nil {
		return nil, apperr.Storage("failed to list units", err)
	}
	defer rows.Close()
	list := []models.Unit{}
	for rows.Next() {
		var u models.Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.Description, &u.CourseID, &u.CreatedAt); err != nil {
			return nil, apperr.Storage("failed to list units", err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("failed to list units", err)
	}
	return list, nil
}

// Delete removes a unit. Its lectures are left in place.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM units WHERE id = $1`, id)
	if err != nil {
		return apperr.Storage("failed to delete unit", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("unit not found")
	}
	return nil
}

// Exists reports whether a unit with the ID exists.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM units WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Storage("failed to look up unit", err)
	}
	return true, nil
}
