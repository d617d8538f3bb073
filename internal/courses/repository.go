package courses

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lecturenotes/backend/internal/models"
	"github.com/lecturenotes/backend/pkg/apperr"
)

// Store is the course persistence boundary used by the handler.
type Store interface {
	Create(ctx context.Context, c *models.Course) error
	List(ctx context.Context) ([]models.Course, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Repository handles course persistence.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

// NewRepository creates a courses repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a course.
func (r *Repository) Create(ctx context.Context, c *models.Course) error {
	const q = `INSERT INTO courses (name, description) VALUES ($1, $2) RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, q, c.Name, c.Description).Scan(&c.ID, &c.CreatedAt); err != nil {
		return apperr.Storage("failed to create course", err)
	}
	return nil
}

// List returns all courses, oldest first.
func (r *Repository) List(ctx context.Context) ([]models.Course, error) {
	const q = `SELECT id, name, description, created_at FROM courses ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, apperr.Storage("failed to list courses", err)
	}
	defer rows.Close()
	list := []models.Course{}
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, apperr.Storage("failed to list courses", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("failed to list courses", err)
	}
	return list, nil
}

// Delete removes a course. Its units are left in place.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return apperr.Storage("failed to delete course", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("course not found")
	}
	return nil
}

// Exists reports whether a course with the ID exists.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM courses WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Storage("failed to look up course", err)
	}
	return true, nil
}
