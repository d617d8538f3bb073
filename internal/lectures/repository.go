package lectures

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lecturenotes/backend/internal/models"
	"github.com/lecturenotes/backend/pkg/apperr"
)

const lectureColumns = `id, name, unit_id, audio_url, transcript, notes, ai_summary, created_at, updated_at`

// Repository handles lecture persistence.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

// NewRepository creates a lectures repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanLecture(row pgx.Row) (*models.Lecture, error) {
	var l models.Lecture
	err := row.Scan(&l.ID, &l.Name, &l.UnitID, &l.AudioURL, &l.Transcript, &l.Notes, &l.AISummary, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("lecture not found")
		}
		return nil, apperr.Storage("failed to read lecture", err)
	}
	return &l, nil
}

// Create inserts a lecture with no audio or annotations and fills in the
// generated columns.
func (r *Repository) Create(ctx context.Context, l *models.Lecture) error {
	const q = `INSERT INTO lectures (name, unit_id) VALUES ($1, $2) RETURNING ` + lectureColumns
	created, err := scanLecture(r.pool.QueryRow(ctx, q, l.Name, l.UnitID))
	if err != nil {
		return err
	}
	*l = *created
	return nil
}

// GetByID returns a lecture by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lecture, error) {
	const q = `SELECT ` + lectureColumns + ` FROM lectures WHERE id = $1`
	return scanLecture(r.pool.QueryRow(ctx, q, id))
}

// ListByUnit returns a unit's lectures in creation order.
func (r *Repository) ListByUnit(ctx context.Context, unitID uuid.UUID) ([]models.Lecture, error) {
	const q = `SELECT ` + lectureColumns + ` FROM lectures WHERE unit_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, q, unitID)
	if err != nil {
		return nil, apperr.Storage("failed to list lectures", err)
	}
	defer rows.Close()
	list := []models.Lecture{}
	for rows.Next() {
		l, err := scanLecture(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("failed to list lectures", err)
	}
	return list, nil
}

// Delete removes a lecture and returns the deleted row. Stored audio is left alone.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (*models.Lecture, error) {
	const q = `DELETE FROM lectures WHERE id = $1 RETURNING ` + lectureColumns
	return scanLecture(r.pool.QueryRow(ctx, q, id))
}

// UpdateAudioURL sets or clears (nil) the audio reference.
func (r *Repository) UpdateAudioURL(ctx context.Context, id uuid.UUID, audioURL *string) (*models.Lecture, error) {
	return r.updateColumn(ctx, `UPDATE lectures SET audio_url = $1, updated_at = NOW() WHERE id = $2 RETURNING `+lectureColumns, id, audioURL)
}

// UpdateTranscript sets or clears the transcript.
func (r *Repository) UpdateTranscript(ctx context.Context, id uuid.UUID, transcript *string) (*models.Lecture, error) {
	return r.updateColumn(ctx, `UPDATE lectures SET transcript = $1, updated_at = NOW() WHERE id = $2 RETURNING `+lectureColumns, id, transcript)
}

// UpdateNotes sets or clears the notes.
func (r *Repository) UpdateNotes(ctx context.Context, id uuid.UUID, notes *string) (*models.Lecture, error) {
	return r.updateColumn(ctx, `UPDATE lectures SET notes = $1, updated_at = NOW() WHERE id = $2 RETURNING `+lectureColumns, id, notes)
}

// UpdateSummary sets or clears the AI summary.
func (r *Repository) UpdateSummary(ctx context.Context, id uuid.UUID, summary *string) (*models.Lecture, error) {
	return r.updateColumn(ctx, `UPDATE lectures SET ai_summary = $1, updated_at = NOW() WHERE id = $2 RETURNING `+lectureColumns, id, summary)
}

func (r *Repository) updateColumn(ctx context.Context, q string, id uuid.UUID, value *string) (*models.Lecture, error) {
	l, err := scanLecture(r.pool.QueryRow(ctx, q, value, id))
	if err != nil && apperr.KindOf(err) == apperr.KindStorage {
		return nil, apperr.Storage("failed to update lecture", errors.Unwrap(err))
	}
	return l, err
}
