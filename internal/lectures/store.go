package lectures

import (
	"context"

	"github.com/google/uuid"

	"github.com/lecturenotes/backend/internal/models"
)

// Notification events published after lecture mutations.
const (
	EventCreated = "lecture_created"
	EventUpdated = "lecture_updated"
	EventDeleted = "lecture_deleted"
)

// AnnotationStore persists the annotation columns. Every update returns the
// lecture as stored after the write, or a NotFound error.
type AnnotationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lecture, error)
	UpdateTranscript(ctx context.Context, id uuid.UUID, transcript *string) (*models.Lecture, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes *string) (*models.Lecture, error)
	UpdateSummary(ctx context.Context, id uuid.UUID, summary *string) (*models.Lecture, error)
}

// Store is the full lecture persistence boundary.
type Store interface {
	AnnotationStore
	Create(ctx context.Context, l *models.Lecture) error
	ListByUnit(ctx context.Context, unitID uuid.UUID) ([]models.Lecture, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Lecture, error)
	UpdateAudioURL(ctx context.Context, id uuid.UUID, audioURL *string) (*models.Lecture, error)
}

// Notifier tells connected clients that a lecture changed so they can
// refetch it.
type Notifier interface {
	NotifyLecture(event string, l *models.Lecture, fields ...string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// NotifyLecture implements Notifier.
func (NopNotifier) NotifyLecture(string, *models.Lecture, ...string) {}

// UnitLookup checks that a parent unit exists before a lecture is created.
type UnitLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
