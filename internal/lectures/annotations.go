package lectures

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lecturenotes/backend/internal/models"
)

// Annotations writes notes, transcript and summary onto lectures. Each
// setter is an unconditional upsert: nil or empty clears the field, the only
// check is that the lecture exists, and concurrent writers race with the
// last one winning.
type Annotations struct {
	store  AnnotationStore
	notify Notifier
	logger *zap.Logger
}

// NewAnnotations creates the annotation manager.
func NewAnnotations(store AnnotationStore, notify Notifier, logger *zap.Logger) *Annotations {
	if notify == nil {
		notify = NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Annotations{store: store, notify: notify, logger: logger}
}

// SetNotes stores the lecture's rich-text notes.
func (a *Annotations) SetNotes(ctx context.Context, id uuid.UUID, notes *string) (*models.Lecture, error) {
	l, err := a.store.UpdateNotes(ctx, id, models.NullableText(notes))
	return a.done(l, err, models.LectureFieldNotes)
}

// SetTranscript stores a transcript produced by the transcription service.
func (a *Annotations) SetTranscript(ctx context.Context, id uuid.UUID, transcript *string) (*models.Lecture, error) {
	l, err := a.store.UpdateTranscript(ctx, id, models.NullableText(transcript))
	return a.done(l, err, models.LectureFieldTranscript)
}

// SetSummary stores a previously generated summary.
func (a *Annotations) SetSummary(ctx context.Context, id uuid.UUID, summary *string) (*models.Lecture, error) {
	l, err := a.store.UpdateSummary(ctx, id, models.NullableText(summary))
	return a.done(l, err, models.LectureFieldSummary)
}

// Notes returns the lecture's notes, nil when unset.
func (a *Annotations) Notes(ctx context.Context, id uuid.UUID) (*string, error) {
	l, err := a.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.Notes, nil
}

func (a *Annotations) done(l *models.Lecture, err error, field string) (*models.Lecture, error) {
	if err != nil {
		return nil, err
	}
	a.logger.Debug("lecture annotation saved", zap.String("lecture_id", l.ID.String()), zap.String("field", field))
	a.notify.NotifyLecture(EventUpdated, l, field)
	return l, nil
}
