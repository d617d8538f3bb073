// Package media ingests lecture audio and manages the stored reference.
package media

import (
	"context"
	"errors"
	"io"
	"io/fs"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lecturenotes/backend/internal/lectures"
	"github.com/lecturenotes/backend/internal/models"
	"github.com/lecturenotes/backend/pkg/apperr"
	"github.com/lecturenotes/backend/pkg/queue"
	"github.com/lecturenotes/backend/pkg/storage"
)

// LectureStore is the subset of lecture persistence the service needs.
type LectureStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lecture, error)
	UpdateAudioURL(ctx context.Context, id uuid.UUID, audioURL *string) (*models.Lecture, error)
}

// AudioStore holds audio bytes behind opaque references.
type AudioStore interface {
	Put(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, ref string) error
	Open(ctx context.Context, ref string) (io.ReadCloser, string, error)
}

// Presigner is implemented by stores that can hand out direct download URLs.
type Presigner interface {
	PresignedURL(ctx context.Context, ref string) (string, error)
}

// CleanupQueue accepts deletions that failed inline.
type CleanupQueue interface {
	EnqueueAudioDelete(ctx context.Context, payload queue.AudioDeletePayload) error
}

// Upload is one uploaded audio payload.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service uploads, serves and deletes lecture audio. Concurrent uploads for
// the same lecture race on the final reference update; the last one wins and
// the other file stays in storage.
type Service struct {
	lectures LectureStore
	audio    AudioStore
	namer    *storage.Namer
	cleanup  CleanupQueue
	notify   lectures.Notifier
	logger   *zap.Logger
}

// NewService creates the media service.
func NewService(store LectureStore, audio AudioStore, notify lectures.Notifier, logger *zap.Logger) *Service {
	if notify == nil {
		notify = lectures.NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		lectures: store,
		audio:    audio,
		namer:    storage.NewNamer(),
		notify:   notify,
		logger:   logger,
	}
}

// SetCleanupQueue enables retrying failed deletions in the background.
func (s *Service) SetCleanupQueue(q CleanupQueue) {
	s.cleanup = q
}

// Upload stores the audio and points the lecture at it. The previous file,
// if any, is left in storage.
func (s *Service) Upload(ctx context.Context, lectureID uuid.UUID, up Upload) (string, error) {
	if up.Body == nil || up.Size <= 0 {
		return "", apperr.Validation("no audio file uploaded")
	}
	if _, err := s.lectures.GetByID(ctx, lectureID); err != nil {
		return "", err
	}

	name := s.namer.Name(up.Filename)
	contentType := up.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storage.ContentTypeForFilename(name)
	}
	ref, err := s.audio.Put(ctx, name, contentType, up.Body, up.Size)
	if err != nil {
		s.logger.Error("store audio failed", zap.Error(err), zap.String("lecture_id", lectureID.String()), zap.String("name", name))
		return "", apperr.Storage("failed to store audio", err)
	}

	l, err := s.lectures.UpdateAudioURL(ctx, lectureID, &ref)
	if err != nil {
		s.logger.Error("update audio reference failed", zap.Error(err), zap.String("lecture_id", lectureID.String()))
		if derr := s.audio.Delete(context.WithoutCancel(ctx), ref); derr != nil {
			s.logger.Warn("remove unreferenced audio failed", zap.Error(derr), zap.String("audio_url", ref))
		}
		if apperr.KindOf(err) == apperr.KindUnknown {
			err = apperr.Storage("failed to save audio reference", err)
		}
		return "", err
	}

	s.logger.Info("audio uploaded", zap.String("lecture_id", lectureID.String()), zap.String("audio_url", ref), zap.Int64("size", up.Size))
	s.notify.NotifyLecture(lectures.EventUpdated, l, models.LectureFieldAudio)
	return ref, nil
}

// DeleteAudio removes the lecture's audio. Removing the file is best effort;
// the reference is cleared even if it fails.
func (s *Service) DeleteAudio(ctx context.Context, lectureID uuid.UUID) error {
	l, err := s.lectureWithAudio(ctx, lectureID)
	if err != nil {
		return err
	}
	ref := *l.AudioURL

	if err := s.audio.Delete(ctx, ref); err != nil {
		s.logger.Warn("delete audio file failed", zap.Error(err), zap.String("lecture_id", lectureID.String()), zap.String("audio_url", ref))
		s.enqueueCleanup(ctx, lectureID, ref)
	}

	updated, err := s.lectures.UpdateAudioURL(ctx, lectureID, nil)
	if err != nil {
		s.logger.Error("clear audio reference failed", zap.Error(err), zap.String("lecture_id", lectureID.String()))
		return err
	}
	s.logger.Info("audio deleted", zap.String("lecture_id", lectureID.String()))
	s.notify.NotifyLecture(lectures.EventUpdated, updated, models.LectureFieldAudio)
	return nil
}

// Open streams the lecture's stored audio. The caller closes the reader.
func (s *Service) Open(ctx context.Context, lectureID uuid.UUID) (io.ReadCloser, string, error) {
	l, err := s.lectureWithAudio(ctx, lectureID)
	if err != nil {
		return nil, "", err
	}
	rc, contentType, err := s.audio.Open(ctx, *l.AudioURL)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", apperr.NotFound("audio not found")
		}
		return nil, "", apperr.Storage("failed to read audio", err)
	}
	return rc, contentType, nil
}

// PresignedURL returns a direct download URL when the store supports it,
// or "" when audio must be streamed through Open.
func (s *Service) PresignedURL(ctx context.Context, lectureID uuid.UUID) (string, error) {
	p, ok := s.audio.(Presigner)
	if !ok {
		return "", nil
	}
	l, err := s.lectureWithAudio(ctx, lectureID)
	if err != nil {
		return "", err
	}
	url, err := p.PresignedURL(ctx, *l.AudioURL)
	if err != nil {
		return "", apperr.Storage("failed to sign audio url", err)
	}
	return url, nil
}

func (s *Service) lectureWithAudio(ctx context.Context, lectureID uuid.UUID) (*models.Lecture, error) {
	l, err := s.lectures.GetByID(ctx, lectureID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("audio not found")
		}
		return nil, err
	}
	if !l.HasAudio() {
		return nil, apperr.NotFound("audio not found")
	}
	return l, nil
}

func (s *Service) enqueueCleanup(ctx context.Context, lectureID uuid.UUID, ref string) {
	if s.cleanup == nil {
		return
	}
	payload := queue.AudioDeletePayload{LectureID: lectureID, AudioURL: ref}
	if err := s.cleanup.EnqueueAudioDelete(context.WithoutCancel(ctx), payload); err != nil {
		s.logger.Error("enqueue audio cleanup failed", zap.Error(err), zap.String("audio_url", ref))
	}
}
