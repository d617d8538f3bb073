package transcription

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lecturenotes/backend/internal/models"
	"github.com/lecturenotes/backend/pkg/apperr"
)

var errEmptyTranscript = errors.New("transcriber produced no text")

// LectureReader loads lectures.
type LectureReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lecture, error)
}

// TranscriptWriter persists a transcript onto a lecture.
type TranscriptWriter interface {
	SetTranscript(ctx context.Context, id uuid.UUID, transcript *string) (*models.Lecture, error)
}

// AudioLocator resolves an audio reference to a local file path. cleanup
// releases any temporary copy.
type AudioLocator interface {
	Localize(ctx context.Context, ref string) (path string, cleanup func(), err error)
}

// Service runs transcription for a lecture and saves the result.
type Service struct {
	lectures LectureReader
	writer   TranscriptWriter
	audio    AudioLocator
	backend  Backend
	logger   *zap.Logger
}

// NewService creates the transcription service.
func NewService(lectures LectureReader, writer TranscriptWriter, audio AudioLocator, backend Backend, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{lectures: lectures, writer: writer, audio: audio, backend: backend, logger: logger}
}

// Transcribe transcribes the lecture's current audio and stores the trimmed
// text as its transcript. The backend runs detached from ctx cancellation,
// with no timeout and no retry. Blank output is an external failure and
// leaves the stored transcript alone. Two concurrent calls for one lecture both
// run; the later write wins.
func (s *Service) Transcribe(ctx context.Context, lectureID uuid.UUID) (string, error) {
	l, err := s.lectures.GetByID(ctx, lectureID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return "", apperr.NotFound("audio not found for this lecture")
		}
		return "", err
	}
	if !l.HasAudio() {
		return "", apperr.NotFound("audio not found for this lecture")
	}

	runCtx := context.WithoutCancel(ctx)
	path, cleanup, err := s.audio.Localize(runCtx, *l.AudioURL)
	if err != nil {
		s.logger.Error("resolve audio failed", zap.Error(err), zap.String("lecture_id", lectureID.String()))
		return "", apperr.Storage("failed to read audio", err)
	}
	defer cleanup()

	start := time.Now()
	s.logger.Info("transcription started", zap.String("lecture_id", lectureID.String()), zap.String("audio_url", *l.AudioURL))
	out, err := s.backend.Transcribe(runCtx, path)
	if err != nil {
		s.logger.Error("transcription failed", zap.Error(err), zap.String("lecture_id", lectureID.String()), zap.Duration("elapsed", time.Since(start)))
		return "", apperr.External("failed to transcribe audio", err)
	}
	transcript := strings.TrimSpace(out)
	if transcript == "" {
		s.logger.Error("transcription returned no text", zap.String("lecture_id", lectureID.String()))
		return "", apperr.External("failed to transcribe audio", errEmptyTranscript)
	}

	if _, err := s.writer.SetTranscript(runCtx, lectureID, &transcript); err != nil {
		s.logger.Error("save transcript failed", zap.Error(err), zap.String("lecture_id", lectureID.String()))
		return "", err
	}
	s.logger.Info("transcription finished", zap.String("lecture_id", lectureID.String()), zap.Int("chars", len(transcript)), zap.Duration("elapsed", time.Since(start)))
	return transcript, nil
}
