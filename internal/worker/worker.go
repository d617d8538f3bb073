// Package worker retries audio deletions that failed inline.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/lecturenotes/backend/pkg/queue"
)

// JobSource hands out cleanup jobs and takes back failed ones.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// AudioDeleter removes stored audio by reference.
type AudioDeleter interface {
	Delete(ctx context.Context, ref string) error
}

// CleanupProcessor deletes audio objects whose lecture no longer points at them.
type CleanupProcessor struct {
	jobs    JobSource
	audio   AudioDeleter
	backoff time.Duration
	logger  *zap.Logger
}

// NewCleanupProcessor creates a cleanup processor.
func NewCleanupProcessor(jobs JobSource, audio AudioDeleter, logger *zap.Logger) *CleanupProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupProcessor{jobs: jobs, audio: audio, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one audio delete job. A file that is already gone counts
// as deleted.
func (p *CleanupProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeAudioDelete {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.AudioDeletePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.AudioURL == "" {
		return errors.New("audio delete job without audio_url")
	}

	if err := p.audio.Delete(ctx, payload.AudioURL); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.logger.Info("audio already removed", zap.String("audio_url", payload.AudioURL))
			return nil
		}
		return fmt.Errorf("delete audio: %w", err)
	}
	p.logger.Info("orphaned audio deleted", zap.String("lecture_id", payload.LectureID.String()), zap.String("audio_url", payload.AudioURL))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. It returns
// when ctx is done.
func (p *CleanupProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("cleanup worker stopping")
			return
		default:
		}

		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.wait(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.jobs.Retry(context.WithoutCancel(ctx), job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.wait(ctx)
		}
	}
}

func (p *CleanupProcessor) wait(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
