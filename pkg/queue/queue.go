package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueAudioCleanup is the Redis list key for orphaned audio deletions.
	QueueAudioCleanup = "lecturenotes:audio_cleanup"
	// QueueDLQ is the dead-letter list for jobs that exhausted their retries.
	QueueDLQ = "lecturenotes:dlq"
	// MaxRetries is the number of attempts before a job moves to the DLQ.
	MaxRetries = 5
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
	// dequeueTimeout bounds BLPOP so the worker loop can observe ctx.
	dequeueTimeout = 5 * time.Second
)

// JobType identifies the job kind.
type JobType string

// JobTypeAudioDelete removes an audio object whose reference was already
// cleared from its lecture.
const JobTypeAudioDelete JobType = "audio_delete"

// AudioDeletePayload is the payload for audio delete jobs.
type AudioDeletePayload struct {
	LectureID uuid.UUID `json:"lecture_id"`
	AudioURL  string    `json:"audio_url"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Queue enqueues and dequeues jobs via a Redis list.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// NewAudioDeleteJob builds the envelope for an audio delete job.
func NewAudioDeleteJob(payload AudioDeletePayload) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      JobTypeAudioDelete,
		Payload:   body,
		CreatedAt: time.Now(),
	}, nil
}

// EnqueueAudioDelete enqueues an audio delete job.
func (q *Queue) EnqueueAudioDelete(ctx context.Context, payload AudioDeletePayload) error {
	job, err := NewAudioDeleteJob(payload)
	if err != nil {
		return err
	}
	if err := q.push(ctx, QueueAudioCleanup, job); err != nil {
		return err
	}
	q.logger.Debug("enqueued audio delete job", zap.String("job_id", job.ID), zap.String("lecture_id", payload.LectureID.String()))
	return nil
}

// Dequeue waits briefly for a job. It returns (nil, nil) when none arrived
// or the payload could not be decoded.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, dequeueTimeout, QueueAudioCleanup).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt, or moves it to the DLQ
// once MaxRetries is reached.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	if job.Attempt >= MaxRetries {
		if err := q.push(ctx, QueueDLQ, job); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.push(ctx, QueueAudioCleanup, job); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

func (q *Queue) push(ctx context.Context, key string, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}
	return nil
}
