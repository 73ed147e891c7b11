// Package replication mirrors uploaded blobs to object storage in the background.
//
// Intake enqueues a Job on a Redis stream; a Worker copies the local blob to
// the bucket and records the outcome on the upload. Failed copies are parked in
// a sorted set keyed by due time and re-enqueued with backoff until the attempt
// budget is spent.
package replication

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/filedesk/filedesk/internal/model"
)

const (
	// StreamKey is the Redis stream for replication jobs.
	StreamKey = "stream:replication"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:replication:dlq"

	// RetryKey is the sorted set of jobs waiting for their next attempt,
	// scored by due time in Unix milliseconds.
	RetryKey = "replication:retry"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 2 * time.Second
)

// Job is the stream payload for one replication attempt.
type Job struct {
	UploadID string `json:"uid"`
	Key      string `json:"k"`
	Attempt  int    `json:"a"` // attempts already made
}

// JobFor builds the first job for an upload.
func JobFor(u *model.Upload) Job {
	return Job{UploadID: u.ID, Key: u.StorageKey, Attempt: u.ReplicationAttempts}
}

// Publisher enqueues replication jobs to the Redis stream.
type Publisher struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewPublisher creates a new replication job publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		redis:  client,
		logger: logger.With("component", "replication.publisher"),
	}
}

// Publish adds a job to the stream and returns its stream id.
func (p *Publisher) Publish(ctx context.Context, job Job) (string, error) {
	return publish(ctx, p.redis, job)
}

// Enqueue schedules replication of u's blob. It waits at most PublishTimeout.
func (p *Publisher) Enqueue(ctx context.Context, u *model.Upload) error {
	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	streamID, err := p.Publish(ctx, JobFor(u))
	if err != nil {
		p.logger.Warn("failed to enqueue replication",
			"upload_id", u.ID,
			"error", err,
		)
		return err
	}

	p.logger.Debug("replication enqueued",
		"upload_id", u.ID,
		"stream_id", streamID,
	)
	return nil
}

func publish(ctx context.Context, client redis.Cmdable, job Job) (string, error) {
	data, err := marshalJob(job)
	if err != nil {
		return "", err
	}

	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": data,
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// parseJob decodes and validates a stream payload.
func parseJob(payload string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return Job{}, fmt.Errorf("unmarshal job: %w", err)
	}
	if job.UploadID == "" {
		return Job{}, fmt.Errorf("job has no upload id")
	}
	if job.Key == "" {
		return Job{}, fmt.Errorf("job has no key")
	}
	if job.Attempt < 0 {
		return Job{}, fmt.Errorf("job has negative attempt %d", job.Attempt)
	}
	return job, nil
}

func marshalJob(job Job) (string, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}
	return string(data), nil
}
