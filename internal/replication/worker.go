package replication

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/filedesk/filedesk/internal/metrics"
	"github.com/filedesk/filedesk/internal/model"
	"github.com/filedesk/filedesk/internal/repository"
	"github.com/filedesk/filedesk/internal/storage"
)

const (
	// ConsumerGroup is the Redis consumer group name.
	ConsumerGroup = "replication_workers"

	// DefaultBatchSize is the max jobs per read.
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for messages.
	DefaultBlockTimeout = 5 * time.Second

	// DefaultClaimInterval is how often to scan pending messages.
	DefaultClaimInterval = 30 * time.Second

	// DefaultClaimIdle is the idle time before reclaiming pending messages.
	// Uploads can be large, so this is generous.
	DefaultClaimIdle = 5 * time.Minute

	// DefaultPromoteInterval is how often due retries are moved back to the stream.
	DefaultPromoteInterval = 5 * time.Second

	// DefaultMetricsInterval is how often to refresh queue depth metrics.
	DefaultMetricsInterval = 10 * time.Second

	promoteBatch = 100
)

// errPoison marks a job that can never succeed and is dead-lettered.
var errPoison = errors.New("poison job")

// Catalog is the subset of the upload catalog the worker needs.
type Catalog interface {
	GetUpload(ctx context.Context, id string) (*model.Upload, error)
	UpdateReplicationStatus(ctx context.Context, id string, status model.ReplicationStatus, attempts int, lastErr string) error
	ListUploadsByReplicationStatus(ctx context.Context, status model.ReplicationStatus, limit int) ([]*model.Upload, error)
}

// Blobs opens local blobs for copying.
type Blobs interface {
	Open(key string) (*os.File, int64, error)
}

// Remote receives mirrored blobs.
type Remote interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, checksum string) error
}

// Worker copies uploaded blobs to object storage.
type Worker struct {
	redis           *redis.Client
	catalog         Catalog
	blobs           Blobs
	remote          Remote
	logger          *slog.Logger
	metrics         metrics.Recorder
	consumerID      string
	maxAttempts     int
	batchSize       int
	blockTimeout    time.Duration
	claimInterval   time.Duration
	claimIdle       time.Duration
	promoteInterval time.Duration
	metricsInterval time.Duration
	claimStartID    string
	lastClaim       time.Time
	lastPromote     time.Time
	lastMetrics     time.Time
	now             func() time.Time

	started  bool
	draining bool
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// NewWorker creates a new replication worker.
func NewWorker(client *redis.Client, catalog Catalog, blobs Blobs, remote Remote, logger *slog.Logger, consumerID string, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		redis:           client,
		catalog:         catalog,
		blobs:           blobs,
		remote:          remote,
		logger:          logger.With("component", "replication.worker", "consumer_id", consumerID),
		metrics:         recorder,
		consumerID:      consumerID,
		maxAttempts:     DefaultMaxAttempts,
		batchSize:       DefaultBatchSize,
		blockTimeout:    DefaultBlockTimeout,
		claimInterval:   DefaultClaimInterval,
		claimIdle:       DefaultClaimIdle,
		promoteInterval: DefaultPromoteInterval,
		metricsInterval: DefaultMetricsInterval,
		claimStartID:    "0-0",
		now:             time.Now,
	}
}

// SetMaxAttempts overrides the default attempt budget.
func (w *Worker) SetMaxAttempts(n int) {
	if n > 0 {
		w.maxAttempts = n
	}
}

// SetBlockTimeout overrides the default blocking timeout.
func (w *Worker) SetBlockTimeout(timeout time.Duration) {
	if timeout > 0 {
		w.blockTimeout = timeout
	}
}

// SetPromoteInterval overrides how often due retries are re-enqueued.
func (w *Worker) SetPromoteInterval(interval time.Duration) {
	if interval > 0 {
		w.promoteInterval = interval
	}
}

// Run starts the worker loop. Blocks until context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("worker already started")
	}
	w.started = true
	w.done = make(chan struct{})
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	defer close(w.done)

	if err := w.ensureConsumerGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	w.logger.Info("replication worker started", "max_attempts", w.maxAttempts)

	for {
		w.mu.Lock()
		draining := w.draining
		w.mu.Unlock()

		if draining {
			w.logger.Info("replication worker draining, stopping")
			return nil
		}

		select {
		case <-ctx.Done():
			w.logger.Info("replication worker stopping")
			return nil
		default:
			if err := w.processOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.logger.Error("process error", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Shutdown gracefully stops the worker, completing any in-flight copy.
// It implements server.ShutdownFunc for integration with graceful shutdown.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.draining = true
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	w.logger.Info("replication worker shutdown initiated")

	if cancel != nil {
		cancel()
	}

	if done != nil {
		select {
		case <-done:
			w.logger.Info("replication worker shutdown complete")
			return nil
		case <-ctx.Done():
			w.logger.Warn("replication worker shutdown timed out")
			return ctx.Err()
		}
	}
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist.
func (w *Worker) ensureConsumerGroup(ctx context.Context) error {
	err := w.redis.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !isConsumerGroupExistsError(err) {
		return err
	}
	return nil
}

// processOnce promotes due retries, then reads and handles one batch.
func (w *Worker) processOnce(ctx context.Context) error {
	w.maybeUpdateQueueDepth(ctx)

	if err := w.maybePromoteDue(ctx); err != nil {
		w.logger.Warn("failed to promote due retries", "error", err)
	}

	claimed, err := w.maybeClaimPending(ctx)
	if err != nil {
		w.logger.Warn("failed to claim pending messages", "error", err)
	}

	messages := claimed
	if len(messages) == 0 {
		messages, err = w.readBatch(ctx)
		if err != nil {
			return err
		}
	}

	for _, msg := range messages {
		if err := w.handleMessage(ctx, msg); err != nil {
			// Left un-acked; reclaimed after claimIdle.
			w.logger.Warn("replication job deferred",
				"message_id", msg.ID,
				"error", err,
			)
		}
	}

	return nil
}

// handleMessage processes one stream message and acks it unless the outcome
// could not be recorded.
func (w *Worker) handleMessage(ctx context.Context, msg redis.XMessage) error {
	payload, ok := msg.Values["payload"].(string)
	if !ok {
		w.deadLetterMessage(ctx, msg, "invalid_format", "payload field missing or not a string")
		return w.ack(ctx, msg.ID)
	}

	job, err := parseJob(payload)
	if err != nil {
		w.deadLetterMessage(ctx, msg, "validation_error", err.Error())
		return w.ack(ctx, msg.ID)
	}

	retryAt, next, err := w.process(ctx, job)
	switch {
	case errors.Is(err, errPoison):
		w.deadLetterMessage(ctx, msg, "poison", err.Error())
		return w.ack(ctx, msg.ID)
	case err != nil:
		return err
	}

	if !retryAt.IsZero() {
		if err := w.schedule(ctx, next, retryAt); err != nil {
			return err
		}
	}
	return w.ack(ctx, msg.ID)
}

// process performs one replication attempt and records its outcome.
// A non-zero retryAt means next should be attempted again at that time.
// A non-nil error means the outcome was not recorded.
func (w *Worker) process(ctx context.Context, job Job) (retryAt time.Time, next Job, err error) {
	upload, err := w.catalog.GetUpload(ctx, job.UploadID)
	if err != nil {
		if errors.Is(err, repository.ErrUploadNotFound) {
			return time.Time{}, Job{}, fmt.Errorf("%w: upload %s not found", errPoison, job.UploadID)
		}
		return time.Time{}, Job{}, fmt.Errorf("get upload: %w", err)
	}
	if upload.StorageKey != job.Key {
		return time.Time{}, Job{}, fmt.Errorf("%w: key mismatch for upload %s", errPoison, job.UploadID)
	}

	if upload.ReplicationStatus == model.ReplicationReplicated {
		w.metrics.IncReplication(metrics.ReplicationSkipped)
		return time.Time{}, Job{}, nil
	}

	attempts := job.Attempt + 1
	start := w.now()

	copyErr := w.copy(ctx, upload)
	if copyErr == nil {
		if err := w.catalog.UpdateReplicationStatus(ctx, upload.ID, model.ReplicationReplicated, attempts, ""); err != nil {
			return time.Time{}, Job{}, fmt.Errorf("record replicated: %w", err)
		}
		w.logger.Info("upload replicated",
			"upload_id", upload.ID,
			"key", upload.StorageKey,
			"attempt", attempts,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		w.metrics.IncReplication(metrics.ReplicationSucceeded)
		return time.Time{}, Job{}, nil
	}
	if errors.Is(copyErr, context.Canceled) {
		return time.Time{}, Job{}, copyErr
	}

	retryable := !errors.Is(copyErr, storage.ErrObjectNotFound) && storage.IsRetryable(copyErr)
	if !retryable || IsExhausted(attempts, w.maxAttempts) {
		if err := w.catalog.UpdateReplicationStatus(ctx, upload.ID, model.ReplicationFailed, attempts, copyErr.Error()); err != nil {
			return time.Time{}, Job{}, fmt.Errorf("record failed: %w", err)
		}
		w.logger.Error("upload replication failed",
			"upload_id", upload.ID,
			"attempt", attempts,
			"retryable", retryable,
			"error", copyErr,
		)
		w.metrics.IncReplication(metrics.ReplicationFailed)
		return time.Time{}, Job{}, nil
	}

	if err := w.catalog.UpdateReplicationStatus(ctx, upload.ID, model.ReplicationPending, attempts, copyErr.Error()); err != nil {
		return time.Time{}, Job{}, fmt.Errorf("record retry: %w", err)
	}
	delay := NextRetryDelay(attempts - 1)
	w.logger.Warn("upload replication will be retried",
		"upload_id", upload.ID,
		"attempt", attempts,
		"retry_in", delay.String(),
		"error", copyErr,
	)
	w.metrics.IncReplication(metrics.ReplicationRetried)

	next = Job{UploadID: upload.ID, Key: upload.StorageKey, Attempt: attempts}
	return w.now().Add(delay), next, nil
}

// copy streams the local blob to the remote store.
func (w *Worker) copy(ctx context.Context, upload *model.Upload) error {
	f, size, err := w.blobs.Open(upload.StorageKey)
	if err != nil {
		return err
	}
	defer f.Close()

	return w.remote.Put(ctx, upload.StorageKey, f, size, upload.Checksum)
}

// schedule parks job in the retry set until due.
func (w *Worker) schedule(ctx context.Context, job Job, due time.Time) error {
	data, err := marshalJob(job)
	if err != nil {
		return err
	}
	err = w.redis.ZAdd(ctx, RetryKey, redis.Z{
		Score:  float64(due.UnixMilli()),
		Member: data,
	}).Err()
	if err != nil {
		return fmt.Errorf("zadd retry: %w", err)
	}
	return nil
}

// maybePromoteDue moves retries whose due time has passed back onto the stream.
func (w *Worker) maybePromoteDue(ctx context.Context) error {
	if !w.lastPromote.IsZero() && time.Since(w.lastPromote) < w.promoteInterval {
		return nil
	}
	w.lastPromote = time.Now()

	_, err := PromoteDue(ctx, w.redis, w.now())
	return err
}

// PromoteDue re-enqueues every parked retry due at or before now and returns
// how many were moved.
func PromoteDue(ctx context.Context, client *redis.Client, now time.Time) (int, error) {
	members, err := client.ZRangeByScore(ctx, RetryKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: promoteBatch,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("zrangebyscore: %w", err)
	}

	moved := 0
	for _, member := range members {
		// ZREM decides ownership when several workers promote at once.
		removed, err := client.ZRem(ctx, RetryKey, member).Result()
		if err != nil {
			return moved, fmt.Errorf("zrem: %w", err)
		}
		if removed == 0 {
			continue
		}

		job, err := parseJob(member)
		if err != nil {
			continue
		}
		if _, err := publish(ctx, client, job); err != nil {
			client.ZAdd(ctx, RetryKey, redis.Z{Score: float64(now.UnixMilli()), Member: member})
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// maybeClaimPending checks for stuck pending messages and reclaims them.
func (w *Worker) maybeClaimPending(ctx context.Context) ([]redis.XMessage, error) {
	if w.claimInterval <= 0 || w.claimIdle <= 0 {
		return nil, nil
	}
	if !w.lastClaim.IsZero() && time.Since(w.lastClaim) < w.claimInterval {
		return nil, nil
	}

	w.lastClaim = time.Now()
	messages, start, err := w.redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		MinIdle:  w.claimIdle,
		Start:    w.claimStartID,
		Count:    int64(w.batchSize),
	}).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}
	if start != "" {
		w.claimStartID = start
	}
	return messages, nil
}

func (w *Worker) maybeUpdateQueueDepth(ctx context.Context) {
	if w.metricsInterval <= 0 {
		return
	}
	if !w.lastMetrics.IsZero() && time.Since(w.lastMetrics) < w.metricsInterval {
		return
	}
	w.lastMetrics = time.Now()

	var depth int64
	groups, err := w.redis.XInfoGroups(ctx, StreamKey).Result()
	if err != nil && err != redis.Nil {
		w.logger.Warn("failed to read stream group info", "error", err)
		return
	}
	for _, group := range groups {
		if group.Name == ConsumerGroup {
			depth += group.Pending + group.Lag
		}
	}

	parked, err := w.redis.ZCard(ctx, RetryKey).Result()
	if err != nil {
		w.logger.Warn("failed to read retry set size", "error", err)
		return
	}
	w.metrics.SetReplicationQueueDepth(depth + parked)
}

// readBatch reads messages from the stream using XREADGROUP.
func (w *Worker) readBatch(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := w.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		Streams:  []string{StreamKey, ">"},
		Count:    int64(w.batchSize),
		Block:    w.blockTimeout,
	}).Result()

	if err == redis.Nil || len(streams) == 0 {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	return streams[0].Messages, nil
}

// deadLetterMessage moves a poison message to the dead-letter queue.
func (w *Worker) deadLetterMessage(ctx context.Context, msg redis.XMessage, reason, detail string) {
	w.logger.Warn("dead-lettering poison message",
		"message_id", msg.ID,
		"reason", reason,
		"detail", detail,
	)

	_, err := w.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStreamKey,
		MaxLen: 10000,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"original_id":      msg.ID,
			"reason":           reason,
			"detail":           detail,
			"payload":          msg.Values["payload"],
			"dead_lettered_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Result()
	if err != nil {
		w.logger.Error("failed to write to dead-letter queue",
			"message_id", msg.ID,
			"error", err,
		)
	}
}

func (w *Worker) ack(ctx context.Context, id string) error {
	if err := w.redis.XAck(ctx, StreamKey, ConsumerGroup, id).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

// isConsumerGroupExistsError checks if the error is "BUSYGROUP" (group exists).
func isConsumerGroupExistsError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
