package replication

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/filedesk/filedesk/internal/model"
)

// Enqueuer publishes replication jobs. *Publisher satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, u *model.Upload) error
}

// Requeue publishes a fresh job for up to limit uploads in status, oldest
// first. Failed uploads get their attempt budget reset. It returns the number
// of uploads enqueued.
func Requeue(ctx context.Context, catalog Catalog, enqueuer Enqueuer, status model.ReplicationStatus, limit int) (int, error) {
	switch status {
	case model.ReplicationFailed, model.ReplicationPending:
	default:
		return 0, fmt.Errorf("cannot requeue uploads in status %q", status)
	}

	uploads, err := catalog.ListUploadsByReplicationStatus(ctx, status, limit)
	if err != nil {
		return 0, fmt.Errorf("list %s uploads: %w", status, err)
	}

	enqueued := 0
	for _, u := range uploads {
		if status == model.ReplicationFailed {
			if err := catalog.UpdateReplicationStatus(ctx, u.ID, model.ReplicationPending, 0, ""); err != nil {
				return enqueued, fmt.Errorf("reset upload %s: %w", u.ID, err)
			}
			u.ReplicationStatus = model.ReplicationPending
			u.ReplicationAttempts = 0
			u.ReplicationError = ""
		}
		if err := enqueuer.Enqueue(ctx, u); err != nil {
			return enqueued, fmt.Errorf("enqueue upload %s: %w", u.ID, err)
		}
		enqueued++
	}
	return enqueued, nil
}

// NewConsumerID creates a stable-ish consumer ID for Redis consumer groups.
func NewConsumerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d-%d", host, os.Getpid(), time.Now().UnixNano())
}
