package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/filedesk/filedesk/internal/cache"
	"github.com/filedesk/filedesk/internal/model"
	"github.com/filedesk/filedesk/internal/replication"
)

func newReplicateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replicate",
		Short: "Inspect and repair remote replication",
	}
	cmd.AddCommand(newReplicateRetryCmd())
	return cmd
}

func newReplicateRetryCmd() *cobra.Command {
	var (
		includePending bool
		limit          int
	)

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Re-enqueue uploads whose replication failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			a, err := loadApp()
			if err != nil {
				return err
			}
			if !a.cfg.ReplicationEnabled() {
				return errors.New("replication is disabled; set S3_BUCKET")
			}
			return a.retryReplication(cmd.Context(), includePending, limit)
		},
	}
	cmd.Flags().BoolVar(&includePending, "include-pending", false, "also re-enqueue uploads still marked pending")
	cmd.Flags().IntVar(&limit, "limit", 500, "maximum uploads to re-enqueue per status")
	return cmd
}

func (a *app) retryReplication(ctx context.Context, includePending bool, limit int) error {
	catalog, closeCatalog, err := a.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer closeCatalog()

	redisCache, err := cache.New(ctx, a.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %s", sanitizeError(err, a.cfg.RedisURL))
	}
	defer redisCache.Close()

	publisher := replication.NewPublisher(redisCache.Client(), a.logger)

	statuses := []model.ReplicationStatus{model.ReplicationFailed}
	if includePending {
		statuses = append(statuses, model.ReplicationPending)
	}

	for _, status := range statuses {
		n, err := replication.Requeue(ctx, catalog, publisher, status, limit)
		if err != nil {
			return fmt.Errorf("requeue %s uploads: %w", status, err)
		}
		a.logger.Info("uploads re-enqueued", slog.String("status", string(status)), slog.Int("count", n))
	}
	return nil
}
