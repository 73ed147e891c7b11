package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/filedesk/filedesk/internal/cache"
	"github.com/filedesk/filedesk/internal/filename"
	"github.com/filedesk/filedesk/internal/handler"
	"github.com/filedesk/filedesk/internal/metrics"
	"github.com/filedesk/filedesk/internal/middleware"
	"github.com/filedesk/filedesk/internal/replication"
	"github.com/filedesk/filedesk/internal/server"
	"github.com/filedesk/filedesk/internal/service"
	"github.com/filedesk/filedesk/internal/session"
	"github.com/filedesk/filedesk/internal/storage"
	"github.com/filedesk/filedesk/internal/web"
)

func newServeCmd() *cobra.Command {
	var noWorker bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web app",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			return a.serve(cmd.Context(), !noWorker)
		},
	}
	cmd.Flags().BoolVar(&noWorker, "no-worker", false, "do not run the replication worker in this process")
	return cmd
}

func (a *app) serve(ctx context.Context, runWorker bool) error {
	cfg, logger := a.cfg, a.logger
	logger.Info("starting filedesk",
		slog.String("env", cfg.AppEnv),
		slog.Int("port", cfg.AppPort),
		slog.String("catalog", cfg.CatalogBackend),
		slog.Bool("auth_required", cfg.AuthRequired),
	)

	catalog, closeCatalog, err := a.openCatalog(ctx)
	if err != nil {
		return err
	}

	redisCache, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		closeCatalog()
		logger.Error("failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return fmt.Errorf("connect to redis: %s", sanitizeError(err, cfg.RedisURL))
	}

	blobs, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		closeCatalog()
		_ = redisCache.Close()
		return fmt.Errorf("open upload directory: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheus(reg)

	health := []handler.HealthCheck{
		{Name: "catalog", Checker: catalog},
		{Name: "redis", Checker: redisCache},
	}

	var (
		replicator service.Replicator
		worker     *replication.Worker
	)
	if cfg.ReplicationEnabled() {
		remote, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		}, logger)
		if err != nil {
			closeCatalog()
			_ = redisCache.Close()
			return fmt.Errorf("configure object storage: %w", err)
		}
		health = append(health, handler.HealthCheck{Name: "object_storage", Checker: remote})
		replicator = replication.NewPublisher(redisCache.Client(), logger)

		if runWorker {
			worker = replication.NewWorker(redisCache.Client(), catalog, blobs, remote, logger, replication.NewConsumerID(), recorder)
			worker.SetMaxAttempts(cfg.ReplicationMaxAttempts)
		}
	} else {
		logger.Info("remote replication disabled; set S3_BUCKET to enable it")
	}

	intake := service.NewIntakeService(
		catalog,
		catalog,
		blobs,
		replicator,
		filename.NewAllowList(cfg.Extensions()),
		cfg.MaxUploadSize,
		logger,
		recorder,
	)
	accounts := service.NewAccountService(catalog, logger, recorder)

	opts := handler.Options{
		AuthRequired: cfg.AuthRequired,
		RecentLimit:  cfg.RecentUploadsLimit,
	}
	if !cfg.AuthRequired {
		owner, err := accounts.EnsurePlaceholderOwner(ctx, cfg.PlaceholderOwner)
		if err != nil {
			closeCatalog()
			_ = redisCache.Close()
			return fmt.Errorf("placeholder owner: %w", err)
		}
		opts.PlaceholderOwnerID = owner.ID
		logger.Warn("login not required; uploads are attributed to the placeholder owner",
			slog.String("owner", owner.Name),
		)
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		closeCatalog()
		_ = redisCache.Close()
		return fmt.Errorf("load templates: %w", err)
	}

	sessions := session.NewManager(redisCache, cfg.SecretKey, cfg.SessionTTL, !cfg.IsDevelopment())
	pages := handler.New(intake, accounts, sessions, renderer, logger, opts)

	router := handler.NewRouter(handler.RouterConfig{
		Pages:          pages,
		Health:         handler.NewHealthHandler(health...),
		Logger:         logger,
		Gatherer:       reg,
		HTTPMetrics:    middleware.NewHTTPMetrics(reg),
		Limiter:        redisCache,
		RateLimit:      cfg.RateLimitLoginEnabled,
		RateLimitRPS:   cfg.RateLimitLoginRPS,
		RateLimitBurst: cfg.RateLimitLoginBurst,
		IsDevelopment:  cfg.IsDevelopment(),
		MaxUploadSize:  cfg.MaxUploadSize,
	})

	srv := server.New(router, cfg.AppPort, cfg.ReadTimeout, cfg.WriteTimeout, cfg.ShutdownTimeout, logger)

	// Components close in reverse registration order.
	srv.OnShutdown("database", func(context.Context) error {
		closeCatalog()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return redisCache.Close()
	})

	if worker != nil {
		workerCtx, stopWorker := context.WithCancel(ctx)
		go func() {
			if err := worker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("replication worker stopped", slog.String("error", err.Error()))
			}
		}()
		srv.OnShutdown("replication-worker", func(ctx context.Context) error {
			err := worker.Shutdown(ctx)
			stopWorker()
			return err
		})
	}

	return srv.Run(ctx)
}
