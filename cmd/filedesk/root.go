package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/filedesk/filedesk/internal/config"
	"github.com/filedesk/filedesk/internal/replication"
	"github.com/filedesk/filedesk/internal/repository"
	"github.com/filedesk/filedesk/internal/service"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "filedesk",
		Short:         "Upload intake and cataloging web app",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newReplicateCmd())
	return root
}

// app holds what every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: initLogger(cfg)}, nil
}

// catalogBackend is what the catalog must provide to the web app and the
// replication worker.
type catalogBackend interface {
	service.CatalogStore
	service.CustomerStore
	replication.Catalog
	Ping(ctx context.Context) error
}

var (
	_ catalogBackend = (*repository.Repository)(nil)
	_ catalogBackend = (*repository.Memory)(nil)
)

// openCatalog returns the configured catalog and a close function.
func (a *app) openCatalog(ctx context.Context) (catalogBackend, func(), error) {
	if a.cfg.CatalogBackend == config.BackendMemory {
		a.logger.Warn("using in-memory catalog; uploads are forgotten on restart")
		return repository.NewMemory(), func() {}, nil
	}

	if a.cfg.MigrateOnStart {
		if err := repository.Migrate(a.cfg.DatabaseURL, a.logger); err != nil {
			return nil, nil, fmt.Errorf("migrate: %s", sanitizeError(err, a.cfg.DatabaseURL))
		}
	}

	repo, err := repository.New(ctx, a.cfg.DatabaseURL, a.logger)
	if err != nil {
		a.logger.Error("failed to connect to database",
			slog.String("error", sanitizeError(err, a.cfg.DatabaseURL)),
			slog.String("database_url", redactURL(a.cfg.DatabaseURL)),
		)
		return nil, nil, fmt.Errorf("connect to database: %s", sanitizeError(err, a.cfg.DatabaseURL))
	}
	return repo, repo.Close, nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
