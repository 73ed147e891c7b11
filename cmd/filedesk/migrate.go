package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/filedesk/filedesk/internal/config"
	"github.com/filedesk/filedesk/internal/repository"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			if a.cfg.CatalogBackend != config.BackendPostgres {
				return errors.New("migrate requires CATALOG_BACKEND=postgres")
			}

			if err := repository.Migrate(a.cfg.DatabaseURL, a.logger); err != nil {
				return fmt.Errorf("migrate: %s", sanitizeError(err, a.cfg.DatabaseURL))
			}
			a.logger.Info("migrations applied")
			return nil
		},
	}
}
