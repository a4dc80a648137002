package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/procurement-flow/internal/config"
	"github.com/garyjia/procurement-flow/internal/container"
	"github.com/garyjia/procurement-flow/pkg/database"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			n, err := runMigrate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) to %s\n", n, cfg.Database.Path)
			return nil
		},
	}
}

func runMigrate(ctx context.Context, cfg *config.Config) (int, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return 0, err
	}
	defer logger.Sync()

	if err := ensureDataDir(cfg.Database.Path); err != nil {
		return 0, err
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return 0, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	n, err := database.NewMigrator(db, logger).RunMigrations(ctx, container.MigrationSource(&cfg.Database))
	if err != nil {
		return n, fmt.Errorf("run migrations: %w", err)
	}
	return n, nil
}
