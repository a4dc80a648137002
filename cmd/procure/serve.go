package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/procurement-flow/internal/config"
	"github.com/garyjia/procurement-flow/internal/container"
	httpapi "github.com/garyjia/procurement-flow/internal/interfaces/http"
	"github.com/garyjia/procurement-flow/pkg/database"
	"github.com/garyjia/procurement-flow/pkg/utils"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting procurement service",
		zap.String("version", Version),
		zap.Int("port", cfg.Server.Port))

	if err := ensureDataDir(cfg.Database.Path); err != nil {
		return err
	}

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("start container: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Container close failed", zap.Error(err))
		}
	}()

	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, c.Services().Requests, func(ctx context.Context) (bool, interface{}) {
		h := c.Health(ctx)
		return h.Overall, h.Components
	}, utils.NewKVLogger(logger.Named("http")))

	// Wait for interrupt signal to gracefully shutdown the server
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(sigCtx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info("Server exited successfully")
	return nil
}

// ensureDataDir creates the directory holding a file-backed database
func ensureDataDir(path string) error {
	if path == database.MemoryPath {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	return nil
}
