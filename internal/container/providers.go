package container

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/garyjia/procurement-flow/internal/application/dispatcher"
	"github.com/garyjia/procurement-flow/internal/application/port"
	"github.com/garyjia/procurement-flow/internal/application/service"
	"github.com/garyjia/procurement-flow/internal/application/workflow"
	"github.com/garyjia/procurement-flow/internal/config"
	infraLark "github.com/garyjia/procurement-flow/internal/infrastructure/external/lark"
	infraSlack "github.com/garyjia/procurement-flow/internal/infrastructure/external/slack"
	"github.com/garyjia/procurement-flow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/procurement-flow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/procurement-flow/migrations"
	"github.com/garyjia/procurement-flow/pkg/database"
	"github.com/garyjia/procurement-flow/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Database       *database.DB
	TransactionMgr *sqlite.DB
}

// MigrationSource returns the configured migrations directory, or the embedded schema
func MigrationSource(cfg *config.DatabaseConfig) fs.FS {
	if cfg.MigrationsDir != "" {
		return os.DirFS(cfg.MigrationsDir)
	}
	return migrations.FS
}

// ProvideDatabase opens the database, applies pending migrations and
// wraps the connection in a transaction manager.
func ProvideDatabase(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if _, err := database.NewMigrator(db, logger).RunMigrations(ctx, MigrationSource(cfg)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		Database:       db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (port.Repositories, error) {
	if sqlDB == nil {
		return port.Repositories{}, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return port.Repositories{}, fmt.Errorf("logger is required")
	}

	return port.Repositories{
		Requests:      repository.NewRequestRepository(sqlDB, logger),
		Items:         repository.NewItemRepository(sqlDB, logger),
		Articles:      repository.NewArticleRepository(sqlDB, logger),
		Signatures:    repository.NewSignatureRepository(sqlDB, logger),
		Deliveries:    repository.NewDeliveryRepository(sqlDB, logger),
		History:       repository.NewHistoryRepository(sqlDB, logger),
		Notifications: repository.NewNotificationRepository(sqlDB, logger),
		Users:         repository.NewUserRepository(sqlDB, logger),
		Projects:      repository.NewProjectRepository(sqlDB, logger),
	}, nil
}

// ProvideChannels creates the enabled outbound notification channels.
// No channel enabled is valid: notifications are then only recorded in-app.
func ProvideChannels(cfg *config.Config, logger *zap.Logger) ([]port.NotificationChannel, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	var channels []port.NotificationChannel

	if cfg.Lark.Enabled {
		channels = append(channels, infraLark.NewMessenger(infraLark.Config{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
		}, logger))
	}

	if cfg.Slack.Enabled {
		notifier, err := infraSlack.New(infraSlack.NotifierOpts{BotToken: cfg.Slack.BotToken}, logger)
		if err != nil {
			return nil, err
		}
		channels = append(channels, notifier)
	}

	for _, ch := range channels {
		logger.Info("Notification channel enabled", zap.String("channel", ch.Name()))
	}
	return channels, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(cfg *config.WorkflowConfig, logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("workflow config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.NewKVLogger(logger.Named("dispatcher"))),
		dispatcher.WithHandlerTimeout(cfg.HandlerTimeout),
	), nil
}

// WorkflowDeps holds dependencies required for creating the workflow engine.
type WorkflowDeps struct {
	Config     *config.WorkflowConfig
	Repos      port.Repositories
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideWorkflowEngine creates the workflow engine.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.WorkflowEngine, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("workflow config is required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	decider := workflow.NewDecider(
		workflow.WithIssuanceWindow(deps.Config.IssuanceWindow),
		workflow.WithSuffixLength(deps.Config.ChildNumberSuffixLen),
	)

	return workflow.NewEngine(deps.Repos, deps.TxManager,
		workflow.WithDecider(decider),
		workflow.WithDispatcher(deps.Dispatcher),
		workflow.WithLogger(utils.NewKVLogger(deps.Logger.Named("workflow"))),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      port.Repositories
	Engine     workflow.WorkflowEngine
	Dispatcher dispatcher.Dispatcher
	Channels   []port.NotificationChannel
	Logger     *zap.Logger
}

// ProvideServices creates all application services and subscribes the
// notification handlers on the dispatcher.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("workflow engine is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := utils.NewKVLogger(deps.Logger.Named("service"))

	notifications := service.NewNotificationService(
		deps.Repos.Requests,
		deps.Repos.Users,
		deps.Repos.Projects,
		deps.Channels,
		serviceLogger,
	)
	notifications.Register(deps.Dispatcher)

	return &ServiceBundle{
		Requests:      service.NewRequestService(deps.Engine, deps.Repos, serviceLogger),
		Notifications: notifications,
	}, nil
}
