package container

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/procurement-flow/internal/config"
	"github.com/garyjia/procurement-flow/internal/domain/event"
	"github.com/garyjia/procurement-flow/pkg/database"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Database: config.DatabaseConfig{
			Path:         database.MemoryPath,
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Workflow: config.WorkflowConfig{
			IssuanceWindow:       45 * time.Minute,
			ChildNumberSuffixLen: 4,
			HandlerTimeout:       time.Second,
		},
	}
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(testConfig(), nil)
	assert.Error(t, err)

	bad := testConfig()
	bad.Workflow.IssuanceWindow = 0
	_, err = NewContainer(bad, zap.NewNop())
	assert.Error(t, err)
}

func TestContainer_Lifecycle(t *testing.T) {
	c, err := NewContainer(testConfig(), zap.NewNop())
	require.NoError(t, err)
	assert.False(t, c.Ready())

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(context.Background()), "second start")

	assert.NotNil(t, c.Services().Requests)
	assert.NotNil(t, c.Services().Notifications)
	assert.NotNil(t, c.WorkflowEngine())
	assert.NotNil(t, c.Repositories().Requests)
	assert.Empty(t, c.Channels())
	assert.Contains(t, c.Dispatcher().Handlers(event.TypeStatusChanged), "notify-status-changed")

	health := c.Health(context.Background())
	assert.True(t, health.Overall)
	assert.True(t, health.Components["database"].Healthy)
	assert.Equal(t, "channels: 0", health.Components["notifications"].Message)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close(), "second close")
	assert.Error(t, c.Start(context.Background()), "start after close")

	health = c.Health(context.Background())
	assert.False(t, health.Overall)
	assert.False(t, health.Components["database"].Healthy)
}

func TestProvideChannels_Enabled(t *testing.T) {
	cfg := testConfig()
	cfg.Lark = config.LarkConfig{Enabled: true, AppID: "cli_a", AppSecret: "secret"}
	cfg.Slack = config.SlackConfig{Enabled: true, BotToken: "xoxb-test"}

	channels, err := ProvideChannels(cfg, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "lark", channels[0].Name())
	assert.Equal(t, "slack", channels[1].Name())
}

func TestMigrationSource(t *testing.T) {
	dir := t.TempDir()
	src := MigrationSource(&config.DatabaseConfig{MigrationsDir: dir})
	migs, err := database.LoadMigrations(src)
	require.NoError(t, err)
	assert.Empty(t, migs)

	migs, err = database.LoadMigrations(MigrationSource(&config.DatabaseConfig{}))
	require.NoError(t, err)
	assert.NotEmpty(t, migs)
}
