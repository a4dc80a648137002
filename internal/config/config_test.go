package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "data/procurement.db", cfg.Database.Path)
	assert.Equal(t, 45*time.Minute, cfg.Workflow.IssuanceWindow)
	assert.Equal(t, 4, cfg.Workflow.ChildNumberSuffixLen)
	assert.False(t, cfg.Lark.Enabled)
	assert.False(t, cfg.Slack.Enabled)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  path: /tmp/procure.db
workflow:
  issuance_window: 30m
  child_number_suffix_len: 6
lark:
  enabled: true
slack:
  enabled: true
`)
	t.Setenv("LARK_APP_ID", "cli_app")
	t.Setenv("LARK_APP_SECRET", "secret")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-token")
	t.Setenv("PROCURE_LOGGER_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/procure.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Minute, cfg.Workflow.IssuanceWindow)
	assert.Equal(t, 6, cfg.Workflow.ChildNumberSuffixLen)
	assert.Equal(t, "cli_app", cfg.Lark.AppID)
	assert.Equal(t, "secret", cfg.Lark.AppSecret)
	assert.Equal(t, "xoxb-token", cfg.Slack.BotToken)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "data/procurement.db"},
			Workflow: WorkflowConfig{IssuanceWindow: 45 * time.Minute, ChildNumberSuffixLen: 4},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "lark without secret", mutate: func(c *Config) {
			c.Lark = LarkConfig{Enabled: true, AppID: "cli_app"}
		}, wantErr: true},
		{name: "lark disabled without credentials", mutate: func(c *Config) { c.Lark = LarkConfig{} }},
		{name: "slack without token", mutate: func(c *Config) { c.Slack.Enabled = true }, wantErr: true},
		{name: "zero issuance window", mutate: func(c *Config) { c.Workflow.IssuanceWindow = 0 }, wantErr: true},
		{name: "suffix too long", mutate: func(c *Config) { c.Workflow.ChildNumberSuffixLen = 32 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
