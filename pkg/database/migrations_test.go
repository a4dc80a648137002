package database

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"010_add_index.sql":      {Data: []byte("CREATE INDEX idx_t ON t(name);")},
		"002_create_t.sql":       {Data: []byte("CREATE TABLE t (name TEXT);")},
		"README.md":              {Data: []byte("ignored")},
		"001_initial_schema.sql": {Data: []byte("CREATE TABLE s (id TEXT);")},
	}

	migrations, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "initial_schema", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)
	assert.Equal(t, 10, migrations[2].Version)
	assert.Equal(t, "add_index", migrations[2].Name)
}

func TestLoadMigrations_RejectsBadNames(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{
			name: "no version prefix",
			fsys: fstest.MapFS{"schema.sql": {Data: []byte("SELECT 1;")}},
		},
		{
			name: "duplicate version",
			fsys: fstest.MapFS{
				"001_a.sql": {Data: []byte("SELECT 1;")},
				"001_b.sql": {Data: []byte("SELECT 1;")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMigrations(tt.fsys)
			assert.Error(t, err)
		})
	}
}

func TestMigrator_AppliesOnce(t *testing.T) {
	logger := zap.NewNop()
	db, err := New(Config{Path: MemoryPath}, logger)
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"001_create_t.sql": {Data: []byte("CREATE TABLE t (name TEXT);")},
		"002_seed_t.sql":   {Data: []byte("INSERT INTO t (name) VALUES ('a');")},
	}

	m := NewMigrator(db, logger)
	applied, err := m.RunMigrations(context.Background(), fsys)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	applied, err = m.RunMigrations(context.Background(), fsys)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM t").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrator_FailedMigrationRollsBack(t *testing.T) {
	logger := zap.NewNop()
	db, err := New(Config{Path: MemoryPath}, logger)
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"001_create_t.sql": {Data: []byte("CREATE TABLE t (name TEXT);")},
		"002_broken.sql":   {Data: []byte("INSERT INTO missing_table VALUES (1);")},
	}

	applied, err := NewMigrator(db, logger).RunMigrations(context.Background(), fsys)
	require.Error(t, err)
	assert.Equal(t, 1, applied)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestDSN(t *testing.T) {
	dsn := DSN("data/procure.db")
	assert.True(t, strings.HasPrefix(dsn, "file:data/procure.db?"), dsn)
	for _, param := range []string{"_journal_mode=WAL", "_busy_timeout=5000", "_foreign_keys=on"} {
		assert.Contains(t, dsn, param)
	}
}

func TestNew_MemoryPathUsesOneConnection(t *testing.T) {
	db, err := New(Config{Path: MemoryPath, MaxOpenConns: 10}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, MemoryPath, db.Path())
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}

func TestMigrator_HonoursCancelledContext(t *testing.T) {
	logger := zap.NewNop()
	db, err := New(Config{Path: MemoryPath}, logger)
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fsys := fstest.MapFS{"001_create_t.sql": {Data: []byte("CREATE TABLE t (name TEXT);")}}
	applied, err := NewMigrator(db, logger).RunMigrations(ctx, fsys)
	assert.Error(t, err)
	assert.Equal(t, 0, applied)
}
