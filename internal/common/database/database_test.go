package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-workers/internal/common/config"
)

func TestNewRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestNewRedis_PoolSize(t *testing.T) {
	tests := []struct {
		name     string
		poolSize int
		want     int
	}{
		{"default", 0, defaultRedisPoolSize},
		{"configured", 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewRedis(config.RedisConfig{Address: "localhost:6379", PoolSize: tt.poolSize})
			require.NoError(t, err)
			defer client.Close()
			assert.Equal(t, tt.want, client.Client.Options().PoolSize)
		})
	}
}

func TestNewPostgres(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{
		Host:           "localhost",
		Port:           5432,
		Database:       "leads",
		User:           "leads",
		SSLMode:        "disable",
		MaxConnections: 4,
		MaxIdle:        1,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, client.DB.Stats().MaxOpenConnections)
	assert.NoError(t, client.Close())
}

// ==========================
// Migration Tests
// ==========================

func writeMigrations(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestPostgresClient_Migrate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	client := &PostgresClient{DB: db}
	defer client.Close()

	dir := writeMigrations(t, map[string]string{
		"002_index.sql": "CREATE INDEX IF NOT EXISTS idx ON t (a)",
		"001_table.sql": "CREATE TABLE IF NOT EXISTS t (a INT)",
		"README.md":     "not a migration",
	})

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS t (a INT)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx ON t (a)").WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := client.Migrate(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_table.sql", "002_index.sql"}, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClient_MigrateStopsOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	client := &PostgresClient{DB: db}
	defer client.Close()

	dir := writeMigrations(t, map[string]string{
		"001_table.sql": "CREATE TABLE t (a INT)",
		"002_index.sql": "CREATE INDEX idx ON t (a)",
	})

	mock.ExpectExec("CREATE TABLE t (a INT)").WillReturnError(errors.New("permission denied"))

	applied, err := client.Migrate(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migration 001_table.sql")
	assert.Empty(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClient_MigrateEmptyDir(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	client := &PostgresClient{DB: db}
	defer client.Close()

	applied, err := client.Migrate(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, applied)
}
