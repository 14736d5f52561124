package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcescan/sourcescan/internal/config"
	"github.com/sourcescan/sourcescan/internal/database"
	_ "github.com/sourcescan/sourcescan/internal/database/mysql"
	_ "github.com/sourcescan/sourcescan/internal/database/postgres"
	_ "github.com/sourcescan/sourcescan/internal/database/sqlite"
	_ "github.com/sourcescan/sourcescan/internal/database/sqlserver"
)

// Connection-string building across all registered dialects. Validation must
// reject bad input deterministically, before any I/O.
func TestBuildConnectionURL(t *testing.T) {
	full := func(dialect string) config.ConnectionConfig {
		return config.ConnectionConfig{
			Dialect:  dialect,
			Host:     "localhost",
			Database: "mydb",
			Username: "user",
			Password: "pass",
		}
	}

	t.Run("unsupported_dialect", func(t *testing.T) {
		_, err := database.BuildConnectionURL(full("oracle"))
		assert.ErrorIs(t, err, database.ErrUnsupportedDialect)
	})

	t.Run("dialect_match_is_case_sensitive", func(t *testing.T) {
		_, err := database.BuildConnectionURL(full("PostgreSQL"))
		assert.ErrorIs(t, err, database.ErrUnsupportedDialect)
	})

	t.Run("network_dialects_require_host_database_username", func(t *testing.T) {
		for _, dialect := range []string{config.DialectPostgres, config.DialectMySQL, config.DialectSQLServer} {
			cfg := full(dialect)
			cfg.Host = ""
			_, err := database.BuildConnectionURL(cfg)
			assert.ErrorIs(t, err, database.ErrInvalidConfig, dialect)

			cfg = full(dialect)
			cfg.Database = ""
			_, err = database.BuildConnectionURL(cfg)
			assert.ErrorIs(t, err, database.ErrInvalidConfig, dialect)

			cfg = full(dialect)
			cfg.Username = ""
			_, err = database.BuildConnectionURL(cfg)
			assert.ErrorIs(t, err, database.ErrInvalidConfig, dialect)
		}
	})

	t.Run("sqlite_requires_only_path", func(t *testing.T) {
		dsn, err := database.BuildConnectionURL(config.ConnectionConfig{
			Dialect:  config.DialectSQLite,
			Database: "./app.db",
		})
		require.NoError(t, err)
		assert.Equal(t, "./app.db", dsn)

		_, err = database.BuildConnectionURL(config.ConnectionConfig{Dialect: config.DialectSQLite})
		assert.ErrorIs(t, err, database.ErrInvalidConfig)
	})

	t.Run("default_ports_applied", func(t *testing.T) {
		dsn, err := database.BuildConnectionURL(full(config.DialectPostgres))
		require.NoError(t, err)
		assert.Contains(t, dsn, ":5432")

		dsn, err = database.BuildConnectionURL(full(config.DialectMySQL))
		require.NoError(t, err)
		assert.Contains(t, dsn, ":3306")

		dsn, err = database.BuildConnectionURL(full(config.DialectSQLServer))
		require.NoError(t, err)
		assert.Contains(t, dsn, ":1433")
	})
}
