package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/sourcescan/sourcescan/internal/config"
)

// Catalog is the read-only view of a database the extraction pipeline
// consumes: schema enumeration plus the count queries used for quality
// profiling. A Catalog is opened and closed within a single stage
// invocation; it never crosses a stage boundary.
type Catalog interface {
	ListSchemas(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context, schema string) ([]string, error)
	ListColumns(ctx context.Context, schema, table string) ([]ColumnInfo, error)
	PrimaryKeys(ctx context.Context, schema, table string) ([]string, error)
	ForeignKeys(ctx context.Context, schema, table string) ([]ForeignKeyInfo, error)
	ListIndexes(ctx context.Context, schema, table string) ([]IndexInfo, error)
	RowCount(ctx context.Context, schema, table string) (int64, error)
	ColumnNullCount(ctx context.Context, schema, table, column string) (int64, error)
	ColumnDistinctCount(ctx context.Context, schema, table, column string) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

var _ Catalog = (*DB)(nil)

// DB holds the connection pool and the dialect handler for one target
// database.
type DB struct {
	Pool    *sql.DB
	Handler DialectHandler
	Config  config.ConnectionConfig
}

// ColumnInfo holds catalog information about one column.
type ColumnInfo struct {
	Name     string
	DataType string
	Nullable bool
	Default  *string
}

// ForeignKeyInfo is one foreign-key edge: column -> referenced table/column.
type ForeignKeyInfo struct {
	Column    string
	RefTable  string
	RefColumn string
}

// IndexInfo holds catalog information about one index.
type IndexInfo struct {
	Name    string
	Columns []string
	Unique  bool
}

// DialectHandler implements the catalog queries and connection-string
// conventions of one database engine.
type DialectHandler interface {
	// BuildDSN validates the dialect-required fields and returns a
	// driver-ready connection string. Pure; no I/O.
	BuildDSN(cfg config.ConnectionConfig) (string, error)
	DriverName() string
	DefaultPort() int
	QuoteIdentifier(name string) string
	ListSchemas(ctx context.Context, db *DB) ([]string, error)
	ListTables(ctx context.Context, db *DB, schema string) ([]string, error)
	ListColumns(ctx context.Context, db *DB, schema, table string) ([]ColumnInfo, error)
	PrimaryKeys(ctx context.Context, db *DB, schema, table string) ([]string, error)
	ForeignKeys(ctx context.Context, db *DB, schema, table string) ([]ForeignKeyInfo, error)
	ListIndexes(ctx context.Context, db *DB, schema, table string) ([]IndexInfo, error)
}

var (
	dialectHandlers = make(map[string]DialectHandler)
	mu              sync.RWMutex
)

// RegisterDialectHandler makes a handler available under the given dialect
// identifier. Called from the init() of each dialect subpackage.
func RegisterDialectHandler(dialect string, handler DialectHandler) {
	mu.Lock()
	defer mu.Unlock()
	dialectHandlers[dialect] = handler
}

// GetDialectHandler resolves a handler by dialect identifier. The lookup is
// case-sensitive and exact.
func GetDialectHandler(dialect string) (DialectHandler, error) {
	mu.RLock()
	defer mu.RUnlock()
	handler, ok := dialectHandlers[dialect]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}
	return handler, nil
}

// BuildConnectionURL turns a dialect-tagged connection config into a
// driver-ready connection string. It fails with ErrUnsupportedDialect for an
// unrecognized dialect and ErrInvalidConfig for missing required fields,
// without attempting any I/O.
func BuildConnectionURL(cfg config.ConnectionConfig) (string, error) {
	handler, err := GetDialectHandler(cfg.Dialect)
	if err != nil {
		return "", err
	}
	return handler.BuildDSN(cfg)
}

// Open builds the connection string, opens a pool, and verifies it with a
// ping. The caller owns the returned DB and must Close it.
func Open(ctx context.Context, cfg config.ConnectionConfig) (*DB, error) {
	handler, err := GetDialectHandler(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	dsn, err := handler.BuildDSN(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := sql.Open(handler.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database pool for dialect %s: %w", cfg.Dialect, err)
	}

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database (ping failed) for dialect %s: %w", cfg.Dialect, err)
	}

	return &DB{
		Pool:    pool,
		Handler: handler,
		Config:  cfg,
	}, nil
}

func (db *DB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database connection pool is not initialized")
	}
	return db.Pool.PingContext(ctx)
}

func (db *DB) Close() error {
	if db.Pool != nil {
		return db.Pool.Close()
	}
	return nil
}

func (db *DB) ListSchemas(ctx context.Context) ([]string, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ListSchemas(ctx, db)
}

func (db *DB) ListTables(ctx context.Context, schema string) ([]string, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ListTables(ctx, db, schema)
}

func (db *DB) ListColumns(ctx context.Context, schema, table string) ([]ColumnInfo, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ListColumns(ctx, db, schema, table)
}

func (db *DB) PrimaryKeys(ctx context.Context, schema, table string) ([]string, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.PrimaryKeys(ctx, db, schema, table)
}

func (db *DB) ForeignKeys(ctx context.Context, schema, table string) ([]ForeignKeyInfo, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ForeignKeys(ctx, db, schema, table)
}

func (db *DB) ListIndexes(ctx context.Context, schema, table string) ([]IndexInfo, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ListIndexes(ctx, db, schema, table)
}

// qualifiedTable returns the quoted schema-qualified table reference used by
// the profiling count queries.
func (db *DB) qualifiedTable(schema, table string) string {
	quoted := db.Handler.QuoteIdentifier(table)
	if schema == "" {
		return quoted
	}
	return db.Handler.QuoteIdentifier(schema) + "." + quoted
}

// RowCount returns the exact row count of one table.
func (db *DB) RowCount(ctx context.Context, schema, table string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", db.qualifiedTable(schema, table))
	var count int64
	if err := db.Pool.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s.%s: %w", schema, table, err)
	}
	return count, nil
}

// ColumnNullCount returns how many rows hold NULL in one column.
func (db *DB) ColumnNullCount(ctx context.Context, schema, table, column string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NULL",
		db.qualifiedTable(schema, table), db.Handler.QuoteIdentifier(column))
	var count int64
	if err := db.Pool.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count nulls of %s.%s.%s: %w", schema, table, column, err)
	}
	return count, nil
}

// ColumnDistinctCount returns the number of distinct non-NULL values in one
// column.
func (db *DB) ColumnDistinctCount(ctx context.Context, schema, table, column string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s",
		db.Handler.QuoteIdentifier(column), db.qualifiedTable(schema, table))
	var count int64
	if err := db.Pool.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count distinct values of %s.%s.%s: %w", schema, table, column, err)
	}
	return count, nil
}
