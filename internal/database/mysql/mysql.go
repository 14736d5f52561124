package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/sourcescan/sourcescan/internal/config"
	"github.com/sourcescan/sourcescan/internal/database"
)

type mysqlHandler struct{}

var _ database.DialectHandler = (*mysqlHandler)(nil)

func (h mysqlHandler) DriverName() string { return "mysql" }

func (h mysqlHandler) DefaultPort() int { return 3306 }

func (h mysqlHandler) BuildDSN(cfg config.ConnectionConfig) (string, error) {
	if cfg.Host == "" || cfg.Database == "" || cfg.Username == "" {
		return "", fmt.Errorf("%w: mysql requires host, database, and username", database.ErrInvalidConfig)
	}
	port := cfg.Port
	if port == 0 {
		port = h.DefaultPort()
	}
	mysqlCfg := mysql.Config{
		User:                 cfg.Username,
		Passwd:               cfg.Password,
		Net:                  "tcp",
		Addr:                 fmt.Sprintf("%s:%d", cfg.Host, port),
		DBName:               cfg.Database,
		AllowNativePasswords: true,
		ParseTime:            true,
	}
	return mysqlCfg.FormatDSN(), nil
}

func (h mysqlHandler) QuoteIdentifier(name string) string {
	name = strings.ReplaceAll(name, "`", "``")
	return fmt.Sprintf("`%s`", name)
}

// ListSchemas excludes the server-internal schemas. In MySQL a schema and a
// database are the same object, so this enumerates all user databases the
// connection can see.
func (h mysqlHandler) ListSchemas(ctx context.Context, db *database.DB) ([]string, error) {
	query := "SELECT SCHEMA_NAME FROM information_schema.SCHEMATA WHERE SCHEMA_NAME NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')"

	rows, err := db.Pool.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying schemas: %w", err)
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("error scanning schema name: %w", err)
		}
		schemas = append(schemas, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schema rows: %w", err)
	}
	return schemas, nil
}

func (h mysqlHandler) ListTables(ctx context.Context, db *database.DB, schema string) ([]string, error) {
	query := "SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'"

	rows, err := db.Pool.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("error querying tables in schema %s: %w", schema, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("error scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}
	return tables, nil
}

func (h mysqlHandler) ListColumns(ctx context.Context, db *database.DB, schema, table string) ([]database.ColumnInfo, error) {
	query := "SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION"

	rows, err := db.Pool.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("error querying columns for table %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var columns []database.ColumnInfo
	for rows.Next() {
		var (
			col      database.ColumnInfo
			nullable string
			dflt     sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &dflt); err != nil {
			return nil, fmt.Errorf("error scanning column row: %w", err)
		}
		col.Nullable = nullable == "YES"
		if dflt.Valid {
			col.Default = &dflt.String
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}
	return columns, nil
}

func (h mysqlHandler) PrimaryKeys(ctx context.Context, db *database.DB, schema, table string) ([]string, error) {
	query := "SELECT COLUMN_NAME FROM information_schema.KEY_COLUMN_USAGE WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY' ORDER BY ORDINAL_POSITION"

	rows, err := db.Pool.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("error querying primary keys for %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("error scanning primary key column: %w", err)
		}
		keys = append(keys, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating primary key rows: %w", err)
	}
	return keys, nil
}

func (h mysqlHandler) ForeignKeys(ctx context.Context, db *database.DB, schema, table string) ([]database.ForeignKeyInfo, error) {
	query := "SELECT COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME FROM information_schema.KEY_COLUMN_USAGE WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND REFERENCED_TABLE_NAME IS NOT NULL"

	rows, err := db.Pool.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("error querying foreign keys for %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var fks []database.ForeignKeyInfo
	for rows.Next() {
		var fk database.ForeignKeyInfo
		if err := rows.Scan(&fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, fmt.Errorf("error scanning foreign key row: %w", err)
		}
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign key rows: %w", err)
	}
	return fks, nil
}

func (h mysqlHandler) ListIndexes(ctx context.Context, db *database.DB, schema, table string) ([]database.IndexInfo, error) {
	query := "SELECT INDEX_NAME, COLUMN_NAME, NON_UNIQUE FROM information_schema.STATISTICS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? ORDER BY INDEX_NAME, SEQ_IN_INDEX"

	rows, err := db.Pool.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("error querying indexes for %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var (
		order   []string
		grouped = make(map[string]*database.IndexInfo)
	)
	for rows.Next() {
		var (
			name, column string
			nonUnique    int
		)
		if err := rows.Scan(&name, &column, &nonUnique); err != nil {
			return nil, fmt.Errorf("error scanning index row: %w", err)
		}
		idx, ok := grouped[name]
		if !ok {
			idx = &database.IndexInfo{Name: name, Unique: nonUnique == 0}
			grouped[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index rows: %w", err)
	}

	indexes := make([]database.IndexInfo, 0, len(order))
	for _, name := range order {
		indexes = append(indexes, *grouped[name])
	}
	return indexes, nil
}

func init() {
	database.RegisterDialectHandler(config.DialectMySQL, mysqlHandler{})
}
