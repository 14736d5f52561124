package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/sourcescan/sourcescan/internal/config"
	"github.com/sourcescan/sourcescan/internal/database"
)

// mainSchema is the pseudo-schema every SQLite database exposes.
const mainSchema = "main"

type sqliteHandler struct{}

var _ database.DialectHandler = (*sqliteHandler)(nil)

func (h sqliteHandler) DriverName() string { return "sqlite" }

// DefaultPort returns 0: SQLite is file-based and has no network port.
func (h sqliteHandler) DefaultPort() int { return 0 }

// BuildDSN treats the database field as a filesystem path. Host, port, and
// credentials are not part of a SQLite connection.
func (h sqliteHandler) BuildDSN(cfg config.ConnectionConfig) (string, error) {
	if cfg.Database == "" {
		return "", fmt.Errorf("%w: sqlite requires a database file path", database.ErrInvalidConfig)
	}
	return cfg.Database, nil
}

func (h sqliteHandler) QuoteIdentifier(name string) string {
	name = strings.ReplaceAll(name, `"`, `""`)
	return fmt.Sprintf(`"%s"`, name)
}

func (h sqliteHandler) ListSchemas(ctx context.Context, db *database.DB) ([]string, error) {
	return []string{mainSchema}, nil
}

func (h sqliteHandler) ListTables(ctx context.Context, db *database.DB, schema string) ([]string, error) {
	query := "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'"

	rows, err := db.Pool.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying tables: %w", err)
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

func (h sqliteHandler) ListColumns(ctx context.Context, db *database.DB, schema, table string) ([]database.ColumnInfo, error) {
	query := `SELECT name, type, "notnull", dflt_value FROM pragma_table_info(?) ORDER BY cid`

	rows, err := db.Pool.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", table, err)
	}
	defer rows.Close()

	var columns []database.ColumnInfo
	for rows.Next() {
		var (
			col     database.ColumnInfo
			notNull int
			dflt    sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.DataType, &notNull, &dflt); err != nil {
			return nil, fmt.Errorf("error scanning column row: %w", err)
		}
		col.Nullable = notNull == 0
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

func (h sqliteHandler) PrimaryKeys(ctx context.Context, db *database.DB, schema, table string) ([]string, error) {
	query := "SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk"

	rows, err := db.Pool.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("error querying primary keys for %s: %w", table, err)
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

func (h sqliteHandler) ForeignKeys(ctx context.Context, db *database.DB, schema, table string) ([]database.ForeignKeyInfo, error) {
	query := `SELECT "from", "table", "to" FROM pragma_foreign_key_list(?)`

	rows, err := db.Pool.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("error querying foreign keys for %s: %w", table, err)
	}
	defer rows.Close()

	var fks []database.ForeignKeyInfo
	for rows.Next() {
		var (
			fk        database.ForeignKeyInfo
			refColumn sql.NullString
		)
		if err := rows.Scan(&fk.Column, &fk.RefTable, &refColumn); err != nil {
			return nil, fmt.Errorf("error scanning foreign key row: %w", err)
		}
		// "to" is NULL when the FK references the target's primary key
		// implicitly.
		fk.RefColumn = refColumn.String
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign key rows: %w", err)
	}
	return fks, nil
}

func (h sqliteHandler) ListIndexes(ctx context.Context, db *database.DB, schema, table string) ([]database.IndexInfo, error) {
	query := `SELECT name, "unique" FROM pragma_index_list(?)`

	rows, err := db.Pool.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("error querying indexes for %s: %w", table, err)
	}
	defer rows.Close()

	var indexes []database.IndexInfo
	for rows.Next() {
		var (
			idx    database.IndexInfo
			unique int
		)
		if err := rows.Scan(&idx.Name, &unique); err != nil {
			return nil, fmt.Errorf("error scanning index row: %w", err)
		}
		idx.Unique = unique == 1
		indexes = append(indexes, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index rows: %w", err)
	}

	for i := range indexes {
		columns, err := h.indexColumns(ctx, db, indexes[i].Name)
		if err != nil {
			return nil, err
		}
		indexes[i].Columns = columns
	}
	return indexes, nil
}

func (h sqliteHandler) indexColumns(ctx context.Context, db *database.DB, index string) ([]string, error) {
	query := "SELECT name FROM pragma_index_info(?) ORDER BY seqno"

	rows, err := db.Pool.QueryContext(ctx, query, index)
	if err != nil {
		return nil, fmt.Errorf("error querying columns of index %s: %w", index, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("error scanning index column: %w", err)
		}
		// Expression index members have a NULL column name.
		if name.Valid {
			columns = append(columns, name.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index column rows: %w", err)
	}
	return columns, nil
}

func init() {
	database.RegisterDialectHandler(config.DialectSQLite, sqliteHandler{})
}
