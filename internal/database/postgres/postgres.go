/*
 * Copyright 2025 The sourcescan Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"github.com/sourcescan/sourcescan/internal/config"
	"github.com/sourcescan/sourcescan/internal/database"
)

// postgresHandler implements database.DialectHandler for PostgreSQL.
type postgresHandler struct{}

var _ database.DialectHandler = (*postgresHandler)(nil)

func (h postgresHandler) DriverName() string { return "pgx" }

func (h postgresHandler) DefaultPort() int { return 5432 }

// BuildDSN builds a postgres:// URL. Host, database, and username are
// mandatory; the password may legitimately be empty (trust auth).
func (h postgresHandler) BuildDSN(cfg config.ConnectionConfig) (string, error) {
	if cfg.Host == "" || cfg.Database == "" || cfg.Username == "" {
		return "", fmt.Errorf("%w: postgresql requires host, database, and username", database.ErrInvalidConfig)
	}
	port := cfg.Port
	if port == 0 {
		port = h.DefaultPort()
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:   "/" + cfg.Database,
	}
	return u.String(), nil
}

func (h postgresHandler) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

// ListSchemas excludes the catalog-internal namespaces.
func (h postgresHandler) ListSchemas(ctx context.Context, db *database.DB) ([]string, error) {
	query := `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		AND schema_name NOT LIKE 'pg_temp_%'
		AND schema_name NOT LIKE 'pg_toast_temp_%'`

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

func (h postgresHandler) ListTables(ctx context.Context, db *database.DB, schema string) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type = 'BASE TABLE'`

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

func (h postgresHandler) ListColumns(ctx context.Context, db *database.DB, schema, table string) ([]database.ColumnInfo, error) {
	query := `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = $1
		AND table_name = $2
		ORDER BY ordinal_position`

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

func (h postgresHandler) PrimaryKeys(ctx context.Context, db *database.DB, schema, table string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position`

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

func (h postgresHandler) ForeignKeys(ctx context.Context, db *database.DB, schema, table string) ([]database.ForeignKeyInfo, error) {
	query := `
		SELECT
			kcu.column_name,
			ccu.table_name AS ref_table,
			ccu.column_name AS ref_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND kcu.table_schema = $1
			AND kcu.table_name = $2`

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

func (h postgresHandler) ListIndexes(ctx context.Context, db *database.DB, schema, table string) ([]database.IndexInfo, error) {
	query := `
		SELECT i.relname, a.attname, ix.indisunique
		FROM pg_class t
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_index ix ON ix.indrelid = t.oid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = $1 AND t.relname = $2`

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
			unique       bool
		)
		if err := rows.Scan(&name, &column, &unique); err != nil {
			return nil, fmt.Errorf("error scanning index row: %w", err)
		}
		idx, ok := grouped[name]
		if !ok {
			idx = &database.IndexInfo{Name: name, Unique: unique}
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
	database.RegisterDialectHandler(config.DialectPostgres, postgresHandler{})
}
