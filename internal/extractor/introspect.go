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
package extractor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sourcescan/sourcescan/internal/config"
	"github.com/sourcescan/sourcescan/internal/database"
)

// Opener produces a live catalog for one connection config. Stages open and
// close their catalog within a single invocation; no live handle crosses a
// stage boundary.
type Opener func(ctx context.Context, cfg config.ConnectionConfig) (database.Catalog, error)

// Stages bundles the pipeline's stage implementations. Each stage is
// idempotent with respect to an unmodified target database, so an external
// execution substrate may safely re-run it.
type Stages struct {
	logger *zap.Logger
	open   Opener
	probe  func(ctx context.Context, cfg config.ConnectionConfig, timeout time.Duration) database.ProbeResult
}

// StageOption customizes a Stages instance.
type StageOption func(*Stages)

// WithOpener substitutes the catalog opener. Tests use this to hand stages a
// sqlmock-backed catalog.
func WithOpener(open Opener) StageOption {
	return func(s *Stages) { s.open = open }
}

// WithProbe substitutes the connection probe.
func WithProbe(probe func(context.Context, config.ConnectionConfig, time.Duration) database.ProbeResult) StageOption {
	return func(s *Stages) { s.probe = probe }
}

// NewStages builds the stage set. A nil logger is replaced with a no-op one.
func NewStages(logger *zap.Logger, opts ...StageOption) *Stages {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Stages{
		logger: logger,
		open: func(ctx context.Context, cfg config.ConnectionConfig) (database.Catalog, error) {
			return database.Open(ctx, cfg)
		},
		probe: database.Probe,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TestConnection runs the connection probe. All connection-level failures are
// captured in the returned result; this stage never returns a Go error.
func (s *Stages) TestConnection(ctx context.Context, cfg config.ConnectionConfig, timeout time.Duration) database.ProbeResult {
	result := s.probe(ctx, cfg, timeout)
	s.logger.Info("connection probe finished",
		zap.String("dialect", cfg.Dialect),
		zap.String("status", result.Status))
	return result
}

// ExtractSchema introspects the full structural catalog of the target
// database: schemas, tables, columns, primary keys, foreign keys, and
// indexes. Enumeration order follows the catalog's native order; only
// columns carry a guaranteed order (ordinal position). When schemaFilter is
// set, only the named schema is visited.
//
// Any failure is gating: the caller must not run later stages on a partial
// catalog.
func (s *Stages) ExtractSchema(ctx context.Context, cfg config.ConnectionConfig, schemaFilter string) (*SchemaMetadata, error) {
	catalog, err := s.open(ctx, cfg)
	if err != nil {
		return nil, &ConnectionError{Msg: "opening catalog connection", Err: err}
	}
	defer catalog.Close()

	schemaNames, err := catalog.ListSchemas(ctx)
	if err != nil {
		return nil, &IntrospectionError{Msg: "listing schemas", Err: err}
	}

	meta := &SchemaMetadata{
		Dialect:     cfg.Dialect,
		Database:    cfg.Database,
		ExtractedAt: time.Now().UTC(),
	}

	for _, schemaName := range schemaNames {
		if schemaFilter != "" && schemaName != schemaFilter {
			continue
		}
		schema, err := s.introspectSchema(ctx, catalog, schemaName)
		if err != nil {
			return nil, err
		}
		meta.Schemas = append(meta.Schemas, schema)
	}

	s.logger.Info("schema extraction finished",
		zap.String("database", cfg.Database),
		zap.Int("schemas", len(meta.Schemas)))
	return meta, nil
}

func (s *Stages) introspectSchema(ctx context.Context, catalog database.Catalog, schemaName string) (Schema, error) {
	tableNames, err := catalog.ListTables(ctx, schemaName)
	if err != nil {
		return Schema{}, &IntrospectionError{Msg: "listing tables of schema " + schemaName, Err: err}
	}

	schema := Schema{Name: schemaName}
	for _, tableName := range tableNames {
		table, err := s.introspectTable(ctx, catalog, schemaName, tableName)
		if err != nil {
			return Schema{}, err
		}
		schema.Tables = append(schema.Tables, table)
	}
	return schema, nil
}

func (s *Stages) introspectTable(ctx context.Context, catalog database.Catalog, schemaName, tableName string) (Table, error) {
	ref := schemaName + "." + tableName

	columns, err := catalog.ListColumns(ctx, schemaName, tableName)
	if err != nil {
		return Table{}, &IntrospectionError{Msg: "listing columns of " + ref, Err: err}
	}
	primaryKeys, err := catalog.PrimaryKeys(ctx, schemaName, tableName)
	if err != nil {
		return Table{}, &IntrospectionError{Msg: "listing primary keys of " + ref, Err: err}
	}
	foreignKeys, err := catalog.ForeignKeys(ctx, schemaName, tableName)
	if err != nil {
		return Table{}, &IntrospectionError{Msg: "listing foreign keys of " + ref, Err: err}
	}
	indexes, err := catalog.ListIndexes(ctx, schemaName, tableName)
	if err != nil {
		return Table{}, &IntrospectionError{Msg: "listing indexes of " + ref, Err: err}
	}

	table := Table{Name: tableName, PrimaryKeys: primaryKeys}
	for _, col := range columns {
		table.Columns = append(table.Columns, Column{
			Name:     col.Name,
			DataType: col.DataType,
			Nullable: col.Nullable,
			Default:  col.Default,
		})
	}
	for _, fk := range foreignKeys {
		table.ForeignKeys = append(table.ForeignKeys, ForeignKey{
			Column:    fk.Column,
			RefTable:  fk.RefTable,
			RefColumn: fk.RefColumn,
		})
	}
	for _, idx := range indexes {
		table.Indexes = append(table.Indexes, Index{
			Name:    idx.Name,
			Columns: idx.Columns,
			Unique:  idx.Unique,
		})
	}
	return table, nil
}
