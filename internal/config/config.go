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
package config

import "time"

// Supported dialect identifiers. Matching is case-sensitive and exact;
// anything else is rejected before any I/O is attempted.
const (
	DialectPostgres  = "postgresql"
	DialectMySQL     = "mysql"
	DialectSQLite    = "sqlite"
	DialectSQLServer = "mssql"
)

// DefaultConnectTimeout bounds the connection probe round trip.
const DefaultConnectTimeout = 30 * time.Second

// DefaultMaxQualityTables caps how many tables the quality analyzer visits.
const DefaultMaxQualityTables = 5

// ConnectionConfig holds everything needed to reach one database. It is
// passed by value into each pipeline stage and never persisted beyond the
// lifetime of a single extraction run.
type ConnectionConfig struct {
	Dialect  string
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

// AnalysisOptions selects which pipeline stages run and how far they go.
type AnalysisOptions struct {
	// TestOnly stops the run after a successful connection probe.
	TestOnly bool
	// AnalyzeDataQuality enables per-table row/null/distinct profiling.
	AnalyzeDataQuality bool
	// DetectSensitiveData enables column-name classification.
	DetectSensitiveData bool
	// MaxQualityTables caps the quality analyzer's table selection.
	// Zero means DefaultMaxQualityTables.
	MaxQualityTables uint
	// SchemaFilter restricts introspection to a single schema when set.
	SchemaFilter string
}

// QualityTableCap returns the effective table cap for quality analysis.
func (o AnalysisOptions) QualityTableCap() int {
	if o.MaxQualityTables == 0 {
		return DefaultMaxQualityTables
	}
	return int(o.MaxQualityTables)
}

// DefaultAnalysisOptions returns the options used when the caller specifies
// nothing: full extraction with classification, no quality profiling.
func DefaultAnalysisOptions() AnalysisOptions {
	return AnalysisOptions{
		DetectSensitiveData: true,
		MaxQualityTables:    DefaultMaxQualityTables,
	}
}
