package extractor

import (
	"time"

	"github.com/sourcescan/sourcescan/internal/database"
)

// Column is one column of an introspected table.
type Column struct {
	Name     string  `json:"column_name"`
	DataType string  `json:"data_type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default,omitempty"`
}

// ForeignKey is one foreign-key edge of an introspected table.
type ForeignKey struct {
	Column    string `json:"column"`
	RefTable  string `json:"referenced_table"`
	RefColumn string `json:"referenced_column"`
}

// Index is one index of an introspected table.
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"column_names"`
	Unique  bool     `json:"unique"`
}

// Table is one introspected table. Column order follows the catalog's
// ordinal positions; table order within a schema follows the catalog's
// native enumeration order.
type Table struct {
	Name        string       `json:"table_name"`
	Columns     []Column     `json:"columns"`
	PrimaryKeys []string     `json:"primary_keys"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
	Indexes     []Index      `json:"indexes"`
}

// Schema is one introspected schema.
type Schema struct {
	Name   string  `json:"schema_name"`
	Tables []Table `json:"tables"`
}

// SchemaMetadata is the full structural picture of one database.
type SchemaMetadata struct {
	Dialect     string    `json:"database_type"`
	Database    string    `json:"database_name"`
	ExtractedAt time.Time `json:"extraction_timestamp"`
	Schemas     []Schema  `json:"schemas"`
}

// Confidence grades how strongly a column name matched a sensitive
// category.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// SensitiveFinding is a single sensitive-column classification. A column
// yields at most one finding; the first matching category in priority order
// wins.
type SensitiveFinding struct {
	Schema         string     `json:"schema_name"`
	Table          string     `json:"table_name"`
	Column         string     `json:"column_name"`
	DataType       string     `json:"data_type"`
	Category       string     `json:"category"`
	PatternMatched string     `json:"pattern_matched"`
	Confidence     Confidence `json:"confidence"`
}

// QualityRating is the coarse three-level table score.
type QualityRating string

const (
	RatingExcellent      QualityRating = "excellent"
	RatingGood           QualityRating = "good"
	RatingNeedsAttention QualityRating = "needs_attention"
)

// ColumnQuality holds the per-column profiling numbers.
type ColumnQuality struct {
	Column          string  `json:"column_name"`
	NullCount       int64   `json:"null_count"`
	NullPercentage  float64 `json:"null_percentage"`
	DistinctCount   int64   `json:"distinct_count"`
	UniquenessRatio float64 `json:"uniqueness_ratio"`
}

// QualityMetric holds the profiling result for one table. When Error is set
// the table could not be analyzed and the numeric fields are meaningless;
// the batch as a whole still succeeds.
type QualityMetric struct {
	Schema   string          `json:"schema_name"`
	Table    string          `json:"table_name"`
	RowCount int64           `json:"row_count"`
	Columns  []ColumnQuality `json:"columns,omitempty"`
	Rating   QualityRating   `json:"quality_rating,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Status of one extraction run, as seen by the polling presentation layer.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ExecutionSummary aggregates totals over the sub-results of a completed
// run.
type ExecutionSummary struct {
	TestOnly         bool           `json:"test_only,omitempty"`
	TotalSchemas     int            `json:"total_schemas"`
	TotalTables      int            `json:"total_tables"`
	TotalColumns     int            `json:"total_columns"`
	SensitiveColumns int            `json:"sensitive_columns_found"`
	CategoryCounts   map[string]int `json:"sensitive_categories,omitempty"`
	TablesAnalyzed   int            `json:"tables_analyzed_for_quality"`
}

// ExtractionResult is the aggregate root of one run. It is owned
// exclusively by that run and becomes immutable once Status is completed or
// failed.
type ExtractionResult struct {
	RunID             string                `json:"run_id,omitempty"`
	Status            Status                `json:"status"`
	StepsCompleted    []string              `json:"steps_completed"`
	ConnectionTest    *database.ProbeResult `json:"connection_test,omitempty"`
	SchemaMetadata    *SchemaMetadata       `json:"schema_metadata,omitempty"`
	SensitiveFindings []SensitiveFinding    `json:"sensitive_data,omitempty"`
	QualityMetrics    []QualityMetric       `json:"data_quality,omitempty"`
	Summary           *ExecutionSummary     `json:"execution_summary,omitempty"`
	Error             string                `json:"error,omitempty"`
	StartedAt         time.Time             `json:"started_at"`
	FinishedAt        *time.Time            `json:"finished_at,omitempty"`
}

// Clone returns a snapshot safe to hand to a polling caller. Top-level
// slices are copied; the stage sub-results they point at are never mutated
// after their stage completes.
func (r *ExtractionResult) Clone() *ExtractionResult {
	if r == nil {
		return nil
	}
	out := *r
	out.StepsCompleted = append([]string(nil), r.StepsCompleted...)
	out.SensitiveFindings = append([]SensitiveFinding(nil), r.SensitiveFindings...)
	out.QualityMetrics = append([]QualityMetric(nil), r.QualityMetrics...)
	return &out
}
