package extractor

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sourcescan/sourcescan/internal/config"
	"github.com/sourcescan/sourcescan/internal/database"
)

// qualityWorkers bounds the per-table analysis pool. The loop is I/O-bound
// and no table depends on another, so a small pool cuts wall-clock time
// without hammering the target.
const qualityWorkers = 4

// candidateTable is one table selected for quality analysis, carrying the
// column list already collected during introspection.
type candidateTable struct {
	schema  string
	table   string
	columns []Column
}

// AnalyzeQuality profiles up to maxTables tables: exact row count, per-column
// null and distinct counts, and a composite rating. Tables are selected in
// introspection order across all schemas, and results preserve that order. A
// per-table failure is recorded in that table's QualityMetric; it never
// aborts the batch.
func (s *Stages) AnalyzeQuality(ctx context.Context, cfg config.ConnectionConfig, meta *SchemaMetadata, maxTables int) ([]QualityMetric, error) {
	if meta == nil || maxTables <= 0 {
		return nil, nil
	}

	candidates := selectTables(meta, maxTables)
	if len(candidates) == 0 {
		return nil, nil
	}

	catalog, err := s.open(ctx, cfg)
	if err != nil {
		return nil, &ConnectionError{Msg: "opening profiling connection", Err: err}
	}
	defer catalog.Close()

	metrics := make([]QualityMetric, len(candidates))

	var wg sync.WaitGroup
	sem := make(chan struct{}, qualityWorkers)
	for i, cand := range candidates {
		wg.Add(1)
		go func(i int, cand candidateTable) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			metrics[i] = s.analyzeTable(ctx, catalog, cand)
		}(i, cand)
	}
	wg.Wait()

	s.logger.Info("data quality analysis finished",
		zap.String("database", cfg.Database),
		zap.Int("tables", len(metrics)))
	return metrics, nil
}

// selectTables picks the first max tables, iterating schemas then tables in
// the introspector's emitted order. The cap is the single limit bounding
// analysis time against arbitrarily large catalogs.
func selectTables(meta *SchemaMetadata, max int) []candidateTable {
	var selected []candidateTable
	for _, schema := range meta.Schemas {
		for _, table := range schema.Tables {
			if len(selected) == max {
				return selected
			}
			selected = append(selected, candidateTable{
				schema:  schema.Name,
				table:   table.Name,
				columns: table.Columns,
			})
		}
	}
	return selected
}

func (s *Stages) analyzeTable(ctx context.Context, catalog database.Catalog, cand candidateTable) QualityMetric {
	metric := QualityMetric{Schema: cand.schema, Table: cand.table}

	rowCount, err := catalog.RowCount(ctx, cand.schema, cand.table)
	if err != nil {
		metric.Error = (&TableAnalysisError{Schema: cand.schema, Table: cand.table, Err: err}).Error()
		return metric
	}
	metric.RowCount = rowCount

	for _, col := range cand.columns {
		nullCount, err := catalog.ColumnNullCount(ctx, cand.schema, cand.table, col.Name)
		if err != nil {
			metric.Error = (&TableAnalysisError{Schema: cand.schema, Table: cand.table, Err: err}).Error()
			metric.Columns = nil
			return metric
		}
		distinctCount, err := catalog.ColumnDistinctCount(ctx, cand.schema, cand.table, col.Name)
		if err != nil {
			metric.Error = (&TableAnalysisError{Schema: cand.schema, Table: cand.table, Err: err}).Error()
			metric.Columns = nil
			return metric
		}

		cq := ColumnQuality{
			Column:        col.Name,
			NullCount:     nullCount,
			DistinctCount: distinctCount,
		}
		if rowCount > 0 {
			cq.NullPercentage = float64(nullCount) / float64(rowCount) * 100
			cq.UniquenessRatio = float64(distinctCount) / float64(rowCount)
		}
		metric.Columns = append(metric.Columns, cq)
	}

	metric.Rating = rateTable(metric.Columns)
	return metric
}

// rateTable computes the composite rating from the per-column averages.
func rateTable(columns []ColumnQuality) QualityRating {
	if len(columns) == 0 {
		return RatingGood
	}

	var nullSum, uniqSum float64
	for _, col := range columns {
		nullSum += col.NullPercentage
		uniqSum += col.UniquenessRatio
	}
	avgNull := nullSum / float64(len(columns))
	avgUniq := uniqSum / float64(len(columns))

	switch {
	case avgNull < 5 && avgUniq > 0.9:
		return RatingExcellent
	case avgNull > 30 || avgUniq < 0.3:
		return RatingNeedsAttention
	default:
		return RatingGood
	}
}
