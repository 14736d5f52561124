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
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sourcescan/sourcescan/internal/config"
	"github.com/sourcescan/sourcescan/internal/extractor"
	"github.com/sourcescan/sourcescan/internal/runner"
	"github.com/sourcescan/sourcescan/internal/utils"
)

var (
	analyzeQuality   bool
	detectSensitive  bool
	maxQualityTables uint
	schemaFilter     string
	outputFile       string
)

var extractCmd = &cobra.Command{
	Use:     "extract",
	Short:   "Extract schema metadata and analyze the database",
	Long:    `Runs the full extraction pipeline: connection probe, schema introspection, sensitive-column detection, and optional data-quality analysis. The aggregated result is written as a JSON report.`,
	Example: `./sourcescan extract --dialect postgresql --host localhost --username user --password pass --database mydb --analyze-quality --out ./mydb_metadata.json`,
	RunE:    runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	if err := validateDialect(dialect); err != nil {
		return err
	}

	cfg := connectionConfig()
	opts := config.AnalysisOptions{
		AnalyzeDataQuality:  analyzeQuality,
		DetectSensitiveData: detectSensitive,
		MaxQualityTables:    maxQualityTables,
		SchemaFilter:        schemaFilter,
	}

	if outputFile == "" {
		outputFile = utils.DefaultReportPath(cfg.Database)
	}

	logger.Info("starting extraction",
		zap.String("dialect", cfg.Dialect),
		zap.String("database", cfg.Database))

	run := runner.NewRunner(logger, runner.NewRegistry(), runner.DefaultRetryOptions)
	runID, result, err := run.Run(cmd.Context(), cfg, opts)
	if err != nil {
		return fmt.Errorf("failed to start extraction run: %w", err)
	}

	if err := utils.WriteReport(outputFile, result); err != nil {
		return err
	}
	fmt.Printf("Report written to: %s (run %s)\n", outputFile, runID)

	if result.Status == extractor.StatusFailed {
		return fmt.Errorf("extraction failed: %s", result.Error)
	}
	return nil
}

func init() {
	extractCmd.Flags().BoolVar(&analyzeQuality, "analyze-quality", false, "Compute per-table data quality metrics")
	extractCmd.Flags().BoolVar(&detectSensitive, "detect-sensitive", true, "Classify sensitive columns by name")
	extractCmd.Flags().UintVar(&maxQualityTables, "max-quality-tables", config.DefaultMaxQualityTables, "Maximum number of tables to profile for quality")
	extractCmd.Flags().StringVar(&schemaFilter, "schema", "", "Restrict introspection to a single schema")
	extractCmd.Flags().StringVarP(&outputFile, "out", "o", "", "File path for the JSON report (optional, defaults to <database>_metadata.json)")
}
