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
package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcescan/sourcescan/internal/config"
	"github.com/sourcescan/sourcescan/internal/database"
	_ "github.com/sourcescan/sourcescan/internal/database/postgres"
	"github.com/sourcescan/sourcescan/internal/extractor"
	"github.com/sourcescan/sourcescan/internal/runner"
)

// keepAliveDB hands the same mock pool to every stage without letting a
// stage's Close tear it down mid-test.
type keepAliveDB struct {
	*database.DB
}

func (keepAliveDB) Close() error { return nil }

func newPipelineFixture(t *testing.T) (sqlmock.Sqlmock, extractor.OrchestratorOption) {
	t.Helper()
	pool, mock, err := sqlmock.New(
		sqlmock.MonitorPingsOption(true),
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
	)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	mock.MatchExpectationsInOrder(false)

	handler, err := database.GetDialectHandler(config.DialectPostgres)
	require.NoError(t, err)

	stages := extractor.NewStages(nil,
		extractor.WithProbe(func(ctx context.Context, cfg config.ConnectionConfig, timeout time.Duration) database.ProbeResult {
			return database.ProbePool(ctx, pool, timeout)
		}),
		extractor.WithOpener(func(ctx context.Context, cfg config.ConnectionConfig) (database.Catalog, error) {
			return keepAliveDB{&database.DB{Pool: pool, Handler: handler, Config: cfg}}, nil
		}))
	return mock, extractor.WithStages(stages)
}

func expectProbe(mock sqlmock.Sqlmock) {
	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").
		WillReturnRows(sqlmock.NewRows([]string{"?"}).AddRow(1))
}

func expectShopSchema(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT schema_name").
		WillReturnRows(sqlmock.NewRows([]string{"schema_name"}).AddRow("public"))
	mock.ExpectQuery("SELECT table_name").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("users").
			AddRow("orders").
			AddRow("products"))

	columns := map[string][][]driverValue{
		"users": {
			{"email", "character varying", "NO", nil},
			{"password_hash", "character varying", "NO", nil},
			{"first_name", "character varying", "YES", nil},
		},
		"orders":   {{"order_number", "character varying", "NO", nil}},
		"products": {{"sku", "character varying", "NO", nil}},
	}
	for _, table := range []string{"users", "orders", "products"} {
		rows := sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default"})
		for _, col := range columns[table] {
			rows.AddRow(col[0], col[1], col[2], col[3])
		}
		mock.ExpectQuery("ORDER BY ordinal_position").
			WithArgs("public", table).
			WillReturnRows(rows)
		mock.ExpectQuery("PRIMARY KEY").
			WithArgs("public", table).
			WillReturnRows(sqlmock.NewRows([]string{"column_name"}))
		mock.ExpectQuery("FOREIGN KEY").
			WithArgs("public", table).
			WillReturnRows(sqlmock.NewRows([]string{"column_name", "ref_table", "ref_column"}))
		mock.ExpectQuery("FROM pg_class").
			WithArgs("public", table).
			WillReturnRows(sqlmock.NewRows([]string{"relname", "attname", "indisunique"}))
	}
}

type driverValue = interface{}

func newTestRunner(t *testing.T, orchOpt extractor.OrchestratorOption) *runner.Runner {
	t.Helper()
	retry := runner.RetryOptions{
		MaxAttempts:       1,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        time.Millisecond,
		BackoffMultiplier: 1.0,
	}
	return runner.NewRunner(nil, runner.NewRegistry(), retry, orchOpt)
}

func TestPipeline_EndToEnd(t *testing.T) {
	mock, orchOpt := newPipelineFixture(t)
	expectProbe(mock)
	expectShopSchema(mock)

	// Quality analysis capped at one table: only users is profiled
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "public"\."users"$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	for _, col := range []string{"email", "password_hash", "first_name"} {
		mock.ExpectQuery(`WHERE "` + col + `" IS NULL`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT COUNT\(DISTINCT "` + col + `"\)`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	}

	r := newTestRunner(t, orchOpt)
	runID, result, err := r.Run(context.Background(), config.ConnectionConfig{
		Dialect: config.DialectPostgres, Host: "localhost",
		Database: "shop", Username: "user", Password: "pass",
	}, config.AnalysisOptions{
		DetectSensitiveData: true,
		AnalyzeDataQuality:  true,
		MaxQualityTables:    1,
	})
	require.NoError(t, err)

	assert.Equal(t, extractor.StatusCompleted, result.Status)
	assert.Equal(t, []string{
		extractor.StepConnectionTest,
		extractor.StepSchemaExtraction,
		extractor.StepSensitiveDataDetection,
		extractor.StepDataQualityAnalysis,
	}, result.StepsCompleted)

	require.NotNil(t, result.SchemaMetadata)
	require.Len(t, result.SchemaMetadata.Schemas, 1)
	assert.Len(t, result.SchemaMetadata.Schemas[0].Tables, 3)

	// Exactly email, password_hash, first_name classify; order_number and
	// sku report nothing
	require.Len(t, result.SensitiveFindings, 3)
	categories := map[string]string{}
	for _, f := range result.SensitiveFindings {
		categories[f.Column] = f.Category
	}
	assert.Equal(t, "PII", categories["email"])
	assert.Equal(t, "Authentication", categories["password_hash"])
	assert.Equal(t, "PII", categories["first_name"])

	require.Len(t, result.QualityMetrics, 1)
	assert.Equal(t, "users", result.QualityMetrics[0].Table)
	assert.Equal(t, int64(4), result.QualityMetrics[0].RowCount)
	assert.Equal(t, extractor.RatingExcellent, result.QualityMetrics[0].Rating)

	snapshot, err := r.Registry().Get(runID)
	require.NoError(t, err)
	assert.Equal(t, extractor.StatusCompleted, snapshot.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPipeline_TestOnly(t *testing.T) {
	mock, orchOpt := newPipelineFixture(t)
	expectProbe(mock)

	r := newTestRunner(t, orchOpt)
	_, result, err := r.Run(context.Background(), config.ConnectionConfig{
		Dialect: config.DialectPostgres, Host: "localhost",
		Database: "shop", Username: "user", Password: "pass",
	}, config.AnalysisOptions{TestOnly: true})
	require.NoError(t, err)

	assert.Equal(t, extractor.StatusCompleted, result.Status)
	assert.Equal(t, []string{extractor.StepConnectionTest}, result.StepsCompleted)
	assert.Nil(t, result.SchemaMetadata)
	assert.Nil(t, result.SensitiveFindings)
	assert.Nil(t, result.QualityMetrics)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPipeline_WrongPasswordGatesRun(t *testing.T) {
	mock, orchOpt := newPipelineFixture(t)
	mock.ExpectPing().WillReturnError(errors.New("pq: password authentication failed for user \"user\""))

	r := newTestRunner(t, orchOpt)
	_, result, err := r.Run(context.Background(), config.ConnectionConfig{
		Dialect: config.DialectPostgres, Host: "localhost",
		Database: "shop", Username: "user", Password: "wrong",
	}, config.AnalysisOptions{DetectSensitiveData: true})
	require.NoError(t, err)

	assert.Equal(t, extractor.StatusFailed, result.Status)
	assert.Equal(t, []string{extractor.StepConnectionTest}, result.StepsCompleted)
	assert.Nil(t, result.SchemaMetadata)
	assert.Nil(t, result.SensitiveFindings)
	assert.Contains(t, result.Error, "password authentication failed")

	require.NotNil(t, result.ConnectionTest)
	assert.Equal(t, database.ProbeError, result.ConnectionTest.Status)
}
