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
	"time"

	"github.com/spf13/cobra"

	"github.com/sourcescan/sourcescan/internal/config"
	"github.com/sourcescan/sourcescan/internal/extractor"
	"github.com/sourcescan/sourcescan/internal/runner"
	"github.com/sourcescan/sourcescan/internal/utils"
)

var connectTimeout time.Duration

var testConnectionCmd = &cobra.Command{
	Use:     "test-connection",
	Short:   "Verify database connectivity and credentials",
	Long:    `Opens a short-lived connection, runs a trivial round-trip query, and reports reachability. No schema is read.`,
	Example: `./sourcescan test-connection --dialect mysql --host localhost --username user --password pass --database mydb`,
	RunE:    runTestConnection,
}

func runTestConnection(cmd *cobra.Command, args []string) error {
	if err := validateDialect(dialect); err != nil {
		return err
	}

	cfg := connectionConfig()
	opts := config.AnalysisOptions{TestOnly: true}

	run := runner.NewRunner(logger, runner.NewRegistry(), runner.DefaultRetryOptions,
		extractor.WithStagePolicy(extractor.StepConnectionTest, extractor.StagePolicy{Timeout: connectTimeout}))
	_, result, err := run.Run(cmd.Context(), cfg, opts)
	if err != nil {
		return fmt.Errorf("failed to start connection test: %w", err)
	}

	if err := utils.PrintReport(result.ConnectionTest); err != nil {
		return err
	}
	if result.Status == extractor.StatusFailed {
		return fmt.Errorf("connection test failed: %s", result.Error)
	}
	return nil
}

func init() {
	testConnectionCmd.Flags().DurationVar(&connectTimeout, "connect-timeout", config.DefaultConnectTimeout, "Connection probe timeout")
}
