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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sourcescan/sourcescan/internal/config"
	_ "github.com/sourcescan/sourcescan/internal/database/mysql"
	_ "github.com/sourcescan/sourcescan/internal/database/postgres"
	_ "github.com/sourcescan/sourcescan/internal/database/sqlite"
	_ "github.com/sourcescan/sourcescan/internal/database/sqlserver"
)

var (
	// Database connection flags
	dialect  string
	host     string
	port     int
	username string
	password string
	dbName   string

	verbose bool

	logger *zap.Logger
)

var supportedDialects = []string{
	config.DialectPostgres,
	config.DialectMySQL,
	config.DialectSQLite,
	config.DialectSQLServer,
}

var rootCmd = &cobra.Command{
	Use:   "sourcescan",
	Short: "A tool to extract structural and quality metadata from databases",
	Long: `sourcescan is a CLI tool that connects to a relational database and
extracts structural metadata (schemas, tables, columns, keys, indexes),
classifies sensitive columns by name, and scores per-table data quality.`,
	SilenceUsage: true,
}

// initFlagsAndConfig resolves flags against SOURCESCAN_* environment
// variables and constructs the logger. Flags win over environment values.
func initFlagsAndConfig(cmd *cobra.Command, args []string) error {
	viper.SetEnvPrefix("SOURCESCAN")
	viper.AutomaticEnv()

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("failed to bind persistent flags: %w", err)
	}

	dialect = viper.GetString("dialect")
	host = viper.GetString("host")
	port = viper.GetInt("port")
	username = viper.GetString("username")
	password = viper.GetString("password")
	dbName = viper.GetString("database")

	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func validateDialect(dialect string) error {
	for _, supported := range supportedDialects {
		if dialect == supported {
			return nil
		}
	}
	return fmt.Errorf("unsupported dialect: %s (only %s are supported)", dialect, strings.Join(supportedDialects, ", "))
}

// connectionConfig assembles the connection config from the resolved flags.
func connectionConfig() config.ConnectionConfig {
	return config.ConnectionConfig{
		Dialect:  dialect,
		Host:     host,
		Port:     port,
		Database: dbName,
		Username: username,
		Password: password,
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	defer func() {
		if logger != nil {
			logger.Sync()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentPreRunE = initFlagsAndConfig

	// Database connection flags
	rootCmd.PersistentFlags().StringVar(&dialect, "dialect", "", fmt.Sprintf("Database dialect (%s) - MANDATORY", strings.Join(supportedDialects, ", ")))
	rootCmd.PersistentFlags().StringVar(&host, "host", "", "Database host (not used for sqlite)")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "Database port (defaults per dialect: 5432, 3306, 1433)")
	rootCmd.PersistentFlags().StringVar(&username, "username", "", "Database username (not used for sqlite)")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "Database password (can also be set via SOURCESCAN_PASSWORD)")
	rootCmd.PersistentFlags().StringVar(&dbName, "database", "", "Database name, or filesystem path for sqlite - MANDATORY")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(testConnectionCmd)
}
