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
package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultReportPath derives the report file name from the database name. An
// empty database name (sqlite path configs carry the path in Database) still
// yields a usable file name.
func DefaultReportPath(dbName string) string {
	base := filepath.Base(dbName)
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "database"
	}
	return fmt.Sprintf("%s_metadata.json", base)
}

// WriteReport marshals v as indented JSON into path.
func WriteReport(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report file '%s': %w", path, err)
	}
	return nil
}

// PrintReport writes v as indented JSON to stdout.
func PrintReport(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}
	return nil
}
