package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultReportPath(t *testing.T) {
	tests := []struct {
		dbName string
		want   string
	}{
		{"shop", "shop_metadata.json"},
		{"/data/app.db", "app.db_metadata.json"},
		{"", "database_metadata.json"},
	}
	for _, tt := range tests {
		if got := DefaultReportPath(tt.dbName); got != tt.want {
			t.Errorf("DefaultReportPath(%q) = %q, want %q", tt.dbName, got, tt.want)
		}
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	payload := map[string]any{"status": "completed", "steps_completed": []string{"connection_test"}}
	if err := WriteReport(path, payload); err != nil {
		t.Fatalf("WriteReport() returned unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report back: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded["status"] != "completed" {
		t.Errorf("decoded status = %v, want completed", decoded["status"])
	}
}

func TestWriteReport_BadPath(t *testing.T) {
	if err := WriteReport(filepath.Join(t.TempDir(), "missing", "report.json"), struct{}{}); err == nil {
		t.Error("expected error writing into a missing directory")
	}
}
