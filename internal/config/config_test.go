package config

import "testing"

func TestQualityTableCap(t *testing.T) {
	tests := []struct {
		name string
		opts AnalysisOptions
		want int
	}{
		{"zero_uses_default", AnalysisOptions{}, DefaultMaxQualityTables},
		{"explicit_cap", AnalysisOptions{MaxQualityTables: 3}, 3},
		{"cap_above_default", AnalysisOptions{MaxQualityTables: 50}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.QualityTableCap(); got != tt.want {
				t.Errorf("QualityTableCap() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDefaultAnalysisOptions(t *testing.T) {
	opts := DefaultAnalysisOptions()
	if !opts.DetectSensitiveData {
		t.Error("expected sensitive-data detection enabled by default")
	}
	if opts.TestOnly {
		t.Error("expected full extraction by default")
	}
	if opts.QualityTableCap() != DefaultMaxQualityTables {
		t.Errorf("QualityTableCap() = %d, want %d", opts.QualityTableCap(), DefaultMaxQualityTables)
	}
}
