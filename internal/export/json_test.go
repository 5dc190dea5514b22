package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/iksnae/attendance/internal"
)

func TestJSONExporter_Export(t *testing.T) {
	tests := []struct {
		name   string
		report *internal.Report
	}{
		{"attendance", internal.CreateTestAttendanceReport("r1")},
		{"statistics", internal.CreateTestStatisticsReport("r2")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&JSONExporter{}).Export(tt.report, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			var got internal.Report
			if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("output is not valid JSON: %v", err)
			}
			if got.ID != tt.report.ID || got.Kind != tt.report.Kind {
				t.Errorf("decoded = %s/%s, want %s/%s", got.ID, got.Kind, tt.report.ID, tt.report.Kind)
			}
			if !bytes.Contains(buf.Bytes(), []byte("\n  \"")) {
				t.Error("output is not indented")
			}
		})
	}
}

func TestJSONExporter_Extension(t *testing.T) {
	if got := (&JSONExporter{}).Extension(); got != "json" {
		t.Errorf("Extension() = %q", got)
	}
}
