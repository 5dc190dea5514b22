package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/attendance/internal"
)

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{"jsonl", "jsonl", false},
		{"md", "md", false},
		{"markdown", "md", false},
		{"yaml", "yaml", false},
		{"yml", "yaml", false},
		{"json", "json", false},
		{"xml", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run("format "+tt.format, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewExporter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if tt.wantErr {
				if exporter != nil {
					t.Errorf("NewExporter(%q) returned %T, want nil", tt.format, exporter)
				}
				return
			}
			if got := exporter.Extension(); got != tt.wantExt {
				t.Errorf("Extension() = %q, want %q", got, tt.wantExt)
			}
		})
	}
}

// every format must carry the class and each student of the report
func TestNewExporter_ExportsReports(t *testing.T) {
	reports := []struct {
		name   string
		report *internal.Report
		want   map[string][]string
	}{
		{
			name:   "attendance",
			report: internal.CreateTestAttendanceReport("att-1"),
			want: map[string][]string{
				"json":  {`"subject": "DBMS"`, `"present": [`, "1AM22CI003"},
				"jsonl": {`"student":"1AM22CI001","status":"present"`, `"student":"1AM22CI003","status":"absent"`, `"date":"2024-03-04"`},
				"yaml":  {"subject: DBMS", "- 1AM22CI002", "absent:"},
				"md":    {"DBMS", "## Present (2)", "- 1AM22CI003"},
			},
		},
		{
			name:   "statistics",
			report: internal.CreateTestStatisticsReport("stats-1"),
			want: map[string][]string{
				"json":  {`"above_75": [`, `"percentage": 92.5`},
				"jsonl": {`"status":"above_75","percentage":92.5`, `"status":"below_75","percentage":40`},
				"yaml":  {"above_75:", "percentage: 92.5", "pdf_url: /media/statistics_5_A_DBMS.pdf"},
				"md":    {"| 1AM22CI001 | 92.50% |", "| 1AM22CI003 | 40.00% |", "/media/statistics_5_A_DBMS.pdf"},
			},
		},
	}

	for _, r := range reports {
		for format, wants := range r.want {
			t.Run(r.name+" "+format, func(t *testing.T) {
				exporter, err := NewExporter(format)
				if err != nil {
					t.Fatalf("NewExporter(%q) error = %v", format, err)
				}
				var buf bytes.Buffer
				if err := exporter.Export(r.report, &buf); err != nil {
					t.Fatalf("Export() error = %v", err)
				}
				out := buf.String()
				for _, want := range wants {
					if !strings.Contains(out, want) {
						t.Errorf("%s output missing %q:\n%s", format, want, out)
					}
				}
			})
		}
	}
}
