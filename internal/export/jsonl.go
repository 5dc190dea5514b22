package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/attendance/internal"
)

// JSONLExporter exports reports in JSONL format, one student per line
type JSONLExporter struct{}

type studentLine struct {
	Student    string   `json:"student"`
	Status     string   `json:"status"`
	Percentage *float64 `json:"percentage,omitempty"`
	Semester   string   `json:"semester"`
	Section    string   `json:"section"`
	Subject    string   `json:"subject"`
	Date       string   `json:"date"`
}

// Export writes one line per student. Attendance reports carry a
// present/absent status, statistics reports above_75/below_75.
func (e *JSONLExporter) Export(report *internal.Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	base := studentLine{
		Semester: report.Class.Semester,
		Section:  report.Class.Section,
		Subject:  report.Class.Subject,
		Date:     report.CreatedAt.Format("2006-01-02"),
	}

	emit := func(student, status string, pct *float64) error {
		line := base
		line.Student = student
		line.Status = status
		line.Percentage = pct
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode %s: %w", student, err)
		}
		return nil
	}

	for _, s := range report.Present {
		if err := emit(s, "present", nil); err != nil {
			return err
		}
	}
	for _, s := range report.Absent {
		if err := emit(s, "absent", nil); err != nil {
			return err
		}
	}
	for _, sp := range report.Above75 {
		pct := sp.Percentage
		if err := emit(sp.Student, "above_75", &pct); err != nil {
			return err
		}
	}
	for _, sp := range report.Below75 {
		pct := sp.Percentage
		if err := emit(sp.Student, "below_75", &pct); err != nil {
			return err
		}
	}
	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
