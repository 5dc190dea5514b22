package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/attendance/internal"
)

// MarkdownExporter exports reports in Markdown format
type MarkdownExporter struct{}

// Export exports a report to Markdown format
func (e *MarkdownExporter) Export(report *internal.Report, w io.Writer) error {
	title := "Attendance"
	if report.Kind == internal.ReportStatistics {
		title = "Attendance Statistics"
	}
	_, _ = fmt.Fprintf(w, "# %s: %s\n\n", title, escapeMarkdown(report.Class.Subject))

	_, _ = fmt.Fprintf(w, "**Semester:** %s  \n", report.Class.Semester)
	_, _ = fmt.Fprintf(w, "**Section:** %s  \n", report.Class.Section)
	if report.Operator != "" {
		_, _ = fmt.Fprintf(w, "**Taken by:** %s  \n", escapeMarkdown(report.Operator))
	}
	_, _ = fmt.Fprintf(w, "**Date:** %s\n\n", report.CreatedAt.Format("2006-01-02 15:04"))

	if report.Message != "" {
		_, _ = fmt.Fprintf(w, "> %s\n\n", escapeMarkdown(report.Message))
	}

	switch report.Kind {
	case internal.ReportStatistics:
		writePercentages(w, "Above 75%", report.Above75)
		writePercentages(w, "Below 75%", report.Below75)
		if report.PDFURL != "" {
			_, _ = fmt.Fprintf(w, "[Download report](%s)\n", report.PDFURL)
		}
	default:
		writeRoster(w, fmt.Sprintf("Present (%d)", len(report.Present)), report.Present)
		writeRoster(w, fmt.Sprintf("Absent (%d)", len(report.Absent)), report.Absent)
		if report.SheetURL != "" {
			_, _ = fmt.Fprintf(w, "[Attendance sheet](%s)\n", report.SheetURL)
		}
	}
	return nil
}

func writeRoster(w io.Writer, heading string, students []string) {
	_, _ = fmt.Fprintf(w, "## %s\n\n", heading)
	if len(students) == 0 {
		_, _ = fmt.Fprintf(w, "_None_\n\n")
		return
	}
	for _, s := range students {
		_, _ = fmt.Fprintf(w, "- %s\n", escapeMarkdown(s))
	}
	_, _ = fmt.Fprintln(w)
}

func writePercentages(w io.Writer, heading string, rows []internal.StudentPercentage) {
	_, _ = fmt.Fprintf(w, "## %s\n\n", heading)
	if len(rows) == 0 {
		_, _ = fmt.Fprintf(w, "_None_\n\n")
		return
	}
	_, _ = fmt.Fprintf(w, "| Student | Attendance |\n|---|---|\n")
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "| %s | %.2f%% |\n", escapeMarkdown(r.Student), r.Percentage)
	}
	_, _ = fmt.Fprintln(w)
}

// escapeMarkdown escapes characters that would break inline rendering
func escapeMarkdown(text string) string {
	r := strings.NewReplacer("|", "\\|", "**", "\\*\\*", "__", "\\_\\_", "\n", " ")
	return r.Replace(text)
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
