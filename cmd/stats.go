package cmd

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/attendance/internal"
	"github.com/iksnae/attendance/internal/export"
	"github.com/spf13/cobra"
)

var (
	statsDownload string
	statsFormat   string
	statsOutput   string
	statsNoLog    bool
)

var statsCmd = &cobra.Command{
	Use:         "stats",
	Short:       "Attendance statistics for the selected class",
	Annotations: map[string]string{routeAnnotation: internal.RouteAttendanceStatistics},
}

var statsFilesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the attendance files recorded for the selected class",
	RunE: func(cmd *cobra.Command, args []string) error {
		class, err := requireClass(cmd)
		if err != nil {
			return err
		}

		var files []internal.AttendanceFile
		err = internal.ShowProgress(cmd.Context(), "Fetching attendance files", func() error {
			var fetchErr error
			files, fetchErr = application.client.AttendanceFiles(cmd.Context(), class)
			return fetchErr
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(files) == 0 {
			fmt.Fprintf(out, "No attendance files for semester %s, section %s, %s\n", class.Semester, class.Section, class.Subject)
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, headerStyle.Render("ID")+"\t"+headerStyle.Render("NAME"))
		for _, f := range files {
			fmt.Fprintf(tw, "%s\t%s\n", idStyle.Render(f.ID), f.Name)
		}
		_ = tw.Flush()
		fmt.Fprintf(out, "\nNext: attendance stats generate <id>\n")
		return nil
	},
}

var statsGenerateCmd = &cobra.Command{
	Use:   "generate <file-id>",
	Short: "Generate statistics for one attendance file",
	Long: `Ask the backend for the attendance percentages recorded in one
attendance file. Students are split at 75%. The PDF report produced by
the backend can be saved with --download.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireClass(cmd); err != nil {
			return err
		}

		var exporter export.Exporter
		if statsFormat != "" {
			var err error
			if exporter, err = export.NewExporter(statsFormat); err != nil {
				return err
			}
		}

		var resp *internal.StatisticsResponse
		err := internal.ShowProgress(cmd.Context(), "Generating statistics", func() error {
			var genErr error
			resp, genErr = application.client.GenerateStatistics(cmd.Context(), args[0])
			return genErr
		})
		if err != nil {
			return err
		}

		report := internal.NewStatisticsReport(application.session.Get(), resp)
		if !statsNoLog {
			if _, err := application.history.Append(report); err != nil {
				internal.LogWarn("Result not saved to history: %v", err)
			}
		}

		if statsDownload != "" && resp.PDFURL != "" {
			if err := downloadReport(cmd, resp.PDFURL, statsDownload); err != nil {
				return err
			}
		}

		if exporter != nil {
			return writeReport(cmd, exporter, report, statsOutput)
		}
		printStatistics(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	statsGenerateCmd.Flags().StringVarP(&statsDownload, "download", "d", "", "Save the PDF report to this file or directory")
	statsGenerateCmd.Flags().StringVarP(&statsFormat, "format", "f", "", "Write the statistics as jsonl, md, yaml or json")
	statsGenerateCmd.Flags().StringVarP(&statsOutput, "output", "o", "", "Output file for --format (default stdout)")
	statsGenerateCmd.Flags().BoolVar(&statsNoLog, "no-history", false, "Do not keep the result in the local history")

	statsCmd.AddCommand(statsFilesCmd)
	statsCmd.AddCommand(statsGenerateCmd)
	rootCmd.AddCommand(statsCmd)
}

func downloadReport(cmd *cobra.Command, ref, dest string) error {
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		name := path.Base(ref)
		if name == "." || name == "/" {
			name = "statistics.pdf"
		}
		dest = filepath.Join(dest, name)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer f.Close()

	var n int64
	err = internal.ShowProgress(cmd.Context(), "Downloading report", func() error {
		var dlErr error
		n, dlErr = application.client.Download(cmd.Context(), ref, f)
		return dlErr
	})
	if err != nil {
		_ = os.Remove(dest)
		return err
	}
	internal.PrintSuccess(fmt.Sprintf("Saved %s (%s)", dest, humanize.Bytes(uint64(n))))
	return nil
}

func printStatistics(w io.Writer, r *internal.Report) {
	table := func(title string, rows []internal.StudentPercentage) {
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("%s (%d)", title, len(rows))))
		if len(rows) == 0 {
			fmt.Fprintln(w, "  none")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, row := range rows {
			fmt.Fprintf(tw, "  %s\t%.2f%%\n", row.Student, row.Percentage)
		}
		_ = tw.Flush()
	}

	table("Above 75%", r.Above75)
	table("Below 75%", r.Below75)
	if r.PDFURL != "" {
		fmt.Fprintf(w, "\nReport: %s\n", r.PDFURL)
	}
}
