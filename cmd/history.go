package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/attendance/internal"
	"github.com/iksnae/attendance/internal/export"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historySince  string
	historyFormat string
	historyOutput string
)

var historyCmd = &cobra.Command{
	Use:         "history",
	Short:       "Results kept on this machine",
	Annotations: map[string]string{routeAnnotation: internal.RouteOptions},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved attendance and statistics results",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := application.history.Index()
		if err != nil {
			return err
		}

		if historySince != "" {
			cutoff, err := parseSince(historySince)
			if err != nil {
				return err
			}
			filtered := entries[:0]
			for _, e := range entries {
				if !e.CreatedAt.Before(cutoff) {
					filtered = append(filtered, e)
				}
			}
			entries = filtered
		}
		if historyLimit > 0 && len(entries) > historyLimit {
			entries = entries[:historyLimit]
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No saved results")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, headerStyle.Render("ID")+"\t"+headerStyle.Render("KIND")+"\t"+headerStyle.Render("CLASS")+"\t"+headerStyle.Render("COUNTS")+"\t"+headerStyle.Render("WHEN"))
		for _, e := range entries {
			counts := fmt.Sprintf("%d present / %d absent", e.Present, e.Absent)
			if e.Kind == internal.ReportStatistics {
				counts = fmt.Sprintf("%d above / %d below 75%%", e.Present, e.Absent)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				idStyle.Render(shortID(e.ID)),
				e.Kind,
				titleStyle.Render(fmt.Sprintf("%s %s%s", e.Subject, e.Semester, e.Section)),
				countStyle.Render(counts),
				dateStyle.Render(humanize.Time(e.CreatedAt)),
			)
		}
		return tw.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one saved result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := application.history.Load(args[0])
		if err != nil {
			return err
		}

		if historyFormat != "" {
			exporter, err := export.NewExporter(historyFormat)
			if err != nil {
				return err
			}
			return writeReport(cmd, exporter, report, historyOutput)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s: %s", report.Kind, report.Class.Subject)))
		printField(out, "Semester", report.Class.Semester)
		printField(out, "Section", report.Class.Section)
		printField(out, "Operator", orDash(report.Operator))
		printField(out, "Taken", report.CreatedAt.Format(time.RFC1123))
		fmt.Fprintln(out)

		if report.Kind == internal.ReportStatistics {
			printStatistics(out, report)
		} else {
			printRoster(out, report)
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved result",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.history.Clear(); err != nil {
			return err
		}
		internal.PrintSuccess("History cleared")
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 0, "Show at most this many results")
	historyListCmd.Flags().StringVar(&historySince, "since", "", "Only results newer than this (e.g. 7d, 12h, 2024-03-01)")
	historyShowCmd.Flags().StringVarP(&historyFormat, "format", "f", "", "Write the result as jsonl, md, yaml or json")
	historyShowCmd.Flags().StringVarP(&historyOutput, "output", "o", "", "Output file for --format (default stdout)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

// parseSince accepts a duration with an optional day suffix or a date
func parseSince(s string) (time.Time, error) {
	if n := len(s); n > 1 && s[n-1] == 'd' {
		if days, err := strconv.Atoi(s[:n-1]); err == nil {
			return time.Now().AddDate(0, 0, -days), nil
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return time.Now().Add(-d), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --since value %q (use 7d, 12h or 2006-01-02)", s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
