package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/attendance/internal"
	"github.com/iksnae/attendance/internal/export"
	"github.com/spf13/cobra"
)

// captureFlags are shared by the enroll and take-attendance commands
type captureFlags struct {
	photos  []string
	camera  int
	drop    []int
	dryRun  bool
	timeout int
}

func (f *captureFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.photos, "photo", "p", nil, "Photo file to upload (repeatable)")
	cmd.Flags().IntVarP(&f.camera, "camera", "c", 0, "Number of webcam frames to capture")
	cmd.Flags().IntSliceVar(&f.drop, "drop", nil, "Remove the item at this index before submitting (repeatable)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show the collected photos without submitting")
	cmd.Flags().IntVar(&f.timeout, "preview-timeout", 30, "Seconds to wait for photo previews")
}

var (
	enrollFlags     captureFlags
	enrollName      string
	enrollUSN       string
	enrollSemester  string
	enrollSection   string
	attendanceFlags captureFlags
	attendanceFmt   string
	attendanceOut   string
	attendanceNoLog bool
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a student from photos",
	Long: `Enroll a student by uploading photos of their face.

Photos come from files (--photo) and/or webcam frames (--camera N).
Semester and section default to the selected class.`,
	Example: `  attendance enroll --name "Asha Rao" --usn 1AM22CI001 -p asha1.jpg -p asha2.jpg
  attendance enroll --name "Asha Rao" --usn 1AM22CI001 --camera 3`,
	Annotations: map[string]string{routeAnnotation: internal.RouteEnroll},
	RunE: func(cmd *cobra.Command, args []string) error {
		screen := internal.NewEnrollScreen(application.session, application.client,
			internal.WithDecodeWorkers(application.cfg.DecodeWorkers))

		if err := collectMedia(cmd, screen, &enrollFlags); err != nil {
			return err
		}
		if enrollFlags.dryRun {
			return nil
		}

		form := internal.EnrollForm{
			Name:     enrollName,
			USN:      enrollUSN,
			Semester: enrollSemester,
			Section:  enrollSection,
		}
		var res internal.SubmissionResult
		_ = internal.ShowProgress(cmd.Context(), "Enrolling student", func() error {
			res = screen.SubmitEnrollment(cmd.Context(), form)
			return res.Err
		})
		if !res.Success {
			return res.Err
		}
		internal.PrintSuccess(res.Message)
		return nil
	},
}

var takeAttendanceCmd = &cobra.Command{
	Use:   "take-attendance",
	Short: "Mark attendance from class photos",
	Long: `Submit class photos for the selected class. The backend recognizes
the enrolled students and returns the present and absent rosters.

Successful results are kept in the local history unless --no-history is set.`,
	Example: `  attendance take-attendance -p class1.jpg -p class2.jpg
  attendance take-attendance --camera 2 --format md --output roll.md`,
	Annotations: map[string]string{routeAnnotation: internal.RouteTakeAttendance},
	RunE: func(cmd *cobra.Command, args []string) error {
		class, err := requireClass(cmd)
		if err != nil {
			return err
		}

		var exporter export.Exporter
		if attendanceFmt != "" {
			if exporter, err = export.NewExporter(attendanceFmt); err != nil {
				return err
			}
		}

		screen := internal.NewAttendanceScreen(application.session, application.client,
			internal.WithDecodeWorkers(application.cfg.DecodeWorkers))
		if err := collectMedia(cmd, screen, &attendanceFlags); err != nil {
			return err
		}
		if attendanceFlags.dryRun {
			return nil
		}

		var res internal.SubmissionResult
		_ = internal.ShowProgress(cmd.Context(), fmt.Sprintf("Taking attendance for %s", class.Subject), func() error {
			res = screen.SubmitAttendance(cmd.Context())
			return res.Err
		})
		if !res.Success {
			return res.Err
		}

		resp := res.Payload.(*internal.AttendanceResponse)
		report := internal.NewAttendanceReport(application.session.Get(), resp)
		if !attendanceNoLog {
			if id, err := application.history.Append(report); err != nil {
				internal.LogWarn("Result not saved to history: %v", err)
			} else {
				internal.LogDebug("Saved result %s", id)
			}
		}

		internal.PrintSuccess(res.Message)
		if exporter != nil {
			return writeReport(cmd, exporter, report, attendanceOut)
		}
		printRoster(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	enrollFlags.register(enrollCmd)
	enrollCmd.Flags().StringVar(&enrollName, "name", "", "Student name")
	enrollCmd.Flags().StringVar(&enrollUSN, "usn", "", "University seat number")
	enrollCmd.Flags().StringVar(&enrollSemester, "semester", "", "Semester (defaults to the selected class)")
	enrollCmd.Flags().StringVar(&enrollSection, "section", "", "Section (defaults to the selected class)")

	attendanceFlags.register(takeAttendanceCmd)
	takeAttendanceCmd.Flags().StringVarP(&attendanceFmt, "format", "f", "", "Write the result as jsonl, md, yaml or json")
	takeAttendanceCmd.Flags().StringVarP(&attendanceOut, "output", "o", "", "Output file for --format (default stdout)")
	takeAttendanceCmd.Flags().BoolVar(&attendanceNoLog, "no-history", false, "Do not keep the result in the local history")

	rootCmd.AddCommand(enrollCmd)
	rootCmd.AddCommand(takeAttendanceCmd)
}

// collectMedia fills the screen's pipeline from files and the webcam,
// applies removals and prints the resulting previews
func collectMedia(cmd *cobra.Command, screen *internal.Screen, f *captureFlags) error {
	p := screen.Pipeline()
	ctx := cmd.Context()

	if len(f.photos) > 0 {
		blobs, err := internal.LoadBlobs(f.photos...)
		if err != nil {
			return err
		}
		p.Enqueue(blobs...)
	}

	if f.camera > 0 {
		src, err := application.cfg.FrameSource()
		if err != nil {
			return &internal.CaptureError{Source: "camera", Err: err}
		}
		for i := 0; i < f.camera; i++ {
			if _, err := p.Capture(ctx, src); err != nil {
				internal.PrintWarning(fmt.Sprintf("Frame %d/%d: %v", i+1, f.camera, err))
			}
		}
	}

	for _, idx := range f.drop {
		if err := p.RemoveAt(idx); err != nil {
			return err
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, secondsOr(f.timeout, 30))
	defer cancel()
	if err := p.Wait(waitCtx); err != nil {
		internal.LogWarn("Some previews are still decoding: %v", err)
	}

	printPreviews(cmd.OutOrStdout(), p.Snapshot())
	return nil
}

func printPreviews(w io.Writer, items []internal.MediaItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No photos collected")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, headerStyle.Render("#")+"\t"+headerStyle.Render("PHOTO")+"\t"+headerStyle.Render("TYPE")+"\t"+headerStyle.Render("SIZE")+"\t"+headerStyle.Render("PREVIEW"))
	for i, item := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			i,
			item.Blob.Name,
			orDash(item.Blob.MIMEType),
			humanize.Bytes(uint64(len(item.Blob.Data))),
			previewState(item.Preview),
		)
	}
	_ = tw.Flush()
}

func previewState(p internal.Preview) string {
	switch {
	case p.Pending:
		return dateStyle.Render("decoding")
	case p.Err != "":
		return errorStyle.Render("unreadable")
	default:
		return countStyle.Render(fmt.Sprintf("%dx%d", p.Width, p.Height))
	}
}

func printRoster(w io.Writer, r *internal.Report) {
	present := append([]string(nil), r.Present...)
	absent := append([]string(nil), r.Absent...)
	sort.Strings(present)
	sort.Strings(absent)

	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Present (%d)", len(present))))
	for _, s := range present {
		fmt.Fprintf(w, "  %s\n", successStyle.Render(s))
	}
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Absent (%d)", len(absent))))
	for _, s := range absent {
		fmt.Fprintf(w, "  %s\n", errorStyle.Render(s))
	}
	if r.SheetURL != "" {
		fmt.Fprintf(w, "\nSheet: %s\n", r.SheetURL)
	}
}

// writeReport exports r to path, or to stdout when path is empty
func writeReport(cmd *cobra.Command, exporter export.Exporter, r *internal.Report, path string) error {
	if path == "" {
		return exporter.Export(r, cmd.OutOrStdout())
	}
	if filepath.Ext(path) == "" {
		path += "." + exporter.Extension()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	defer f.Close()

	if err := exporter.Export(r, f); err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	internal.PrintSuccess(fmt.Sprintf("Wrote %s", path))
	return nil
}

func secondsOr(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}
