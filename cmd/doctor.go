package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/attendance/internal"
	"github.com/spf13/cobra"
)

var (
	doctorVerbose bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, session store, backend and camera",
	Long: `Check the health of the attendance client by verifying:
  • State and config paths
  • Session store access
  • Backend reachability
  • Camera configuration

This command is useful when a submission fails before reaching the backend.`,
	Annotations: map[string]string{routeAnnotation: internal.RouteLanding},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0
		ok := func(msg string) { fmt.Fprintln(out, successStyle.Render("✅ "+msg)) }
		warn := func(msg string) { fmt.Fprintln(out, warningStyle.Render("⚠️  "+msg)) }
		fail := func(msg string, err error) {
			failed++
			fmt.Fprintln(out, errorStyle.Render("❌ "+msg+":"), err)
		}
		detail := func(format string, a ...interface{}) {
			if doctorVerbose {
				fmt.Fprintf(out, "   "+format+"\n", a...)
			}
		}

		fmt.Fprintln(out, sectionStyle.Render("🔍 Attendance Health Check"))
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 1: Detecting state paths..."))
		paths, err := internal.DetectStatePaths()
		if err != nil {
			fail("Failed to detect state paths", err)
		} else {
			ok("State paths detected")
			detail("Config: %s", paths.ConfigFile())
			detail("Data: %s", paths.DataDir)
			if !paths.ConfigExists() {
				warn("No config file, using defaults")
			}
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 2: Checking session store..."))
		if err := checkStore(out, application.store); err != nil {
			fail("Session store not readable", err)
		} else {
			ok(fmt.Sprintf("Session store (%s) readable", application.cfg.StoreDriver))
			s := application.session.Get()
			detail("Operator: %s", orDash(s.Identity))
			detail("Class: %s %s %s", orDash(s.Semester), orDash(s.Section), orDash(s.Subject))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 3: Contacting backend..."))
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		status, err := application.client.Ping(ctx)
		cancel()
		if err != nil {
			fail("Backend unreachable at "+application.client.BaseURL(), err)
		} else {
			ok("Backend reachable at " + application.client.BaseURL())
			detail("HTTP status: %d", status)
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 4: Checking camera..."))
		src, err := application.cfg.FrameSource()
		if err != nil {
			warn("No camera configured; only --photo uploads will work")
			detail("Set %s or %s", internal.KeyCameraCommand, internal.KeyCameraFile)
		} else {
			ok("Camera source: " + src.Name())
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		if failed > 0 {
			fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("❌ %d check(s) failed", failed)))
			return fmt.Errorf("health check failed")
		}
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVarP(&doctorVerbose, "details", "d", false, "Show detailed diagnostic information")
}

func checkStore(out io.Writer, store internal.KeyValueStore) error {
	if sq, ok := store.(*internal.SQLiteStore); ok {
		entries, err := sq.Entries()
		if err != nil {
			return err
		}
		if doctorVerbose {
			for _, e := range entries {
				fmt.Fprintf(out, "   %s = %s\n", e.Key, e.Value)
			}
		}
		return nil
	}
	_, _, err := store.Get(internal.KeyIdentity)
	return err
}
