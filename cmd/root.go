package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/iksnae/attendance/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	verbose     bool
	cfgFile     string
	apiURL      string
	storeDriver string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// routeAnnotation names the workflow route a command renders
const routeAnnotation = "route"

// exit code for a navigation the route guard refused
const exitRedirect = 2

// app is the state shared by every command of one invocation
type app struct {
	cfg     *internal.Config
	store   internal.KeyValueStore
	session *internal.SessionContext
	client  *internal.Client
	history *internal.ResultLog
}

var application *app

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Face-recognition attendance from the terminal",
	Long: `A terminal client for the face-recognition attendance service.

Log in, choose a class, enroll students from their photos and take
attendance from class photos or the webcam. Statistics and the PDF
report are generated by the backend and can be downloaded from here.

Quick Start:
  attendance login                                   # Log in as faculty
  attendance choose --semester 5 --section A --subject DBMS
  attendance take-attendance --photo class1.jpg      # Mark attendance
  attendance stats files                             # List attendance files`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	Annotations:   map[string]string{routeAnnotation: internal.RouteLanding},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd); err != nil {
			return err
		}
		return guard(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	closeApp()
	if err == nil {
		return
	}

	var redirect *internal.RedirectError
	if errors.As(err, &redirect) {
		internal.PrintWarning(redirectGuidance(redirect))
		os.Exit(exitRedirect)
	}
	internal.PrintError(internal.FailureMessage(err))
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is <config dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Attendance API base URL")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "Session store driver: sqlite, redis or memory")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// setup resolves configuration and opens the session store
func setup(cmd *cobra.Command) error {
	internal.SetVerbose(verbose)
	closeApp()

	paths, err := internal.DetectStatePaths()
	if err != nil {
		return fmt.Errorf("failed to detect state paths: %w", err)
	}

	v := internal.NewViper(paths)
	bindFlag(v, cmd, internal.KeyAPIBaseURL, "api-url")
	bindFlag(v, cmd, internal.KeyStoreDriver, "store")

	configFile := cfgFile
	if configFile == "" {
		configFile = paths.ConfigFile()
	}
	cfg, err := internal.LoadConfig(v, configFile, paths.EnvFile())
	if err != nil {
		return err
	}
	if !verbose {
		if level, ok := internal.ParseLogLevel(cfg.LogLevel); ok {
			internal.SetLogLevel(level)
		}
	}

	store, err := cfg.OpenStore()
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	client, err := internal.NewClient(cfg.BaseURL(), cfg.APITimeout)
	if err != nil {
		_ = store.Close()
		return err
	}

	application = &app{
		cfg:     cfg,
		store:   store,
		session: internal.NewSessionContext(store),
		client:  client,
		history: internal.NewResultLog(cfg.HistoryDir),
	}
	internal.LogDebug("Using %s session store, API %s", cfg.StoreDriver, cfg.BaseURL())
	return nil
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, name string) {
	if f := cmd.Flags().Lookup(name); f != nil {
		_ = v.BindPFlag(key, f)
	}
}

// guard applies the route guard to the route the command renders
func guard(cmd *cobra.Command) error {
	route := commandRoute(cmd)
	d := internal.Decide(route, application.session.Get())
	if d.Allowed() {
		return nil
	}
	internal.LogDebug("Route %s redirected to %s", route, d.Redirect)
	return &internal.RedirectError{From: route, To: d.Redirect}
}

// commandRoute returns the nearest route annotation up the command tree
func commandRoute(cmd *cobra.Command) string {
	for c := cmd; c != nil; c = c.Parent() {
		if r, ok := c.Annotations[routeAnnotation]; ok {
			return r
		}
	}
	return internal.RouteLanding
}

func closeApp() {
	if application == nil {
		return
	}
	if err := application.store.Close(); err != nil {
		internal.LogWarn("Failed to close session store: %v", err)
	}
	application = nil
}

// redirectGuidance tells the operator which command renders the route the
// guard sent them to
func redirectGuidance(r *internal.RedirectError) string {
	switch r.To {
	case internal.RouteLogin:
		return fmt.Sprintf("%s needs a logged in operator. Run `attendance login` first.", r.From)
	case internal.RouteChooseSemester:
		return "Choose a class first: `attendance choose`."
	default:
		return fmt.Sprintf("%s is not available. Run `attendance --help` to see what is.", r.From)
	}
}

// commandForRoute maps a route to the command that renders it
func commandForRoute(route string) string {
	switch internal.NormalizeRoute(route) {
	case internal.RouteLogin:
		return "attendance login"
	case internal.RouteChooseSemester:
		return "attendance choose"
	case internal.RouteOptions, internal.RouteStudentDashboard, internal.RouteHODDashboard:
		return "attendance options"
	case internal.RouteEnroll:
		return "attendance enroll"
	case internal.RouteTakeAttendance:
		return "attendance take-attendance"
	case internal.RouteAttendanceStatistics:
		return "attendance stats"
	default:
		return "attendance status"
	}
}
