package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/attendance/internal"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginUsername string
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	routeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)
)

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in as an operator",
	Long: `Log in against the attendance backend.

The password is read without echo when stdin is a terminal, otherwise
from the first line of stdin.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{routeAnnotation: internal.RouteLogin},
	RunE: func(cmd *cobra.Command, args []string) error {
		in := bufio.NewReader(cmd.InOrStdin())
		out := cmd.OutOrStdout()

		username := loginUsername
		if len(args) == 1 {
			username = args[0]
		}
		if username == "" {
			var err error
			if username, err = prompt(in, out, "Username: "); err != nil {
				return err
			}
		}
		password, err := readPassword(cmd.InOrStdin(), in, out)
		if err != nil {
			return err
		}
		if strings.TrimSpace(username) == "" || password == "" {
			return &internal.ValidationError{Fields: map[string]string{"credentials": "username and password are required"}}
		}

		var resp *internal.LoginResponse
		err = internal.ShowProgress(cmd.Context(), "Logging in", func() error {
			var loginErr error
			resp, loginErr = application.client.Login(cmd.Context(), username, password)
			return loginErr
		})
		if err != nil {
			return err
		}

		application.session.SetIdentity(username)
		home := internal.HomeFor(resp.Role)
		internal.PrintSuccess(fmt.Sprintf("Logged in as %s", username))
		fmt.Fprintf(out, "Next: %s %s\n", commandForRoute(home), routeStyle.Render("("+home+")"))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:         "logout",
	Short:       "Log out and forget the selected class",
	Annotations: map[string]string{routeAnnotation: internal.RouteLanding},
	RunE: func(cmd *cobra.Command, args []string) error {
		was := application.session.Get().Identity
		application.session.Logout()
		if was == "" {
			internal.PrintInfo("Not logged in")
			return nil
		}
		internal.PrintSuccess(fmt.Sprintf("Logged out %s", was))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:         "status",
	Short:       "Show the current operator and class",
	Annotations: map[string]string{routeAnnotation: internal.RouteLanding},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		s := application.session.Get()

		printField(out, "Operator", orDash(s.Identity))
		printField(out, "Semester", orDash(s.Semester))
		printField(out, "Section", orDash(s.Section))
		printField(out, "Subject", orDash(s.Subject))
		printField(out, "Backend", application.client.BaseURL())
		printField(out, "Store", application.cfg.StoreDriver)

		switch {
		case !s.LoggedIn():
			fmt.Fprintf(out, "\nNext: %s\n", commandForRoute(internal.RouteLogin))
		case s.Subject == "":
			fmt.Fprintf(out, "\nNext: %s\n", commandForRoute(internal.RouteChooseSemester))
		default:
			fmt.Fprintf(out, "\nNext: %s\n", commandForRoute(internal.RouteOptions))
		}
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Check where a route would take you",
	Long: `Run the route guard for a path, e.g. /take-attendance, and print
the command that renders the resulting view.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeAnnotation: internal.RouteLanding},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		path := internal.NormalizeRoute(args[0])
		d := internal.Decide(path, application.session.Get())
		if d.Allowed() {
			fmt.Fprintf(out, "%s %s\n", routeStyle.Render(path), commandForRoute(path))
			return nil
		}
		fmt.Fprintf(out, "%s -> %s %s\n", routeStyle.Render(path), routeStyle.Render(d.Redirect), commandForRoute(d.Redirect))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (prompted when omitted)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(openCmd)
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo from a terminal, else one line of in
func readPassword(raw io.Reader, in *bufio.Reader, out io.Writer) (string, error) {
	if f, ok := raw.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-9s", label+":")), valueStyle.Render(value))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
