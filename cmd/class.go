package cmd

import (
	"bufio"
	"fmt"

	"github.com/iksnae/attendance/internal"
	"github.com/spf13/cobra"
)

var (
	chooseSemester string
	chooseSection  string
	chooseSubject  string
)

var chooseCmd = &cobra.Command{
	Use:   "choose",
	Short: "Choose the semester, section and subject to work on",
	Long: `Choose the class every later command works on.

The subject is prompted for when omitted and stdin is a terminal.`,
	Annotations: map[string]string{routeAnnotation: internal.RouteChooseSemester},
	RunE: func(cmd *cobra.Command, args []string) error {
		class := internal.ClassSelection{
			Semester: chooseSemester,
			Section:  chooseSection,
			Subject:  chooseSubject,
		}
		if class.Subject == "" && internal.IsInteractive() {
			subject, err := prompt(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout(), "Subject: ")
			if err != nil {
				return err
			}
			class.Subject = subject
		}
		if err := internal.Validate(class); err != nil {
			return err
		}

		application.session.SelectClass(class)
		internal.PrintSuccess(fmt.Sprintf("Semester %s, section %s, %s", class.Semester, class.Section, class.Subject))
		fmt.Fprintf(cmd.OutOrStdout(), "Next: %s\n", commandForRoute(internal.RouteOptions))
		return nil
	},
}

var optionsCmd = &cobra.Command{
	Use:         "options",
	Short:       "Show the class and what you can do with it",
	Annotations: map[string]string{routeAnnotation: internal.RouteOptions},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		s := application.session.Get()

		fmt.Fprintln(out, sectionStyle.Render("Class Information"))
		printField(out, "Semester", orDash(s.Semester))
		printField(out, "Section", orDash(s.Section))
		printField(out, "Subject", orDash(s.Subject))
		fmt.Fprintln(out)

		fmt.Fprintln(out, sectionStyle.Render("What would you like to do?"))
		for _, route := range []string{internal.RouteEnroll, internal.RouteTakeAttendance, internal.RouteAttendanceStatistics} {
			fmt.Fprintf(out, "  %-28s %s\n", commandForRoute(route), routeStyle.Render(route))
		}
		if s.Subject == "" {
			fmt.Fprintf(out, "\nNo class selected yet: %s\n", commandForRoute(internal.RouteChooseSemester))
		}
		return nil
	},
}

func init() {
	chooseCmd.Flags().StringVar(&chooseSemester, "semester", "1", "Semester (1-8)")
	chooseCmd.Flags().StringVar(&chooseSection, "section", "A", "Section (A-G)")
	chooseCmd.Flags().StringVar(&chooseSubject, "subject", "", "Subject name")

	rootCmd.AddCommand(chooseCmd)
	rootCmd.AddCommand(optionsCmd)
}

// requireClass redirects to the class chooser when no subject is selected
func requireClass(cmd *cobra.Command) (internal.ClassSelection, error) {
	class := application.session.Get().Class()
	if class.Subject == "" || class.Semester == "" || class.Section == "" {
		return class, &internal.RedirectError{From: commandRoute(cmd), To: internal.RouteChooseSemester}
	}
	return class, nil
}
