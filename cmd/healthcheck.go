package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/duckchat/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckDetails bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that duckchat can read and write its data",
	Long: `Check the health of duckchat by verifying:
  • Data directory and config file
  • Active-session pointer store
  • That every saved session replays
  • That an API key is configured`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if failed := runHealthcheck(out); failed > 0 {
			return fmt.Errorf("health check failed: %d problem(s)", failed)
		}
		return nil
	},
}

// runHealthcheck prints each check and returns the number of failures
func runHealthcheck(out io.Writer) int {
	failed := 0
	fmt.Fprintln(out, sectionStyle.Render("duckchat health check"))
	fmt.Fprintln(out)

	fmt.Fprintln(out, infoStyle.Render("Step 1: Opening data directory..."))
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render("❌ Failed to open data directory:"), err)
		return 1
	}
	defer a.Close()
	fmt.Fprintln(out, successStyle.Render("✅ Data directory ready"))
	if healthcheckDetails {
		fmt.Fprintf(out, "   Root: %s\n", a.paths.Root)
		fmt.Fprintf(out, "   Sessions: %s\n", a.paths.Sessions)
		fmt.Fprintf(out, "   Config: %s\n", a.paths.Config)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, infoStyle.Render("Step 2: Reading active-session pointer..."))
	active, err := a.pointer.Get()
	switch {
	case err != nil:
		failed++
		fmt.Fprintln(out, errorStyle.Render("❌ Pointer store unreadable:"), err)
	case active == nil:
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Pointer store (%s) readable, no active session", a.cfg.PointerBackend)))
	default:
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Active session %s", active.SessionID)))
		if healthcheckDetails {
			fmt.Fprintf(out, "   Last active: %s\n", active.LastActive().Format(internal.PreviewTimeFormat))
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, infoStyle.Render("Step 3: Replaying sessions..."))
	ids, err := a.logs.List()
	if err != nil {
		failed++
		fmt.Fprintln(out, errorStyle.Render("❌ Failed to list sessions:"), err)
	} else {
		reconstructor := internal.NewReconstructor(a.logs)
		broken := 0
		for _, id := range ids {
			if _, err := reconstructor.Load(id); err != nil {
				broken++
				label := "unreadable"
				if internal.IsCorrupt(err) {
					label = "corrupt"
				}
				fmt.Fprintln(out, warningStyle.Render("⚠️  "+id+" ("+label+"):"), err)
			}
		}
		if broken > 0 {
			failed++
		}
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %d of %d session(s) replay cleanly", len(ids)-broken, len(ids))))
		if a.cfg.MaxSavedSessionCount > 0 && len(ids) > a.cfg.MaxSavedSessionCount {
			fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  %d sessions exceed the limit of %d; run 'duckchat prune'", len(ids), a.cfg.MaxSavedSessionCount)))
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, infoStyle.Render("Step 4: Checking API key..."))
	if os.Getenv("OPENAI_API_KEY") == "" {
		fmt.Fprintln(out, warningStyle.Render("⚠️  OPENAI_API_KEY is not set (use .env or --api-key)"))
	} else {
		fmt.Fprintln(out, successStyle.Render("✅ OPENAI_API_KEY is set"))
	}
	if healthcheckDetails {
		fmt.Fprintf(out, "   Model: %s\n", a.cfg.Model)
		if a.cfg.APIBaseURL != "" {
			fmt.Fprintf(out, "   Base URL: %s\n", a.cfg.APIBaseURL)
		}
	}
	fmt.Fprintln(out)

	if failed == 0 {
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
	} else {
		fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
	}
	return failed
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckDetails, "details", "d", false, "Show detailed diagnostic information")
}
