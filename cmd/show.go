package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/duckchat/internal"
	"github.com/spf13/cobra"
)

var (
	limit int
	since string
)

var (
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	unansweredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a saved session",
	Long:  `Replay a saved session and print its prompts and answers.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		session, err := internal.NewReconstructor(a.logs).Load(args[0])
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		turns, err := filterTurns(session.Turns, since, limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		displaySessionHeader(out, session)
		renderer := internal.NewTerminalRenderer(out)
		for _, turn := range turns {
			renderer.Prompt(turn, true)
			content, ok := turn.Response.AssistantContent()
			if !ok {
				fmt.Fprintln(out, unansweredStyle.Render("(no answer)"))
				fmt.Fprintln(out)
				continue
			}
			internal.RenderResponse(renderer, content)
		}

		if remaining := len(session.Turns) - len(turns); remaining > 0 && since == "" {
			fmt.Fprintln(out, unansweredStyle.Render(fmt.Sprintf("... (%d more turn(s))", remaining)))
		}
		return nil
	},
}

// filterTurns keeps turns created at or after sinceArg (RFC3339) and then the
// first n of them when n > 0
func filterTurns(turns []internal.ChatTurn, sinceArg string, n int) ([]internal.ChatTurn, error) {
	out := turns
	if sinceArg != "" {
		sinceTime, err := time.Parse(time.RFC3339, sinceArg)
		if err != nil {
			return nil, fmt.Errorf("invalid --since timestamp format (expected RFC3339): %w", err)
		}
		out = make([]internal.ChatTurn, 0, len(turns))
		for _, turn := range turns {
			if !turn.GetCreatedAt().Before(sinceTime) {
				out = append(out, turn)
			}
		}
	}
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out, nil
}

func displaySessionHeader(out io.Writer, session *internal.Session) {
	fmt.Fprintln(out, sessionHeaderStyle.Render("Session "+session.ID))

	created := time.Unix(session.Metadata.CreatedTime, 0).Format(internal.PreviewTimeFormat)
	meta := []string{
		fmt.Sprintf("Created: %s", created),
		fmt.Sprintf("Turns: %d", len(session.Turns)),
		fmt.Sprintf("System: %s", session.System.Content),
	}
	fmt.Fprintln(out, sessionMetaStyle.Render(strings.Join(meta, " • ")))
	fmt.Fprintln(out)
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of turns to show")
	showCmd.Flags().StringVar(&since, "since", "", "Show turns since timestamp (RFC3339)")
}
