package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/duckchat/internal"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	currentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	Long:  `List saved chat sessions, newest first, with their last prompt.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		previews, err := internal.ListPreviews(a.logs, internal.NewReconstructor(a.logs), a.pointer.ActiveID())
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		displayPreviews(cmd.OutOrStdout(), previews, time.Now())
		return nil
	},
}

func displayPreviews(out io.Writer, previews []internal.SessionPreview, now time.Time) {
	if len(previews) == 0 {
		fmt.Fprintln(out, headerStyle.Render("No sessions found"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Found %d session(s)", len(previews))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Last Active")+"\t"+titleStyle.Render("Last Prompt")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

	for _, p := range previews {
		prompt := lastPrompt(p)
		if len(prompt) > 60 {
			prompt = prompt[:57] + "..."
		}
		if p.Active {
			prompt = currentStyle.Render("[Current] ") + prompt
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t\n", idStyle.Render(p.SessionID), dateStyle.Render(formatRelative(p.LastActive, now)), prompt)
	}
	_ = w.Flush()
}

// lastPrompt strips the timestamp and marker from a preview line
func lastPrompt(p internal.SessionPreview) string {
	text := p.DisplayText
	if i := strings.Index(text, "] "); i >= 0 {
		text = text[i+2:]
	}
	return strings.TrimPrefix(text, "[Current Session] ")
}

func formatRelative(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
