package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/iksnae/duckchat/internal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var inspectFormat string

// inspectReport is the raw view of one session log
type inspectReport struct {
	SessionID   string         `json:"session_id" yaml:"session_id"`
	Path        string         `json:"path" yaml:"path"`
	Lines       int            `json:"lines" yaml:"lines"`
	TurnRecords int            `json:"turn_records" yaml:"turn_records"`
	Turns       int            `json:"turns" yaml:"turns"`
	Unanswered  int            `json:"unanswered" yaml:"unanswered"`
	Duplicates  map[string]int `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
	Active      bool           `json:"active" yaml:"active"`
	LastRecord  string         `json:"last_record,omitempty" yaml:"last_record,omitempty"`
}

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the raw log of a session",
	Long: `Inspect the append-only log behind a session.

This command reports:
  • Record counts (lines, turn records, turns after replay)
  • Unanswered turns
  • Turn ids that were written more than once
  • Whether the session is the active one

Examples:
  duckchat inspect <id>                  # Text report
  duckchat inspect <id> --format json    # JSON report`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := buildInspectReport(a, args[0])
		if err != nil {
			return err
		}
		return writeInspectReport(cmd.OutOrStdout(), report, inspectFormat)
	},
}

func buildInspectReport(a *app, sessionID string) (*inspectReport, error) {
	_, stats, err := internal.NewReconstructor(a.logs).LoadWithStats(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to replay session: %w", err)
	}

	report := &inspectReport{
		SessionID:   sessionID,
		Path:        a.logs.SessionPath(sessionID),
		Lines:       stats.Lines,
		TurnRecords: stats.TurnRecords,
		Turns:       stats.Turns,
		Unanswered:  stats.Unanswered,
		Duplicates:  stats.Duplicates,
		Active:      a.pointer.ActiveID() == sessionID,
	}
	if last, err := a.logs.ReadLastLine(sessionID); err == nil {
		report.LastRecord = last
	}
	return report, nil
}

func writeInspectReport(out io.Writer, report *inspectReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer func() { _ = enc.Close() }()
		return enc.Encode(report)
	case "text", "":
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", format)
	}

	fmt.Fprintf(out, "Session:      %s\n", report.SessionID)
	fmt.Fprintf(out, "Path:         %s\n", report.Path)
	fmt.Fprintf(out, "Active:       %t\n", report.Active)
	fmt.Fprintf(out, "Lines:        %d\n", report.Lines)
	fmt.Fprintf(out, "Turn records: %d\n", report.TurnRecords)
	fmt.Fprintf(out, "Turns:        %d\n", report.Turns)
	fmt.Fprintf(out, "Unanswered:   %d\n", report.Unanswered)

	if len(report.Duplicates) > 0 {
		ids := make([]string, 0, len(report.Duplicates))
		for id := range report.Duplicates {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		fmt.Fprintln(out, "Rewritten turns:")
		for _, id := range ids {
			fmt.Fprintf(out, "  %s x%d\n", id, report.Duplicates[id])
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json, yaml)")
}
