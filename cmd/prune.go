package cmd

import (
	"fmt"
	"sort"

	"github.com/iksnae/duckchat/internal"
	"github.com/spf13/cobra"
)

var pruneMax int

// pruneCmd deletes the oldest sessions beyond a limit
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old sessions",
	Long: `Delete the least recently active sessions so that at most --max remain.

Without --max the max_saved_session_count setting is used. The active
session is never deleted, except by --max 0 unless
protect_active_session_on_purge is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		max := a.cfg.MaxSavedSessionCount
		if cmd.Flags().Changed("max") {
			max = pruneMax
		}

		report, err := a.retention().EnforceLimit(max)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, id := range report.Deleted {
			fmt.Fprintf(out, "deleted %s\n", id)
		}
		for _, id := range report.Skipped {
			fmt.Fprintf(out, "kept active session %s\n", id)
		}
		failed := make([]string, 0, len(report.Failed))
		for id := range report.Failed {
			failed = append(failed, id)
		}
		sort.Strings(failed)
		for _, id := range failed {
			internal.PrintWarning(fmt.Sprintf("could not delete %s: %v", id, report.Failed[id]))
		}

		internal.PrintSuccess(fmt.Sprintf("Deleted %d session(s), %d remaining", len(report.Deleted), report.Kept))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().IntVar(&pruneMax, "max", 0, "Number of sessions to keep")
}
