package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/iksnae/duckchat/testutil"
	"github.com/spf13/cobra"
)

// executeCommand runs rootCmd with args and returns what it wrote
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetBoolFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.Execute()
	return out.String(), err
}

// resetBoolFlags clears --help and --version, which cobra keeps set between
// executions of the same command tree
func resetBoolFlags(c *cobra.Command) {
	for _, name := range []string{"help", "version"} {
		if f := c.Flags().Lookup(name); f != nil {
			_ = f.Value.Set("false")
			f.Changed = false
		}
	}
	for _, sub := range c.Commands() {
		resetBoolFlags(sub)
	}
}

// newDataDir creates a data directory and returns it with its sessions dir
func newDataDir(t *testing.T) (string, string) {
	t.Helper()
	root := testutil.CreateTempDir(t)
	return root, filepath.Join(root, "sessions")
}
