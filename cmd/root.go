package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/duckchat/internal"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	storagePath string
	apiKey      string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd starts an interactive chat when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "duckchat",
	Short: "Chat with an OpenAI model from your terminal",
	Long: `A terminal chat client for OpenAI-compatible completion APIs.

Every conversation is stored as an append-only log under the data directory
(~/.duckchat by default) and can be resumed, listed, exported or pruned.

Inside the chat:
  .help, .h        Show the available commands
  .sessions, .s    List saved sessions; ".sessions <n>" switches to one
  .print, .p       Print the current session
  .new, .n         Start a new session
  .exit, .e        Quit
  <n>              Copy code snippet n of the last answer

Quick Start:
  duckchat                        # Start or resume a chat
  duckchat list                   # List saved sessions
  duckchat export <id> --format md`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:    cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			internal.LogWarn("Failed to load .env: %v", err)
		}
	},
	RunE: runChat,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Custom data directory (default ~/.duckchat)")
	rootCmd.Flags().StringVar(&apiKey, "api-key", "", "API key (defaults to OPENAI_API_KEY)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
