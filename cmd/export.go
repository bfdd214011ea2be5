package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/duckchat/internal"
	"github.com/iksnae/duckchat/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export sessions to file",
	Long: `Export saved sessions to various formats (jsonl, md, yaml, json).

Pass a session id to export one session, or no id to export every session.
Use 'duckchat list' to see available session IDs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var ids []string
		if len(args) == 1 {
			if !a.logs.Exists(args[0]) {
				return fmt.Errorf("session not found: %s (use 'duckchat list' to see available sessions)", args[0])
			}
			ids = []string{args[0]}
		} else {
			ids, err = a.logs.List()
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}
		}

		if len(ids) == 0 {
			internal.PrintInfo("No sessions to export")
			return nil
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		exported := 0
		reconstructor := internal.NewReconstructor(a.logs)
		err = internal.ShowProgress(context.Background(), fmt.Sprintf("Exporting %d session(s) to %s", len(ids), outputDir), func(ctx context.Context) error {
			for _, id := range ids {
				path, err := exportSession(reconstructor, exporter, id, outputDir)
				if err != nil {
					internal.LogError("Failed to export session %s: %v", id, err)
					continue
				}
				internal.LogDebug("Exported %s", path)
				exported++
			}
			return nil
		})
		if err != nil {
			return err
		}

		if len(args) == 1 && exported == 0 {
			return fmt.Errorf("failed to export session %s", args[0])
		}
		internal.PrintSuccess(fmt.Sprintf("Export complete: %d session(s) exported to %s", exported, outputDir))
		return nil
	},
}

// exportSession replays one session and writes it to dir
func exportSession(reconstructor *internal.Reconstructor, exporter export.Exporter, id, dir string) (string, error) {
	session, err := reconstructor.Load(id)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("session_%s.%s", id, exporter.Extension()))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", path, err)
	}

	if err := exporter.Export(session, file); err != nil {
		_ = file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file %s: %w", path, err)
	}
	return path, nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
}
