package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a file or directory into the index",
	Long: `Chunks, embeds, and indexes documents from the given path.
Directories are walked recursively; unsupported files are skipped.

Re-ingesting unchanged content is a no-op. Changed content replaces
the previous version of the document atomically.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var removeCmd = &cobra.Command{
	Use:   "remove [doc-id]",
	Short: "Remove a document from the index",
	Long: `Deletes a document's chunks and vectors, then rebuilds the
vector index over the surviving chunks.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(removeCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}

	ctx := cmd.Context()

	if !info.IsDir() {
		status, err := ingestService.IngestFile(ctx, path)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		cmd.Printf("%s: %s\n", path, status)
		return nil
	}

	report, err := ingestService.IngestDirectory(ctx, path)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Batch %s complete.\n", report.BatchID)
	cmd.Printf("  Succeeded: %d\n", report.Succeeded)
	cmd.Printf("  Skipped:   %d\n", report.Skipped)
	cmd.Printf("  Failed:    %d\n", report.Failed)

	if len(report.Errors) > 0 {
		cmd.Println("\nFailures:")
		paths := make([]string, 0, len(report.Errors))
		for p := range report.Errors {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			cmd.Printf("  %s: %v\n", p, report.Errors[p])
		}
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", report.Failed, report.Total)
	}
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	docID := args[0]
	removed, err := ingestService.Remove(cmd.Context(), docID)
	if err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	if !removed {
		cmd.Printf("Document %s not found.\n", docID)
		return nil
	}

	cmd.Printf("Document %s removed.\n", docID)
	return nil
}
