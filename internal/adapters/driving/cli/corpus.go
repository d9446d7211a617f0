package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics",
	RunE:  runStats,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check index consistency",
	Long: `Verifies that the vector index row count matches the chunk
metadata store. A mismatch means the index needs a rebuild.`,
	RunE: runVerify,
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the vector index from stored chunks",
	Long: `Re-embeds every stored chunk and rebuilds the vector index
from scratch. Use this to repair consistency errors or after
changing the embedding model.`,
	RunE: runRebuild,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all indexed data",
	RunE:  runClear,
}

// clearForce skips the confirmation prompt.
var clearForce bool

func init() {
	clearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "skip confirmation")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(clearCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	stats, err := ingestService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	cmd.Println("Corpus")
	cmd.Printf("  Documents:  %d\n", stats.TotalDocuments)
	cmd.Printf("  Chunks:     %d\n", stats.TotalChunks)
	cmd.Printf("  Vectors:    %d\n", stats.TotalVectors)
	cmd.Printf("  Dimensions: %d\n", stats.EmbeddingDimension)

	if len(stats.Documents) > 0 {
		cmd.Println()
		for i := range stats.Documents {
			doc := &stats.Documents[i]
			cmd.Printf("  %s\n", doc.ID)
			cmd.Printf("    File:     %s\n", doc.Filename)
			cmd.Printf("    Chunks:   %d\n", doc.NumChunks)
			cmd.Printf("    Ingested: %s\n", doc.IngestedAt)
		}
	}

	return nil
}

func runVerify(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.Verify(cmd.Context()); err != nil {
		return fmt.Errorf("verification failed: %w (run 'quarry rebuild' to repair)", err)
	}

	cmd.Println("Index is consistent.")
	return nil
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	cmd.Println("Rebuilding vector index...")
	if err := ingestService.Rebuild(cmd.Context()); err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	cmd.Println("Rebuild complete.")
	return nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if !clearForce {
		cmd.Print("This deletes all indexed data. Continue? [y/N]: ")
		var answer string
		_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
		if answer != "y" && answer != "Y" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := ingestService.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}

	cmd.Println("All indexed data deleted.")
	return nil
}
