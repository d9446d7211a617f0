package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
)

var (
	searchLimit     int
	searchMode      string
	searchThreshold float64
	searchContext   int
	searchMin       int
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]...",
	Short: "Search indexed documents",
	Long: `Performs hybrid search across all indexed documents.
Combines keyword (BM25) and semantic (vector) search for best results.

With multiple query arguments, each is treated as a query variant:
results are retrieved per variant, deduplicated, and re-ranked. The
--min flag additionally widens with a semantic-only pass when the
hybrid pass returns too few results.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "", "search mode: semantic, keyword, or hybrid")
	searchCmd.Flags().Float64VarP(&searchThreshold, "threshold", "t", 0, "minimum semantic similarity (0 disables)")
	searchCmd.Flags().IntVarP(&searchContext, "context", "c", 0, "include neighbouring chunks within this distance")
	searchCmd.Flags().IntVar(&searchMin, "min", 0, "widen retrieval until at least this many results (0 disables)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	mode := domain.SearchMode(searchMode)
	if searchMode != "" && !mode.Valid() {
		return fmt.Errorf("unknown search mode %q (want semantic, keyword, or hybrid)", searchMode)
	}

	ctx := cmd.Context()
	var (
		results []domain.SearchResult
		err     error
	)

	switch {
	case searchMin > 0:
		if retrievalService == nil {
			return errors.New("retrieval service not configured")
		}
		results, err = retrievalService.AdaptiveRetrieve(ctx, args, searchMin, searchLimit)
	case len(args) > 1:
		if retrievalService == nil {
			return errors.New("retrieval service not configured")
		}
		results, err = retrievalService.MultiQuery(ctx, args, searchLimit, mode)
	default:
		results, err = searchService.Search(ctx, args[0], domain.SearchOptions{
			TopK:           searchLimit,
			Mode:           mode,
			ScoreThreshold: searchThreshold,
			ContextWindow:  searchContext,
		})
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchContext > 0 && (searchMin > 0 || len(args) > 1) {
		results, err = retrievalService.ExpandContext(ctx, results, searchContext)
		if err != nil {
			return fmt.Errorf("context expansion failed: %w", err)
		}
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	if results == nil {
		results = []domain.SearchResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		res := &results[i]
		label := fmt.Sprintf("[%d]", i+1)
		if res.IsContext {
			label = "[ctx]"
		}

		cmd.Printf("  %s %s (%.3f)\n", label, res.Chunk.ID, res.Score())
		cmd.Printf("      Document: %s\n", res.Chunk.DocumentName)
		if res.QuerySource != "" {
			cmd.Printf("      Variant:  %q\n", res.QuerySource)
		}
		cmd.Printf("      %s\n", snippet(res.Chunk.Text, 160))
		cmd.Println()
	}

	return nil
}

// snippet truncates text to maxLen runes on a single line.
func snippet(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) > maxLen {
		runes = append(runes[:maxLen], []rune("...")...)
	}
	out := string(runes)
	for i, r := range out {
		if r == '\n' {
			return out[:i] + "..."
		}
	}
	return out
}
