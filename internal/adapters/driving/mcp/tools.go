package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query         string  `json:"query" jsonschema:"the search query to find document chunks"`
	Limit         int     `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	Mode          string  `json:"mode,omitempty" jsonschema:"search mode: semantic, keyword, or hybrid (default hybrid)"`
	Threshold     float64 `json:"threshold,omitempty" jsonschema:"minimum semantic similarity, 0 disables"`
	ContextWindow int     `json:"context_window,omitempty" jsonschema:"include neighbouring chunks within this ordinal distance"`
}

// MultiSearchInput is the input schema for the multi_search tool.
type MultiSearchInput struct {
	Queries    []string `json:"queries" jsonschema:"query variants to run and merge"`
	MinResults int      `json:"min_results,omitempty" jsonschema:"widen retrieval until at least this many results"`
	MaxResults int      `json:"max_results,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchOutput is the output schema for the search tools.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ChunkID      string  `json:"chunk_id"`
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Score        float64 `json:"score"`
	Semantic     float64 `json:"semantic_score,omitempty"`
	Keyword      float64 `json:"keyword_score,omitempty"`
	QuerySource  string  `json:"query_source,omitempty"`
	IsContext    bool    `json:"is_context,omitempty"`
	Content      string  `json:"content"`
}

// StatsOutput is the output schema for the stats tool.
type StatsOutput struct {
	TotalDocuments     int      `json:"total_documents"`
	TotalChunks        int      `json:"total_chunks"`
	TotalVectors       int      `json:"total_vectors"`
	EmbeddingDimension int      `json:"embedding_dimension"`
	DocumentIDs        []string `json:"document_ids"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.inner, &mcp.Tool{
		Name:        "search",
		Description: "Search indexed documents with hybrid keyword and semantic retrieval",
	}, s.handleSearch)

	if s.ports.Retrieval != nil {
		mcp.AddTool(s.inner, &mcp.Tool{
			Name:        "multi_search",
			Description: "Run several query variants and return the merged, deduplicated results",
		}, s.handleMultiSearch)
	}

	if s.ports.Ingest != nil {
		mcp.AddTool(s.inner, &mcp.Tool{
			Name:        "corpus_stats",
			Description: "Summarise the indexed corpus",
		}, s.handleStats)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	mode := domain.SearchMode(input.Mode)
	if input.Mode != "" && !mode.Valid() {
		return nil, SearchOutput{}, errors.New("mode must be semantic, keyword, or hybrid")
	}

	opts := domain.SearchOptions{
		TopK:           input.Limit,
		Mode:           mode,
		ScoreThreshold: input.Threshold,
		ContextWindow:  input.ContextWindow,
	}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, toSearchOutput(results), nil
}

// handleMultiSearch handles the multi_search tool invocation.
func (s *Server) handleMultiSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MultiSearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if len(input.Queries) == 0 {
		return nil, SearchOutput{}, errors.New("at least one query is required")
	}

	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	var (
		results []domain.SearchResult
		err     error
	)
	if input.MinResults > 0 {
		results, err = s.ports.Retrieval.AdaptiveRetrieve(ctx, input.Queries, input.MinResults, maxResults)
	} else {
		results, err = s.ports.Retrieval.MultiQuery(ctx, input.Queries, maxResults, domain.SearchModeHybrid)
	}
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, toSearchOutput(results), nil
}

// handleStats handles the corpus_stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Ingest.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}

	output := StatsOutput{
		TotalDocuments:     stats.TotalDocuments,
		TotalChunks:        stats.TotalChunks,
		TotalVectors:       stats.TotalVectors,
		EmbeddingDimension: stats.EmbeddingDimension,
		DocumentIDs:        make([]string, len(stats.Documents)),
	}
	for i := range stats.Documents {
		output.DocumentIDs[i] = stats.Documents[i].ID
	}

	return nil, output, nil
}

func toSearchOutput(results []domain.SearchResult) SearchOutput {
	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		res := &results[i]
		output.Results[i] = SearchResultOutput{
			ChunkID:      res.Chunk.ID,
			DocumentID:   res.Chunk.DocumentID,
			DocumentName: res.Chunk.DocumentName,
			Score:        res.Score(),
			Semantic:     res.SemanticScore,
			Keyword:      res.KeywordScore,
			QuerySource:  res.QuerySource,
			IsContext:    res.IsContext,
			Content:      res.Chunk.Text,
		}
	}
	return output
}
