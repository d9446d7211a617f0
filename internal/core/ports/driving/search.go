package driving

import (
	"context"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
)

// SearchService provides single-query retrieval to external actors.
type SearchService interface {
	// Search runs a semantic, keyword, or hybrid query and returns
	// scored results ordered best-first.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}

// RetrievalService provides multi-query and adaptive retrieval.
type RetrievalService interface {
	// MultiQuery runs each query variant independently, deduplicates by
	// chunk id (first occurrence wins), and re-ranks the union.
	MultiQuery(ctx context.Context, queries []string, topK int, mode domain.SearchMode) ([]domain.SearchResult, error)

	// AdaptiveRetrieve falls back to a semantic-only pass when the hybrid
	// pass yields fewer than minResults, then truncates to maxResults.
	AdaptiveRetrieve(ctx context.Context, queries []string, minResults, maxResults int) ([]domain.SearchResult, error)

	// ExpandContext fetches neighbouring chunks for each primary hit,
	// tagging them as context rather than primary results.
	ExpandContext(ctx context.Context, results []domain.SearchResult, window int) ([]domain.SearchResult, error)
}
