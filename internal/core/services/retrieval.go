package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driven"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driving"
	"github.com/lodeworks/quarry-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService layers multi-query and adaptive retrieval on top of
// single-query search.
type RetrievalService struct {
	search driving.SearchService
	chunks driven.ChunkStore
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(search driving.SearchService, chunks driven.ChunkStore) *RetrievalService {
	return &RetrievalService{
		search: search,
		chunks: chunks,
	}
}

// MultiQuery runs each query variant independently and deduplicates the
// union by chunk id, first occurrence winning. Each result is tagged
// with the variant that retrieved it and the variant's 1-based rank.
// The union is re-ranked by score across all variants.
func (s *RetrievalService) MultiQuery(
	ctx context.Context, queries []string, topK int, mode domain.SearchMode,
) ([]domain.SearchResult, error) {
	logger.Section("Multi-Query Retrieval")
	logger.Debug("Variants: %d, topK: %d, mode: %s", len(queries), topK, mode)

	seen := make(map[string]bool)
	var union []domain.SearchResult

	for rank, query := range queries {
		results, err := s.search.Search(ctx, query, domain.SearchOptions{
			TopK: topK,
			Mode: mode,
		})
		if err != nil {
			return nil, fmt.Errorf("query variant %d: %w", rank+1, err)
		}

		for _, res := range results {
			if seen[res.Chunk.ID] {
				continue
			}
			seen[res.Chunk.ID] = true
			res.QuerySource = query
			res.QueryRank = rank + 1
			union = append(union, res)
		}
	}

	// Scores from different variants are batch-local; the cross-variant
	// ordering is best-effort rather than a calibrated ranking.
	sort.SliceStable(union, func(i, j int) bool {
		return union[i].Score() > union[j].Score()
	})

	logger.Debug("Union: %d unique chunks", len(union))
	return union, nil
}

// AdaptiveRetrieve runs a hybrid multi-query pass, widens to a
// semantic-only pass when it comes up short, and truncates to
// maxResults.
func (s *RetrievalService) AdaptiveRetrieve(
	ctx context.Context, queries []string, minResults, maxResults int,
) ([]domain.SearchResult, error) {
	logger.Section("Adaptive Retrieval")

	if maxResults <= 0 {
		maxResults = DefaultTopK
	}
	if minResults > maxResults {
		minResults = maxResults
	}

	results, err := s.MultiQuery(ctx, queries, maxResults, domain.SearchModeHybrid)
	if err != nil {
		return nil, err
	}

	if len(results) < minResults {
		logger.Info("Hybrid pass found %d results (< %d), widening with semantic pass",
			len(results), minResults)

		widened, err := s.MultiQuery(ctx, queries, maxResults, domain.SearchModeSemantic)
		if err != nil {
			// The hybrid pass already produced something; keep it.
			logger.Warn("Semantic widening failed: %v", err)
		} else {
			seen := make(map[string]bool, len(results))
			for _, res := range results {
				seen[res.Chunk.ID] = true
			}
			for _, res := range widened {
				if !seen[res.Chunk.ID] {
					results = append(results, res)
				}
			}
		}
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	logger.Debug("Adaptive retrieval: %d results", len(results))
	return results, nil
}

// ExpandContext pulls in neighbouring chunks for each primary hit.
func (s *RetrievalService) ExpandContext(
	ctx context.Context, results []domain.SearchResult, window int,
) ([]domain.SearchResult, error) {
	return expandContext(ctx, s.chunks, results, window)
}

// expandContext inserts each hit's document neighbours directly after
// it, tagged as context. Chunks already present, whether as primary
// hits or earlier context, are never duplicated.
func expandContext(
	ctx context.Context, chunks driven.ChunkStore, results []domain.SearchResult, window int,
) ([]domain.SearchResult, error) {
	if window <= 0 || len(results) == 0 {
		return results, nil
	}

	seen := make(map[string]bool, len(results))
	for _, res := range results {
		seen[res.Chunk.ID] = true
	}

	expanded := make([]domain.SearchResult, 0, len(results)*(1+2*window))
	for _, res := range results {
		expanded = append(expanded, res)

		neighbours, err := chunks.Neighbours(ctx, res.Chunk.DocumentID, res.Chunk.Ordinal, window)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("neighbours of %s: %w", res.Chunk.ID, err)
		}

		for _, n := range neighbours {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			expanded = append(expanded, domain.SearchResult{
				Chunk:       n,
				QuerySource: res.QuerySource,
				QueryRank:   res.QueryRank,
				IsContext:   true,
			})
		}
	}

	logger.Debug("Context expansion: %d -> %d results", len(results), len(expanded))
	return expanded, nil
}
