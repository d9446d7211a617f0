package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driven"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driving"
	"github.com/lodeworks/quarry-cli/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// DefaultTopK is the result count used when the caller does not set one.
const DefaultTopK = 5

// Fusion weights for hybrid ranking. Semantic similarity dominates;
// the keyword signal nudges ties and exact-term matches.
const (
	semanticWeight = 0.7
	keywordWeight  = 0.3
)

// lexicalNormDivisor maps raw BM25 scores into [0,1] via min(raw/10, 1).
const lexicalNormDivisor = 10.0

// similarityEpsilon keeps the batch-local normalisation defined when the
// farthest hit sits at distance zero.
const similarityEpsilon = 1e-9

// scoredRow holds one signal's view of a chunk before fusion.
type scoredRow struct {
	rowID   int
	chunkID string
	score   float64
}

// SearchService provides semantic, keyword, and hybrid retrieval.
type SearchService struct {
	chunks   driven.ChunkStore
	index    driven.VectorIndex
	lexical  driven.LexicalScorer
	embedder driven.EmbeddingService
}

// NewSearchService creates a new search service. The embedder and index
// may be nil, which disables semantic search; the lexical scorer may be
// nil, which disables keyword search.
func NewSearchService(
	chunks driven.ChunkStore,
	index driven.VectorIndex,
	lexical driven.LexicalScorer,
	embedder driven.EmbeddingService,
) *SearchService {
	return &SearchService{
		chunks:   chunks,
		index:    index,
		lexical:  lexical,
		embedder: embedder,
	}
}

// Search runs a single query and returns scored results best-first.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	mode := opts.Mode
	if mode == "" {
		mode = domain.SearchModeHybrid
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("search mode %q: %w", mode, domain.ErrInvalidInput)
	}
	logger.Debug("Mode: %s, TopK: %d", mode, topK)

	var results []domain.SearchResult
	var err error

	switch mode {
	case domain.SearchModeSemantic:
		results, err = s.semanticSearch(ctx, query, topK, opts.ScoreThreshold)
	case domain.SearchModeKeyword:
		results, err = s.keywordSearch(ctx, query, topK)
	default:
		results, err = s.hybridSearch(ctx, query, topK, opts.ScoreThreshold)
	}
	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, fmt.Errorf("search: %w", err)
	}

	if len(results) > topK {
		results = results[:topK]
	}

	if opts.ContextWindow > 0 {
		results, err = expandContext(ctx, s.chunks, results, opts.ContextWindow)
		if err != nil {
			return nil, fmt.Errorf("expand context: %w", err)
		}
	}

	logger.Info("Final results: %d", len(results))
	return results, nil
}

// semanticSearch ranks chunks by vector similarity.
func (s *SearchService) semanticSearch(
	ctx context.Context, query string, topK int, threshold float64,
) ([]domain.SearchResult, error) {
	rows, err := s.semanticRows(ctx, query, topK, threshold)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(rows))
	for _, sr := range rows {
		chunk, err := s.chunks.GetByRow(ctx, sr.rowID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get chunk at row %d: %w", sr.rowID, err)
		}
		results = append(results, domain.SearchResult{
			Chunk:         *chunk,
			SemanticScore: sr.score,
			HybridScore:   sr.score,
		})
	}
	return results, nil
}

// keywordSearch ranks chunks by BM25 score alone.
func (s *SearchService) keywordSearch(
	ctx context.Context, query string, topK int,
) ([]domain.SearchResult, error) {
	rows, err := s.keywordRows(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(rows))
	for _, sr := range rows {
		chunk, err := s.chunks.GetByRow(ctx, sr.rowID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get chunk at row %d: %w", sr.rowID, err)
		}
		results = append(results, domain.SearchResult{
			Chunk:        *chunk,
			KeywordScore: sr.score,
			HybridScore:  sr.score,
		})
	}
	return results, nil
}

// hybridSearch runs both signals in parallel and fuses them. When one
// signal fails the other still serves the query alone; only a double
// failure surfaces an error.
func (s *SearchService) hybridSearch(
	ctx context.Context, query string, topK int, threshold float64,
) ([]domain.SearchResult, error) {
	var semRows, lexRows []scoredRow
	var semErr, lexErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		semRows, semErr = s.semanticRows(ctx, query, topK, threshold)
	}()
	go func() {
		defer wg.Done()
		lexRows, lexErr = s.keywordRows(ctx, query, topK)
	}()
	wg.Wait()

	if semErr != nil && lexErr != nil {
		logger.Warn("Hybrid search: both signals failed")
		return nil, fmt.Errorf("hybrid search: semantic=%w, keyword=%w", semErr, lexErr)
	}
	if semErr != nil {
		logger.Warn("Hybrid search: semantic signal failed, serving keyword only: %v", semErr)
	}
	if lexErr != nil {
		logger.Warn("Hybrid search: keyword signal failed, serving semantic only: %v", lexErr)
	}

	fused := fuseSignals(semRows, lexRows)

	results := make([]domain.SearchResult, 0, len(fused))
	for _, f := range fused {
		chunk, err := s.chunks.GetByRow(ctx, f.rowID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get chunk at row %d: %w", f.rowID, err)
		}
		results = append(results, domain.SearchResult{
			Chunk:         *chunk,
			SemanticScore: f.semantic,
			KeywordScore:  f.keyword,
			HybridScore:   f.hybrid,
		})
	}

	// Ordering is fixed only after hydration: hybrid score descending,
	// ties broken by ascending chunk id.
	sort.Slice(results, func(i, j int) bool {
		if results[i].HybridScore != results[j].HybridScore {
			return results[i].HybridScore > results[j].HybridScore
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
	return results, nil
}

// semanticRows embeds the query and converts index hits into batch-local
// similarities, applying the score threshold when set.
func (s *SearchService) semanticRows(
	ctx context.Context, query string, topK int, threshold float64,
) ([]scoredRow, error) {
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.index.Search(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	sims := SimilarityFromHits(hits)
	rows := make([]scoredRow, 0, len(hits))
	for i, hit := range hits {
		if threshold > 0 && sims[i] < threshold {
			continue
		}
		rows = append(rows, scoredRow{rowID: hit.RowID, score: sims[i]})
	}
	logger.Debug("Semantic search: %d hits, %d above threshold", len(hits), len(rows))
	return rows, nil
}

// keywordRows runs the lexical scorer and normalises raw BM25 scores
// into [0,1].
func (s *SearchService) keywordRows(ctx context.Context, query string, topK int) ([]scoredRow, error) {
	if s.lexical == nil {
		return nil, domain.ErrLexicalUnavailable
	}

	hits, err := s.lexical.Search(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	rows := make([]scoredRow, len(hits))
	for i, hit := range hits {
		norm := hit.Score / lexicalNormDivisor
		if norm > 1 {
			norm = 1
		}
		rows[i] = scoredRow{rowID: hit.RowID, chunkID: hit.ChunkID, score: norm}
	}
	logger.Debug("Keyword search: %d hits", len(rows))
	return rows, nil
}

// SimilarityFromHits converts L2 distances into similarities relative to
// the farthest hit in the batch: 1 - d/(max+eps). The values are only
// comparable within one query's result set, never across queries.
func SimilarityFromHits(hits []driven.VectorHit) []float64 {
	if len(hits) == 0 {
		return nil
	}

	maxDist := 0.0
	for _, hit := range hits {
		if hit.Distance > maxDist {
			maxDist = hit.Distance
		}
	}

	sims := make([]float64, len(hits))
	for i, hit := range hits {
		sims[i] = 1 - hit.Distance/(maxDist+similarityEpsilon)
	}
	return sims
}

// fusedRow is the union of both signals for one chunk.
type fusedRow struct {
	rowID    int
	semantic float64
	keyword  float64
	hybrid   float64
}

// fuseSignals unions the two signal lists by row and computes the
// weighted hybrid score. A chunk missing from one signal contributes
// zero for it. The union carries no order; the caller sorts after
// hydration, when chunk ids are known for both signals.
func fuseSignals(semRows, lexRows []scoredRow) []fusedRow {
	byRow := make(map[int]*fusedRow)

	for _, sr := range semRows {
		byRow[sr.rowID] = &fusedRow{rowID: sr.rowID, semantic: sr.score}
	}
	for _, lr := range lexRows {
		f, ok := byRow[lr.rowID]
		if !ok {
			f = &fusedRow{rowID: lr.rowID}
			byRow[lr.rowID] = f
		}
		f.keyword = lr.score
	}

	fused := make([]fusedRow, 0, len(byRow))
	for _, f := range byRow {
		f.hybrid = semanticWeight*f.semantic + keywordWeight*f.keyword
		fused = append(fused, *f)
	}
	return fused
}
