package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodeworks/quarry-cli/internal/adapters/driven/index/flat"
	"github.com/lodeworks/quarry-cli/internal/adapters/driven/lexical/bm25"
	"github.com/lodeworks/quarry-cli/internal/adapters/driven/storage/memory"
	"github.com/lodeworks/quarry-cli/internal/core/domain"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driven"
)

// stubEmbedder maps known texts to fixed vectors and falls back to a
// deterministic vector for anything else.
type stubEmbedder struct {
	dim     int
	vectors map[string][]float32
	err     error
}

var _ driven.EmbeddingService = (*stubEmbedder)(nil)

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	if v, ok := e.vectors[text]; ok {
		out := make([]float32, e.dim)
		copy(out, v)
		return out, nil
	}
	out := make([]float32, e.dim)
	out[0] = float32(len(text)%7) + 1
	out[e.dim-1] = 1
	return out, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int              { return e.dim }
func (e *stubEmbedder) ModelName() string            { return "stub" }
func (e *stubEmbedder) Ping(_ context.Context) error { return e.err }
func (e *stubEmbedder) Close() error                 { return nil }

// searchFixture wires a small three-chunk corpus through real adapters.
type searchFixture struct {
	chunks   *memory.ChunkStore
	index    *flat.Index
	embedder *stubEmbedder
	svc      *SearchService
}

// newSearchFixture seeds three chunks whose embeddings place "alpha
// cache" closest to the "cache" query vector while BM25 prefers the
// chunk that repeats the term.
func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()
	ctx := context.Background()

	chunks := memory.NewChunkStore()
	require.NoError(t, chunks.PutChunks(ctx, []domain.ChunkRecord{
		{RowID: 0, Chunk: domain.Chunk{ID: "doc-a_chunk_0", DocumentID: "doc-a", Ordinal: 0, Text: "alpha cache"}},
		{RowID: 1, Chunk: domain.Chunk{ID: "doc-a_chunk_1", DocumentID: "doc-a", Ordinal: 1, Text: "beta cache cache"}},
		{RowID: 2, Chunk: domain.Chunk{ID: "doc-b_chunk_0", DocumentID: "doc-b", Ordinal: 0, Text: "gamma unrelated"}},
	}))

	index, err := flat.Open(filepath.Join(t.TempDir(), "index.qidx"), 2)
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })
	_, err = index.Add(ctx, [][]float32{{1, 0}, {0, 1}, {1, 1}})
	require.NoError(t, err)

	embedder := &stubEmbedder{
		dim: 2,
		vectors: map[string][]float32{
			"cache": {1, 0},
			"gamma": {1, 1},
		},
	}

	svc := NewSearchService(chunks, index, bm25.New(chunks), embedder)
	return &searchFixture{chunks: chunks, index: index, embedder: embedder, svc: svc}
}

func TestSearch_EmptyQuery(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.svc.Search(context.Background(), "   ", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_InvalidMode(t *testing.T) {
	f := newSearchFixture(t)

	_, err := f.svc.Search(context.Background(), "cache", domain.SearchOptions{Mode: "fuzzy"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestSearch_SemanticMode(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.svc.Search(context.Background(), "cache", domain.SearchOptions{
		Mode: domain.SearchModeSemantic,
		TopK: 3,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Query vector {1,0}: exact match first, then {1,1}, then {0,1}.
	assert.Equal(t, "doc-a_chunk_0", results[0].Chunk.ID)
	assert.Equal(t, "doc-b_chunk_0", results[1].Chunk.ID)
	assert.Equal(t, "doc-a_chunk_1", results[2].Chunk.ID)

	// Batch-local similarity: nearest 1.0, farthest ~0.
	assert.InDelta(t, 1.0, results[0].SemanticScore, 1e-6)
	assert.InDelta(t, 0.5, results[1].SemanticScore, 1e-6)
	assert.InDelta(t, 0.0, results[2].SemanticScore, 1e-6)
	assert.Equal(t, results[0].SemanticScore, results[0].HybridScore)
}

func TestSearch_SemanticScoreThreshold(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.svc.Search(context.Background(), "cache", domain.SearchOptions{
		Mode:           domain.SearchModeSemantic,
		TopK:           3,
		ScoreThreshold: 0.4,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc-a_chunk_0", results[0].Chunk.ID)
	assert.Equal(t, "doc-b_chunk_0", results[1].Chunk.ID)
}

func TestSearch_KeywordMode(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.svc.Search(context.Background(), "cache", domain.SearchOptions{
		Mode: domain.SearchModeKeyword,
		TopK: 3,
	})
	require.NoError(t, err)
	require.Len(t, results, 2, "non-matching chunk must be excluded")

	// Term repetition wins under BM25.
	assert.Equal(t, "doc-a_chunk_1", results[0].Chunk.ID)
	assert.Equal(t, "doc-a_chunk_0", results[1].Chunk.ID)
	assert.Greater(t, results[0].KeywordScore, results[1].KeywordScore)
	assert.LessOrEqual(t, results[0].KeywordScore, 1.0, "keyword score must be normalised")
}

func TestSearch_HybridMode(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.svc.Search(context.Background(), "cache", domain.SearchOptions{
		Mode: domain.SearchModeHybrid,
		TopK: 3,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Semantic dominance: the exact vector match outranks the chunk
	// with the better keyword score.
	assert.Equal(t, "doc-a_chunk_0", results[0].Chunk.ID)

	for _, res := range results {
		expected := 0.7*res.SemanticScore + 0.3*res.KeywordScore
		assert.InDelta(t, expected, res.HybridScore, 1e-9)
	}

	// Best-first ordering.
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].HybridScore, results[i].HybridScore)
	}
}

func TestSearch_HybridTieBreaksByChunkID(t *testing.T) {
	ctx := context.Background()

	// Two chunks with identical vectors and identical text score the
	// same on both signals; chunk ids run opposite to row ids.
	chunks := memory.NewChunkStore()
	require.NoError(t, chunks.PutChunks(ctx, []domain.ChunkRecord{
		{RowID: 0, Chunk: domain.Chunk{ID: "zeta_chunk_0", DocumentID: "zeta", Ordinal: 0, Text: "shared cache text"}},
		{RowID: 1, Chunk: domain.Chunk{ID: "alpha_chunk_0", DocumentID: "alpha", Ordinal: 0, Text: "shared cache text"}},
	}))

	index, err := flat.Open(filepath.Join(t.TempDir(), "index.qidx"), 2)
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })
	_, err = index.Add(ctx, [][]float32{{1, 0}, {1, 0}})
	require.NoError(t, err)

	embedder := &stubEmbedder{dim: 2, vectors: map[string][]float32{"cache": {1, 0}}}
	svc := NewSearchService(chunks, index, bm25.New(chunks), embedder)

	results, err := svc.Search(ctx, "cache", domain.SearchOptions{
		Mode: domain.SearchModeHybrid,
		TopK: 2,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, results[0].HybridScore, results[1].HybridScore)
	assert.Equal(t, "alpha_chunk_0", results[0].Chunk.ID)
	assert.Equal(t, "zeta_chunk_0", results[1].Chunk.ID)
}

func TestSearch_HybridDefaultsApplied(t *testing.T) {
	f := newSearchFixture(t)

	// No mode, no topK: hybrid with DefaultTopK.
	results, err := f.svc.Search(context.Background(), "cache", domain.SearchOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), DefaultTopK)
}

func TestSearch_HybridDegradesToKeyword(t *testing.T) {
	f := newSearchFixture(t)
	f.embedder.err = errors.New("embedding backend down")

	results, err := f.svc.Search(context.Background(), "cache", domain.SearchOptions{
		Mode: domain.SearchModeHybrid,
		TopK: 3,
	})
	require.NoError(t, err, "hybrid must survive a failing semantic signal")
	require.Len(t, results, 2)
	assert.Equal(t, "doc-a_chunk_1", results[0].Chunk.ID)
	assert.Zero(t, results[0].SemanticScore)
}

func TestSearch_HybridDegradesToSemantic(t *testing.T) {
	f := newSearchFixture(t)
	svc := NewSearchService(f.chunks, f.index, nil, f.embedder)

	results, err := svc.Search(context.Background(), "cache", domain.SearchOptions{
		Mode: domain.SearchModeHybrid,
		TopK: 3,
	})
	require.NoError(t, err, "hybrid must survive a missing keyword signal")
	require.Len(t, results, 3)
	assert.Equal(t, "doc-a_chunk_0", results[0].Chunk.ID)
	assert.Zero(t, results[0].KeywordScore)
}

func TestSearch_HybridFailsWhenBothSignalsFail(t *testing.T) {
	f := newSearchFixture(t)
	f.embedder.err = errors.New("embedding backend down")
	svc := NewSearchService(f.chunks, f.index, nil, f.embedder)

	_, err := svc.Search(context.Background(), "cache", domain.SearchOptions{
		Mode: domain.SearchModeHybrid,
	})
	assert.Error(t, err)
}

func TestSearch_SemanticModeRequiresEmbedder(t *testing.T) {
	f := newSearchFixture(t)
	svc := NewSearchService(f.chunks, f.index, bm25.New(f.chunks), nil)

	_, err := svc.Search(context.Background(), "cache", domain.SearchOptions{
		Mode: domain.SearchModeSemantic,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
}

func TestSearch_ContextWindow(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.svc.Search(context.Background(), "cache", domain.SearchOptions{
		Mode:          domain.SearchModeSemantic,
		TopK:          1,
		ContextWindow: 1,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// The primary hit comes first; its document neighbour follows
	// tagged as context.
	assert.Equal(t, "doc-a_chunk_0", results[0].Chunk.ID)
	assert.False(t, results[0].IsContext)
	assert.Equal(t, "doc-a_chunk_1", results[1].Chunk.ID)
	assert.True(t, results[1].IsContext)
}

func TestSimilarityFromHits(t *testing.T) {
	sims := SimilarityFromHits([]driven.VectorHit{
		{RowID: 0, Distance: 0},
		{RowID: 1, Distance: 2},
		{RowID: 2, Distance: 4},
	})
	require.Len(t, sims, 3)
	assert.InDelta(t, 1.0, sims[0], 1e-6)
	assert.InDelta(t, 0.5, sims[1], 1e-6)
	assert.InDelta(t, 0.0, sims[2], 1e-6)

	assert.Nil(t, SimilarityFromHits(nil))

	// All-zero distances stay defined and rank everything equal-best.
	sims = SimilarityFromHits([]driven.VectorHit{{Distance: 0}, {Distance: 0}})
	assert.InDelta(t, 1.0, sims[0], 1e-6)
	assert.InDelta(t, 1.0, sims[1], 1e-6)
}
