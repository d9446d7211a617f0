package bm25

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodeworks/quarry-cli/internal/adapters/driven/storage/memory"
	"github.com/lodeworks/quarry-cli/internal/core/domain"
)

func seedCorpus(t *testing.T, texts ...string) *memory.ChunkStore {
	t.Helper()
	store := memory.NewChunkStore()
	records := make([]domain.ChunkRecord, len(texts))
	for i, text := range texts {
		records[i] = domain.ChunkRecord{
			RowID: i,
			Chunk: domain.Chunk{
				ID:         domain.ChunkID("doc", i),
				DocumentID: "doc",
				Ordinal:    i,
				Text:       text,
			},
		}
	}
	require.NoError(t, store.PutChunks(context.Background(), records))
	return store
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world_2", "go"}, Tokenize("Hello, WORLD_2! (go)"))
	assert.Empty(t, Tokenize("!!! ... ???"))
}

func TestSearch_EmptyQuery(t *testing.T) {
	scorer := New(seedCorpus(t, "some content here"))

	hits, err := scorer.Search(context.Background(), "  ...  ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_EmptyCorpus(t *testing.T) {
	scorer := New(memory.NewChunkStore())

	hits, err := scorer.Search(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_ExcludesZeroScores(t *testing.T) {
	scorer := New(seedCorpus(t,
		"the cache layer evicts cold entries",
		"unrelated text about gardening tools",
	))

	hits, err := scorer.Search(context.Background(), "cache", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].RowID)
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestSearch_TermFrequencyMonotone(t *testing.T) {
	// Equal-length chunks; the one repeating the query term must rank
	// higher, but with saturating (sub-linear) gain.
	scorer := New(seedCorpus(t,
		"cache disk miss",
		"cache cache miss",
	))

	hits, err := scorer.Search(context.Background(), "cache", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, 1, hits[0].RowID)
	assert.Equal(t, 0, hits[1].RowID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	assert.Less(t, hits[0].Score, 2*hits[1].Score, "term gain must saturate")
}

func TestSearch_LengthNormalisation(t *testing.T) {
	// Same term frequency; the shorter chunk ranks higher.
	scorer := New(seedCorpus(t,
		"index rebuild",
		"index rebuild takes a while on very large corpora with many rows",
	))

	hits, err := scorer.Search(context.Background(), "index", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].RowID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearch_TiesBreakByRowOrder(t *testing.T) {
	scorer := New(seedCorpus(t,
		"identical chunk text",
		"identical chunk text",
		"identical chunk text",
	))

	hits, err := scorer.Search(context.Background(), "identical", 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, hits[0].Score, hits[1].Score)
	assert.Equal(t, 0, hits[0].RowID)
	assert.Equal(t, 1, hits[1].RowID)
	assert.Equal(t, 2, hits[2].RowID)
}

func TestSearch_IdentifierTokens(t *testing.T) {
	// Mixed-case alphanumeric identifiers tokenize as a single word and
	// survive a round trip through the scorer.
	assert.Equal(t, []string{"dhcpv6collector"}, Tokenize("DHCPv6Collector"))

	scorer := New(seedCorpus(t,
		"the DHCPv6Collector polls leases every minute",
		"an unrelated chunk about log rotation",
	))

	hits, err := scorer.Search(context.Background(), "DHCPv6Collector", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].RowID)
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestSearch_CaseInsensitive(t *testing.T) {
	scorer := New(seedCorpus(t, "The Flat Index stores vectors"))

	hits, err := scorer.Search(context.Background(), "FLAT index", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestSearch_LimitApplied(t *testing.T) {
	scorer := New(seedCorpus(t,
		"retrieval one", "retrieval two", "retrieval three", "retrieval four",
	))

	hits, err := scorer.Search(context.Background(), "retrieval", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSearch_MultiTermAccumulates(t *testing.T) {
	scorer := New(seedCorpus(t,
		"vector index search",
		"vector garden party",
	))

	hits, err := scorer.Search(context.Background(), "vector index", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].RowID, "chunk matching both terms ranks first")
}
