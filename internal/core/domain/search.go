package domain

// SearchMode selects which signals a query uses.
type SearchMode string

const (
	// SearchModeSemantic ranks by vector similarity only.
	SearchModeSemantic SearchMode = "semantic"

	// SearchModeKeyword ranks by BM25 lexical score only.
	SearchModeKeyword SearchMode = "keyword"

	// SearchModeHybrid fuses semantic and keyword signals.
	SearchModeHybrid SearchMode = "hybrid"
)

// Valid reports whether the mode is one of the known search modes.
func (m SearchMode) Valid() bool {
	switch m {
	case SearchModeSemantic, SearchModeKeyword, SearchModeHybrid:
		return true
	}
	return false
}

// RequiresEmbedding reports whether the mode needs an embedding backend.
func (m SearchMode) RequiresEmbedding() bool {
	return m != SearchModeKeyword
}

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeSemantic:
		return "semantic - vector similarity only (requires embedding provider)"
	case SearchModeKeyword:
		return "keyword - BM25 lexical search only (no setup required)"
	case SearchModeHybrid:
		return "hybrid - fused semantic + keyword ranking (requires embedding provider)"
	default:
		return string(m)
	}
}

// AllSearchModes lists the selectable modes in display order.
func AllSearchModes() []SearchMode {
	return []SearchMode{SearchModeHybrid, SearchModeSemantic, SearchModeKeyword}
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// TopK is the maximum number of results.
	TopK int

	// Mode selects semantic, keyword, or hybrid ranking.
	Mode SearchMode

	// ScoreThreshold drops semantic results below this similarity.
	// Zero disables the threshold.
	ScoreThreshold float64

	// ContextWindow expands each hit with neighbouring chunks within
	// this ordinal distance. Zero disables expansion.
	ContextWindow int
}

// SearchResult is a single scored retrieval hit.
type SearchResult struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// SemanticScore is the batch-local normalised vector similarity.
	// It is comparable only within one query's result set, not across
	// independent queries.
	SemanticScore float64

	// KeywordScore is the BM25 score normalised into [0,1].
	KeywordScore float64

	// HybridScore is the weighted combination of the two signals.
	HybridScore float64

	// QuerySource is the query variant that retrieved this chunk in
	// multi-query retrieval.
	QuerySource string

	// QueryRank is the 1-based position of that query variant.
	QueryRank int

	// IsContext marks chunks pulled in by context expansion rather
	// than retrieved as primary hits.
	IsContext bool
}

// Score returns the score the result was ranked by.
func (r SearchResult) Score() float64 {
	return r.HybridScore
}

// CorpusStats summarises the state of the store.
type CorpusStats struct {
	TotalDocuments     int
	TotalChunks        int
	TotalVectors       int
	EmbeddingDimension int
	Documents          []DocumentStats
}

// DocumentStats is the per-document slice of CorpusStats.
type DocumentStats struct {
	ID         string
	Filename   string
	NumChunks  int
	IngestedAt string
}
