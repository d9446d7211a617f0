package driven

import "context"

// LexicalScorer provides BM25-style keyword scoring over the chunk corpus.
type LexicalScorer interface {
	// Search scores every chunk against the query and returns up to limit
	// hits sorted descending by score, ties broken by ascending insertion
	// (row) order. Chunks with no term overlap are excluded rather than
	// returned with a zero score.
	Search(ctx context.Context, query string, limit int) ([]LexicalHit, error)
}

// LexicalHit is a keyword search result.
type LexicalHit struct {
	// RowID is the chunk's index row, used for deterministic tie-breaks.
	RowID int

	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the raw BM25 score (unbounded above).
	Score float64
}
