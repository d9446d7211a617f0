package driven

import "context"

// VectorIndex is an append-only store of embeddings supporting exact
// k-nearest-neighbour search by L2 distance. Rows are addressed by dense
// zero-based ids that always equal the physical row count; the index has
// no delete operation, so removing any row requires a full Rebuild.
type VectorIndex interface {
	// Add appends embeddings and assigns contiguous row ids starting at
	// the current row count. It returns the first assigned row id.
	// A dimension mismatch is a configuration error, not a transient one.
	Add(ctx context.Context, embeddings [][]float32) (int, error)

	// Search returns the k nearest rows to the query, ascending by L2
	// distance with ties broken by ascending row id. An empty index
	// yields an empty result, not an error.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Rebuild replaces the entire index with the given rows, assigned
	// ids 0..len-1. The new index is built off to the side and published
	// atomically, so concurrent readers never observe a partial state.
	// Once started, a rebuild runs to completion.
	Rebuild(ctx context.Context, embeddings [][]float32) error

	// RowCount returns the number of stored vectors.
	RowCount() int

	// Dimensions returns the fixed embedding dimension.
	Dimensions() int

	// Flush persists the index snapshot.
	Flush() error

	// Close flushes and releases resources.
	Close() error
}

// VectorHit is a nearest-neighbour search result.
type VectorHit struct {
	// RowID is the matched index row.
	RowID int

	// Distance is the L2 distance to the query. Callers wanting a
	// similarity convert it batch-locally; see services.SimilarityFromHits.
	Distance float64
}
