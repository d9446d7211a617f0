package domain

import (
	"fmt"
	"time"
)

// Document is a registry entry tracking one ingested document.
// It is created on first successful ingestion and replaced wholesale
// when the content hash changes.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourcePath is the original location (file path, URL, etc).
	SourcePath string

	// Filename is the human-readable name.
	Filename string

	// ContentHash is a digest of the exact ingested content.
	// An identical hash on re-ingestion makes the operation a no-op.
	ContentHash string

	// ChunkIDs lists the document's chunks in ordinal order.
	// Chunks are owned exclusively by their document, never shared.
	ChunkIDs []string

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last replaced.
	UpdatedAt time.Time
}

// Chunk is a bounded, overlapping substring of a document and the
// atomic unit of indexing and retrieval. Chunks are immutable once
// created.
type Chunk struct {
	// ID is unique within the corpus, derived from the document ID
	// and the chunk's ordinal position.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// DocumentName is the owning document's filename, carried for display.
	DocumentName string

	// Ordinal is the zero-based position within the document.
	Ordinal int

	// Text is the chunk content.
	Text string

	// StartOffset and EndOffset locate the chunk in the normalised
	// document text.
	StartOffset int
	EndOffset   int

	// PageNumber is the source page, when the loader provides one.
	PageNumber int

	// Section is the source section heading, when known.
	Section string
}

// ChunkID derives the canonical chunk identifier for a document and ordinal.
func ChunkID(docID string, ordinal int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, ordinal)
}

// VectorRecord joins a dense index row to its chunk. Row ids are always
// 0..N-1 and equal the physical row count of the index; that invariant is
// broken only inside a rebuild, which swaps atomically with respect to
// readers.
type VectorRecord struct {
	// RowID is the zero-based position of the embedding in the index.
	RowID int

	// ChunkID is the chunk the row belongs to.
	ChunkID string
}

// ChunkRecord is a chunk together with its index row assignment, as
// persisted in the chunk metadata store.
type ChunkRecord struct {
	RowID int
	Chunk Chunk
}
