package driven

import (
	"context"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
)

// ChunkStore persists chunk metadata keyed by vector row id.
// Every chunk has exactly one index row and vice versa; the store's size
// must always equal the index row count (checked fatally at startup).
type ChunkStore interface {
	// PutChunks stores records for newly assigned rows.
	PutChunks(ctx context.Context, records []domain.ChunkRecord) error

	// GetByRow retrieves the chunk at a given index row.
	GetByRow(ctx context.Context, rowID int) (*domain.Chunk, error)

	// GetByID retrieves a chunk record by chunk id.
	GetByID(ctx context.Context, chunkID string) (*domain.ChunkRecord, error)

	// All returns every record ordered by ascending row id.
	All(ctx context.Context) ([]domain.ChunkRecord, error)

	// DeleteDocument removes a document's chunks and reassigns the
	// surviving rows densely from zero, preserving their relative order.
	// It returns the survivors with their new row ids, in row order,
	// ready for re-embedding into a rebuilt index.
	DeleteDocument(ctx context.Context, docID string) ([]domain.ChunkRecord, error)

	// Neighbours returns chunks of the same document whose ordinal lies
	// within the window around the given ordinal, excluding it.
	Neighbours(ctx context.Context, docID string, ordinal, window int) ([]domain.Chunk, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Clear removes all chunk metadata.
	Clear(ctx context.Context) error
}

// DocumentRegistry tracks one entry per ingested document to support
// content-hash dedup and incremental re-ingestion.
type DocumentRegistry interface {
	// Upsert stores or replaces a registry entry.
	Upsert(ctx context.Context, doc *domain.Document) error

	// Get retrieves an entry by document id.
	Get(ctx context.Context, docID string) (*domain.Document, error)

	// Delete removes an entry.
	Delete(ctx context.Context, docID string) error

	// List returns all entries.
	List(ctx context.Context) ([]domain.Document, error)

	// Count returns the number of registered documents.
	Count(ctx context.Context) (int, error)

	// Clear removes all entries.
	Clear(ctx context.Context) error
}
