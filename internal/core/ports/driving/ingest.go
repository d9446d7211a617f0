package driving

import (
	"context"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
)

// IngestService orchestrates document ingestion and corpus maintenance.
type IngestService interface {
	// IngestFile ingests a single file and reports the outcome.
	IngestFile(ctx context.Context, path string) (domain.IngestStatus, error)

	// IngestDirectory ingests every supported file under a directory,
	// continuing past per-document failures.
	IngestDirectory(ctx context.Context, dir string) (*domain.IngestReport, error)

	// Remove deletes a document and rebuilds the index over the
	// surviving chunks. Returns false when the document is unknown.
	Remove(ctx context.Context, docID string) (bool, error)

	// Rebuild regenerates the index from the chunk store. This is the
	// explicit repair path for consistency errors detected at load.
	Rebuild(ctx context.Context) error

	// Verify checks that the index row count matches the chunk metadata.
	Verify(ctx context.Context) error

	// Stats summarises the corpus.
	Stats(ctx context.Context) (*domain.CorpusStats, error)

	// Clear wipes the index, chunk metadata and registry.
	Clear(ctx context.Context) error
}
