package driven

import (
	"context"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
)

// Loader produces document content together with a trusted content hash.
// The pipeline never re-derives the hash from raw bytes itself, so loaders
// must hash post-normalisation content consistently across runs.
type Loader interface {
	// LoadFile loads a single file.
	LoadFile(ctx context.Context, path string) (*domain.LoadedDocument, error)

	// LoadDirectory loads all supported files under a directory.
	// Unsupported files are skipped, not errors.
	LoadDirectory(ctx context.Context, dir string) ([]domain.LoadedDocument, error)
}
