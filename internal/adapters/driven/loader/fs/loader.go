// Package fs provides a filesystem loader for plain-text document formats.
package fs

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint for dedup, not a security boundary
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/lodeworks/quarry-cli/internal/adapters/driven/loader/normalise"
	"github.com/lodeworks/quarry-cli/internal/core/domain"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driven"
	"github.com/lodeworks/quarry-cli/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// MaxFileSize caps how much of a single file the loader will read.
const MaxFileSize = 16 << 20 // 16 MiB

// supportedExtensions lists the plain-text formats the loader accepts.
var supportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".log":  true,
	".rst":  true,
	".csv":  true,
	".json": true,
	".yaml": true,
	".yml":  true,
	".toml": true,
	".go":   true,
	".py":   true,
	".js":   true,
	".ts":   true,
	".sh":   true,
}

// Loader reads documents from the local filesystem. Document ids are
// derived from the filename and content hash, so the same content at
// the same name always maps to the same id across runs.
type Loader struct{}

// New creates a filesystem loader.
func New() *Loader {
	return &Loader{}
}

// Supported reports whether the loader accepts a path by extension.
func (l *Loader) Supported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// LoadFile loads a single file.
func (l *Loader) LoadFile(_ context.Context, path string) (*domain.LoadedDocument, error) {
	if !l.Supported(path) {
		return nil, fmt.Errorf("file %s: %w", path, domain.ErrUnsupportedFile)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path %s is a directory: %w", path, domain.ErrInvalidInput)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("file %s exceeds %d bytes: %w", path, int64(MaxFileSize), domain.ErrInvalidInput)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("file %s is not valid UTF-8: %w", path, domain.ErrUnsupportedFile)
	}

	// Hash the raw bytes so dedup sees the file as ingested; markup is
	// stripped only for chunking and display.
	hash := contentHash(string(raw))
	content := normalise.ForExtension(path, string(raw))
	name := filepath.Base(path)

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return &domain.LoadedDocument{
		ID:          DocumentID(name, hash),
		SourcePath:  abs,
		Filename:    name,
		Content:     content,
		ContentHash: hash,
	}, nil
}

// LoadDirectory walks a directory tree and loads every supported file.
// Hidden files and directories are skipped, as are unsupported
// extensions; neither is an error.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) ([]domain.LoadedDocument, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path %s is not a directory: %w", dir, domain.ErrInvalidInput)
	}

	var docs []domain.LoadedDocument
	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") && path != dir {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !l.Supported(path) {
			return nil
		}

		doc, err := l.LoadFile(ctx, path)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			return nil
		}
		docs = append(docs, *doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	logger.Info("Loaded %d documents from %s", len(docs), dir)
	return docs, nil
}

// DocumentID derives a stable document id from the filename and the
// content hash prefix.
func DocumentID(filename, hash string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if len(hash) > 8 {
		hash = hash[:8]
	}
	return stem + "_" + hash
}

// contentHash fingerprints document content for dedup.
func contentHash(content string) string {
	sum := md5.Sum([]byte(content)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
