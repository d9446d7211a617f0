package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch indicates an embedding whose dimension does not
	// match the index configuration. This is a configuration error:
	// fatal, surfaced immediately, never retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCorruptState indicates the persisted index and chunk metadata
	// disagree on row count. Fatal at load; repair requires an explicit
	// rebuild, never a silent truncation.
	ErrCorruptState = errors.New("index row count does not match chunk metadata")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLexicalUnavailable indicates the lexical scorer is not configured.
	// Keyword search is disabled.
	ErrLexicalUnavailable = errors.New("lexical scorer unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	// Semantic similarity search is disabled.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrUnsupportedFile indicates the loader does not handle a file type.
	ErrUnsupportedFile = errors.New("unsupported file type")
)
