package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/lodeworks/quarry-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/lodeworks/quarry-cli/internal/core/domain"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// chunk store and document registry through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.quarry/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".quarry", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// DocumentRegistry returns a DocumentRegistry interface backed by this store.
func (s *Store) DocumentRegistry() driven.DocumentRegistry {
	return &documentRegistry{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// PutChunks stores records for newly assigned rows.
func (s *chunkStore) PutChunks(ctx context.Context, records []domain.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks
			(row_id, id, document_id, document_name, ordinal, content,
			 start_offset, end_offset, page_number, section)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		c := rec.Chunk
		if _, err := stmt.ExecContext(ctx, rec.RowID, c.ID, c.DocumentID, c.DocumentName,
			c.Ordinal, c.Text, c.StartOffset, c.EndOffset, c.PageNumber, c.Section); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetByRow retrieves the chunk at a given index row.
func (s *chunkStore) GetByRow(ctx context.Context, rowID int) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT row_id, id, document_id, document_name, ordinal, content,
		       start_offset, end_offset, page_number, section
		FROM chunks WHERE row_id = ?
	`, rowID)

	rec, err := scanChunkRow(row)
	if err != nil {
		return nil, err
	}
	return &rec.Chunk, nil
}

// GetByID retrieves a chunk record by chunk id.
func (s *chunkStore) GetByID(ctx context.Context, chunkID string) (*domain.ChunkRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT row_id, id, document_id, document_name, ordinal, content,
		       start_offset, end_offset, page_number, section
		FROM chunks WHERE id = ?
	`, chunkID)

	return scanChunkRow(row)
}

// All returns every record ordered by ascending row id.
func (s *chunkStore) All(ctx context.Context) ([]domain.ChunkRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT row_id, id, document_id, document_name, ordinal, content,
		       start_offset, end_offset, page_number, section
		FROM chunks ORDER BY row_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunkRecords(rows)
}

// DeleteDocument removes a document's chunks and renumbers the survivors
// densely from zero, preserving relative order. Renumbering goes through
// a negative staging pass so the primary key never collides mid-update.
func (s *chunkStore) DeleteDocument(ctx context.Context, docID string) ([]domain.ChunkRecord, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", docID); err != nil {
		return nil, fmt.Errorf("deleting chunks: %w", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT row_id FROM chunks ORDER BY row_id")
	if err != nil {
		return nil, fmt.Errorf("querying survivors: %w", err)
	}
	var oldRows []int
	for rows.Next() {
		var r int
		if err := rows.Scan(&r); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning survivor row: %w", err)
		}
		oldRows = append(oldRows, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating survivors: %w", err)
	}
	rows.Close()

	for newRow, oldRow := range oldRows {
		if _, err := tx.ExecContext(ctx,
			"UPDATE chunks SET row_id = ? WHERE row_id = ?", -(newRow + 1), oldRow); err != nil {
			return nil, fmt.Errorf("staging row %d: %w", oldRow, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE chunks SET row_id = -row_id - 1 WHERE row_id < 0"); err != nil {
		return nil, fmt.Errorf("renumbering rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return s.All(ctx)
}

// Neighbours returns same-document chunks within the ordinal window,
// excluding the anchor ordinal itself.
func (s *chunkStore) Neighbours(ctx context.Context, docID string, ordinal, window int) ([]domain.Chunk, error) {
	if window <= 0 {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT row_id, id, document_id, document_name, ordinal, content,
		       start_offset, end_offset, page_number, section
		FROM chunks
		WHERE document_id = ? AND ordinal != ? AND ordinal BETWEEN ? AND ?
		ORDER BY ordinal
	`, docID, ordinal, ordinal-window, ordinal+window)
	if err != nil {
		return nil, fmt.Errorf("querying neighbours: %w", err)
	}
	defer rows.Close()

	records, err := scanChunkRecords(rows)
	if err != nil {
		return nil, err
	}
	chunks := make([]domain.Chunk, len(records))
	for i, rec := range records {
		chunks[i] = rec.Chunk
	}
	return chunks, nil
}

// Count returns the number of stored chunks.
func (s *chunkStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// Clear removes all chunk metadata.
func (s *chunkStore) Clear(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	return nil
}

// ==================== Document Registry ====================

// documentRegistry implements driven.DocumentRegistry.
type documentRegistry struct {
	store *Store
}

var _ driven.DocumentRegistry = (*documentRegistry)(nil)

// Upsert stores or replaces a registry entry.
func (r *documentRegistry) Upsert(ctx context.Context, doc *domain.Document) error {
	chunkIDsJSON, err := json.Marshal(doc.ChunkIDs)
	if err != nil {
		return fmt.Errorf("marshalling chunk ids: %w", err)
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err = r.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, source_path, filename, content_hash, chunk_ids, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_path = excluded.source_path,
			filename = excluded.filename,
			content_hash = excluded.content_hash,
			chunk_ids = excluded.chunk_ids,
			updated_at = excluded.updated_at
	`, doc.ID, doc.SourcePath, doc.Filename, doc.ContentHash,
		string(chunkIDsJSON), doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Get retrieves an entry by document id.
func (r *documentRegistry) Get(ctx context.Context, docID string) (*domain.Document, error) {
	row := r.store.db.QueryRowContext(ctx, `
		SELECT id, source_path, filename, content_hash, chunk_ids, created_at, updated_at
		FROM documents WHERE id = ?
	`, docID)

	var doc domain.Document
	var chunkIDsJSON string
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&doc.ID, &doc.SourcePath, &doc.Filename, &doc.ContentHash,
		&chunkIDsJSON, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if err := json.Unmarshal([]byte(chunkIDsJSON), &doc.ChunkIDs); err != nil {
		return nil, fmt.Errorf("unmarshaling chunk ids: %w", err)
	}
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}

	return &doc, nil
}

// Delete removes an entry.
func (r *documentRegistry) Delete(ctx context.Context, docID string) error {
	res, err := r.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", docID)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all entries sorted by document id.
func (r *documentRegistry) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, source_path, filename, content_hash, chunk_ids, created_at, updated_at
		FROM documents ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		var chunkIDsJSON string
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&doc.ID, &doc.SourcePath, &doc.Filename, &doc.ContentHash,
			&chunkIDsJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		if err := json.Unmarshal([]byte(chunkIDsJSON), &doc.ChunkIDs); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk ids: %w", err)
		}
		if createdAt.Valid {
			doc.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			doc.UpdatedAt = updatedAt.Time
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// Count returns the number of registered documents.
func (r *documentRegistry) Count(ctx context.Context) (int, error) {
	var count int
	err := r.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// Clear removes all entries.
func (r *documentRegistry) Clear(ctx context.Context) error {
	if _, err := r.store.db.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// scanChunkRow scans a chunk record from *sql.Row.
func scanChunkRow(row *sql.Row) (*domain.ChunkRecord, error) {
	var rec domain.ChunkRecord
	c := &rec.Chunk

	if err := row.Scan(&rec.RowID, &c.ID, &c.DocumentID, &c.DocumentName, &c.Ordinal,
		&c.Text, &c.StartOffset, &c.EndOffset, &c.PageNumber, &c.Section); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	return &rec, nil
}

// scanChunkRecords scans multiple chunk records.
func scanChunkRecords(rows *sql.Rows) ([]domain.ChunkRecord, error) {
	var records []domain.ChunkRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec domain.ChunkRecord
		c := &rec.Chunk
		if err := rows.Scan(&rec.RowID, &c.ID, &c.DocumentID, &c.DocumentName, &c.Ordinal,
			&c.Text, &c.StartOffset, &c.EndOffset, &c.PageNumber, &c.Section); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return records, nil
}
