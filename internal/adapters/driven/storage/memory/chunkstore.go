package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
// Rows are kept densely ordered, mirroring the vector index layout.
type ChunkStore struct {
	mu      sync.RWMutex
	records []domain.ChunkRecord
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{}
}

// PutChunks stores records for newly assigned rows.
func (s *ChunkStore) PutChunks(_ context.Context, records []domain.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	sort.Slice(s.records, func(i, j int) bool {
		return s.records[i].RowID < s.records[j].RowID
	})
	return nil
}

// GetByRow retrieves the chunk at a given index row.
func (s *ChunkStore) GetByRow(_ context.Context, rowID int) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.records {
		if s.records[i].RowID == rowID {
			chunk := s.records[i].Chunk
			return &chunk, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetByID retrieves a chunk record by chunk id.
func (s *ChunkStore) GetByID(_ context.Context, chunkID string) (*domain.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.records {
		if s.records[i].Chunk.ID == chunkID {
			rec := s.records[i]
			return &rec, nil
		}
	}
	return nil, domain.ErrNotFound
}

// All returns every record ordered by ascending row id.
func (s *ChunkStore) All(_ context.Context) ([]domain.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ChunkRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// DeleteDocument removes a document's chunks and renumbers the survivors
// densely from zero, preserving their relative order.
func (s *ChunkStore) DeleteDocument(_ context.Context, docID string) ([]domain.ChunkRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	survivors := make([]domain.ChunkRecord, 0, len(s.records))
	for _, rec := range s.records {
		if rec.Chunk.DocumentID == docID {
			continue
		}
		rec.RowID = len(survivors)
		survivors = append(survivors, rec)
	}
	s.records = survivors

	out := make([]domain.ChunkRecord, len(survivors))
	copy(out, survivors)
	return out, nil
}

// Neighbours returns same-document chunks within the ordinal window,
// excluding the anchor ordinal itself.
func (s *ChunkStore) Neighbours(_ context.Context, docID string, ordinal, window int) ([]domain.Chunk, error) {
	if window <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Chunk
	for i := range s.records {
		c := s.records[i].Chunk
		if c.DocumentID != docID || c.Ordinal == ordinal {
			continue
		}
		if c.Ordinal >= ordinal-window && c.Ordinal <= ordinal+window {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

// Count returns the number of stored chunks.
func (s *ChunkStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Clear removes all chunk metadata.
func (s *ChunkStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}
