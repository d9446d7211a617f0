package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driven"
)

// Ensure DocumentRegistry implements the interface.
var _ driven.DocumentRegistry = (*DocumentRegistry)(nil)

// DocumentRegistry is an in-memory implementation of driven.DocumentRegistry.
type DocumentRegistry struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

// NewDocumentRegistry creates a new in-memory document registry.
func NewDocumentRegistry() *DocumentRegistry {
	return &DocumentRegistry{
		docs: make(map[string]domain.Document),
	}
}

// Upsert stores or replaces a registry entry.
func (r *DocumentRegistry) Upsert(_ context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = *doc
	return nil
}

// Get retrieves an entry by document id.
func (r *DocumentRegistry) Get(_ context.Context, docID string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[docID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// Delete removes an entry.
func (r *DocumentRegistry) Delete(_ context.Context, docID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[docID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.docs, docID)
	return nil
}

// List returns all entries sorted by document id.
func (r *DocumentRegistry) List(_ context.Context) ([]domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Document, 0, len(r.docs))
	for id := range r.docs {
		out = append(out, r.docs[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Count returns the number of registered documents.
func (r *DocumentRegistry) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs), nil
}

// Clear removes all entries.
func (r *DocumentRegistry) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = make(map[string]domain.Document)
	return nil
}
