package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lodeworks/quarry-cli/internal/chunker"
	"github.com/lodeworks/quarry-cli/internal/core/domain"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driven"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driving"
	"github.com/lodeworks/quarry-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService orchestrates the load -> chunk -> embed -> store -> index
// pipeline and the corpus maintenance operations built on it.
type IngestService struct {
	loader   driven.Loader
	splitter *chunker.Chunker
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	chunks   driven.ChunkStore
	registry driven.DocumentRegistry

	// mu serialises corpus mutations. Reads stay lock-free; a reader
	// racing a rebuild may miss a row, which hydration tolerates.
	mu sync.Mutex
}

// NewIngestService creates a new ingestion service.
func NewIngestService(
	loader driven.Loader,
	splitter *chunker.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	chunks driven.ChunkStore,
	registry driven.DocumentRegistry,
) *IngestService {
	return &IngestService{
		loader:   loader,
		splitter: splitter,
		embedder: embedder,
		index:    index,
		chunks:   chunks,
		registry: registry,
	}
}

// IngestFile ingests a single file and reports the outcome.
func (s *IngestService) IngestFile(ctx context.Context, path string) (domain.IngestStatus, error) {
	logger.Section("Ingest File")
	logger.Info("Ingesting %s", path)

	loaded, err := s.loader.LoadFile(ctx, path)
	if err != nil {
		return domain.IngestFailed, fmt.Errorf("load %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingestLoaded(ctx, loaded)
}

// IngestDirectory ingests every supported file under a directory. The
// batch continues past per-document failures; the report carries the
// counters and the per-path errors.
func (s *IngestService) IngestDirectory(ctx context.Context, dir string) (*domain.IngestReport, error) {
	logger.Section("Ingest Directory")
	logger.Info("Ingesting directory %s", dir)

	docs, err := s.loader.LoadDirectory(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("load directory %s: %w", dir, err)
	}

	report := &domain.IngestReport{BatchID: uuid.NewString()}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range docs {
		status, err := s.ingestLoaded(ctx, &docs[i])
		if err != nil {
			logger.Warn("Ingest %s failed: %v", docs[i].SourcePath, err)
			report.RecordError(docs[i].SourcePath, err)
			continue
		}
		report.Record(status)
	}

	logger.Info("Batch %s: %d succeeded, %d skipped, %d failed",
		report.BatchID, report.Succeeded, report.Skipped, report.Failed)
	return report, nil
}

// ingestLoaded runs the pipeline for one loaded document. Caller holds mu.
//
// Dedup is decided on the loader's content hash: an unchanged document
// is skipped, a changed one is removed first and re-added. Writes are
// all-or-nothing per document; a failure mid-pipeline rolls back the
// chunk rows it wrote.
func (s *IngestService) ingestLoaded(
	ctx context.Context, loaded *domain.LoadedDocument,
) (domain.IngestStatus, error) {
	status := domain.IngestAdded

	existing, err := s.registry.Get(ctx, loaded.ID)
	switch {
	case err == nil:
		if existing.ContentHash == loaded.ContentHash {
			logger.Debug("Document %s unchanged, skipping", loaded.ID)
			return domain.IngestSkipped, nil
		}
		logger.Info("Document %s changed, replacing", loaded.ID)
		if err := s.removeLocked(ctx, loaded.ID); err != nil {
			return domain.IngestFailed, fmt.Errorf("remove old version: %w", err)
		}
		status = domain.IngestReplaced
	case errors.Is(err, domain.ErrNotFound):
		// First time seeing this document.
	default:
		return domain.IngestFailed, fmt.Errorf("registry lookup: %w", err)
	}

	chunks := s.splitter.Split(loaded.Content, loaded.ID, loaded.Filename, chunker.Metadata{
		PageNumber: loaded.PageNumber,
		Section:    loaded.Section,
	})
	if len(chunks) == 0 {
		return domain.IngestFailed, fmt.Errorf("document %s produced no chunks: %w",
			loaded.ID, domain.ErrInvalidInput)
	}

	if s.embedder == nil {
		return domain.IngestFailed, domain.ErrEmbeddingUnavailable
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return domain.IngestFailed, fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	if len(embeddings) != len(chunks) {
		return domain.IngestFailed, fmt.Errorf("embedder returned %d vectors for %d chunks",
			len(embeddings), len(chunks))
	}

	// Rows are assigned ahead of the append; the single-writer lock
	// keeps the reservation valid.
	start := s.index.RowCount()
	records := make([]domain.ChunkRecord, len(chunks))
	chunkIDs := make([]string, len(chunks))
	for i, c := range chunks {
		records[i] = domain.ChunkRecord{RowID: start + i, Chunk: c}
		chunkIDs[i] = c.ID
	}

	if err := s.chunks.PutChunks(ctx, records); err != nil {
		return domain.IngestFailed, fmt.Errorf("store chunks: %w", err)
	}

	if _, err := s.index.Add(ctx, embeddings); err != nil {
		// Roll the metadata back so the document leaves no trace.
		if _, derr := s.chunks.DeleteDocument(ctx, loaded.ID); derr != nil {
			logger.Error("Rollback of %s failed: %v", loaded.ID, derr)
		}
		return domain.IngestFailed, fmt.Errorf("index embeddings: %w", err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:          loaded.ID,
		SourcePath:  loaded.SourcePath,
		Filename:    loaded.Filename,
		ContentHash: loaded.ContentHash,
		ChunkIDs:    chunkIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.registry.Upsert(ctx, doc); err != nil {
		return domain.IngestFailed, fmt.Errorf("register document: %w", err)
	}

	logger.Info("Ingested %s: %d chunks at rows %d..%d",
		loaded.ID, len(chunks), start, start+len(chunks)-1)
	return status, nil
}

// Remove deletes a document and rebuilds the index over the survivors.
// Returns false when the document is unknown.
func (s *IngestService) Remove(ctx context.Context, docID string) (bool, error) {
	logger.Section("Remove Document")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.registry.Get(ctx, docID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("registry lookup: %w", err)
	}

	if err := s.removeLocked(ctx, docID); err != nil {
		return false, err
	}
	return true, nil
}

// removeLocked deletes a document's chunks and registry entry, then
// rebuilds the index from the renumbered survivors. Caller holds mu.
func (s *IngestService) removeLocked(ctx context.Context, docID string) error {
	survivors, err := s.chunks.DeleteDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	if err := s.registry.Delete(ctx, docID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete registry entry: %w", err)
	}

	return s.rebuildFromRecords(ctx, survivors)
}

// Rebuild regenerates the index from the chunk store. This is the
// explicit repair path for consistency errors detected at load.
func (s *IngestService) Rebuild(ctx context.Context) error {
	logger.Section("Rebuild Index")

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.chunks.All(ctx)
	if err != nil {
		return fmt.Errorf("load chunks: %w", err)
	}
	return s.rebuildFromRecords(ctx, records)
}

// rebuildFromRecords re-embeds the given records in row order and swaps
// the index. Caller holds mu.
func (s *IngestService) rebuildFromRecords(ctx context.Context, records []domain.ChunkRecord) error {
	if len(records) == 0 {
		return s.index.Rebuild(ctx, nil)
	}

	if s.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}

	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Chunk.Text
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("re-embed %d chunks: %w", len(records), err)
	}

	if err := s.index.Rebuild(ctx, embeddings); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	logger.Info("Rebuilt index over %d chunks", len(records))
	return nil
}

// Verify checks that the index row count matches the chunk metadata.
// A mismatch means the two stores drifted and reads by row can return
// the wrong chunk; only an explicit Rebuild repairs it.
func (s *IngestService) Verify(ctx context.Context) error {
	count, err := s.chunks.Count(ctx)
	if err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}

	rows := s.index.RowCount()
	if count != rows {
		return fmt.Errorf("chunk store has %d entries but index has %d rows: %w",
			count, rows, domain.ErrCorruptState)
	}

	logger.Debug("Verify passed: %d chunks, %d index rows", count, rows)
	return nil
}

// Stats summarises the corpus.
func (s *IngestService) Stats(ctx context.Context) (*domain.CorpusStats, error) {
	docs, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	chunkCount, err := s.chunks.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}

	stats := &domain.CorpusStats{
		TotalDocuments: len(docs),
		TotalChunks:    chunkCount,
		TotalVectors:   s.index.RowCount(),
		Documents:      make([]domain.DocumentStats, 0, len(docs)),
	}
	if s.embedder != nil {
		stats.EmbeddingDimension = s.embedder.Dimensions()
	} else {
		stats.EmbeddingDimension = s.index.Dimensions()
	}

	for _, doc := range docs {
		stats.Documents = append(stats.Documents, domain.DocumentStats{
			ID:         doc.ID,
			Filename:   doc.Filename,
			NumChunks:  len(doc.ChunkIDs),
			IngestedAt: doc.UpdatedAt.Format(time.RFC3339),
		})
	}

	return stats, nil
}

// Clear wipes the index, chunk metadata and registry.
func (s *IngestService) Clear(ctx context.Context) error {
	logger.Section("Clear Corpus")

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.chunks.Clear(ctx); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	if err := s.registry.Clear(ctx); err != nil {
		return fmt.Errorf("clear registry: %w", err)
	}
	if err := s.index.Rebuild(ctx, nil); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}

	logger.Info("Corpus cleared")
	return nil
}
