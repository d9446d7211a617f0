package services

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodeworks/quarry-cli/internal/adapters/driven/index/flat"
	"github.com/lodeworks/quarry-cli/internal/adapters/driven/storage/memory"
	"github.com/lodeworks/quarry-cli/internal/chunker"
	"github.com/lodeworks/quarry-cli/internal/core/domain"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driven"
)

// stubLoader serves canned documents keyed by path.
type stubLoader struct {
	docs map[string]domain.LoadedDocument
}

var _ driven.Loader = (*stubLoader)(nil)

func (l *stubLoader) LoadFile(_ context.Context, path string) (*domain.LoadedDocument, error) {
	doc, ok := l.docs[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, domain.ErrNotFound)
	}
	return &doc, nil
}

func (l *stubLoader) LoadDirectory(_ context.Context, _ string) ([]domain.LoadedDocument, error) {
	out := make([]domain.LoadedDocument, 0, len(l.docs))
	for _, doc := range l.docs {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourcePath < out[j].SourcePath })
	return out, nil
}

func (l *stubLoader) put(path, content string) {
	sum := md5.Sum([]byte(content)) //nolint:gosec
	hash := hex.EncodeToString(sum[:])
	name := filepath.Base(path)
	l.docs[path] = domain.LoadedDocument{
		ID:          strings.TrimSuffix(name, filepath.Ext(name)) + "_" + hash[:8],
		SourcePath:  path,
		Filename:    name,
		Content:     content,
		ContentHash: hash,
	}
}

// ingestFixture wires the pipeline over real in-memory adapters.
type ingestFixture struct {
	loader   *stubLoader
	embedder *stubEmbedder
	index    *flat.Index
	chunks   *memory.ChunkStore
	registry *memory.DocumentRegistry
	svc      *IngestService
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()

	index, err := flat.Open(filepath.Join(t.TempDir(), "index.qidx"), 2)
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	f := &ingestFixture{
		loader:   &stubLoader{docs: make(map[string]domain.LoadedDocument)},
		embedder: &stubEmbedder{dim: 2},
		index:    index,
		chunks:   memory.NewChunkStore(),
		registry: memory.NewDocumentRegistry(),
	}
	f.svc = NewIngestService(
		f.loader,
		chunker.New(chunker.WithChunkSize(80), chunker.WithOverlap(0), chunker.WithMinChunkSize(10)),
		f.embedder,
		f.index,
		f.chunks,
		f.registry,
	)
	return f
}

// docContent builds text long enough to split into multiple chunks with
// the fixture's 80-char chunk size.
func docContent(word string) string {
	para := strings.Repeat(word+" content sentence. ", 3)
	return para + "\n\n" + para + "\n\n" + para
}

func TestIngestFile_Added(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	f.loader.put("/data/notes.txt", docContent("alpha"))

	status, err := f.svc.IngestFile(ctx, "/data/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestAdded, status)

	// Registry entry with chunk ids, store and index in lockstep.
	docs, err := f.registry.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.NotEmpty(t, docs[0].ChunkIDs)
	assert.Equal(t, "notes.txt", docs[0].Filename)

	count, err := f.chunks.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(docs[0].ChunkIDs), count)
	assert.Equal(t, count, f.index.RowCount())

	require.NoError(t, f.svc.Verify(ctx))
}

func TestIngestFile_SkippedWhenUnchanged(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	f.loader.put("/data/notes.txt", docContent("alpha"))

	_, err := f.svc.IngestFile(ctx, "/data/notes.txt")
	require.NoError(t, err)
	before := f.index.RowCount()

	status, err := f.svc.IngestFile(ctx, "/data/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestSkipped, status)
	assert.Equal(t, before, f.index.RowCount(), "skip must not touch the index")
}

func TestIngestFile_ReplacedWhenChanged(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	f.loader.put("/data/notes.txt", docContent("alpha"))
	_, err := f.svc.IngestFile(ctx, "/data/notes.txt")
	require.NoError(t, err)

	// Same path and document id, new content hash.
	doc := f.loader.docs["/data/notes.txt"]
	newContent := docContent("bravo")
	sum := md5.Sum([]byte(newContent)) //nolint:gosec
	doc.Content = newContent
	doc.ContentHash = hex.EncodeToString(sum[:])
	f.loader.docs["/data/notes.txt"] = doc

	status, err := f.svc.IngestFile(ctx, "/data/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestReplaced, status)

	// Only the new version remains and stores stay consistent.
	count, err := f.registry.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.NoError(t, f.svc.Verify(ctx))

	all, err := f.chunks.All(ctx)
	require.NoError(t, err)
	for _, rec := range all {
		assert.Contains(t, rec.Chunk.Text, "bravo")
	}
}

func TestIngestFile_TooShortFails(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	f.loader.put("/data/tiny.txt", "too short")

	status, err := f.svc.IngestFile(ctx, "/data/tiny.txt")
	require.Error(t, err)
	assert.Equal(t, domain.IngestFailed, status)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	// No partial writes.
	count, err := f.chunks.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, f.index.RowCount())
}

func TestIngestFile_EmbedderFailureLeavesNoTrace(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	f.loader.put("/data/notes.txt", docContent("alpha"))
	f.embedder.err = errors.New("backend down")

	status, err := f.svc.IngestFile(ctx, "/data/notes.txt")
	require.Error(t, err)
	assert.Equal(t, domain.IngestFailed, status)

	count, err := f.chunks.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	regCount, err := f.registry.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, regCount)
}

func TestIngestDirectory_ContinuesPastFailures(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	f.loader.put("/data/a.txt", docContent("alpha"))
	f.loader.put("/data/b.txt", "too short")
	f.loader.put("/data/c.txt", docContent("charlie"))

	report, err := f.svc.IngestDirectory(ctx, "/data")
	require.NoError(t, err)

	assert.NotEmpty(t, report.BatchID)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Skipped)
	assert.Contains(t, report.Errors, "/data/b.txt")

	require.NoError(t, f.svc.Verify(ctx))
}

func TestIngestDirectory_RerunSkips(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	f.loader.put("/data/a.txt", docContent("alpha"))
	f.loader.put("/data/b.txt", docContent("bravo"))

	_, err := f.svc.IngestDirectory(ctx, "/data")
	require.NoError(t, err)

	report, err := f.svc.IngestDirectory(ctx, "/data")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 0, report.Succeeded)
}

func TestRemove_RebuildsIndex(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	f.loader.put("/data/a.txt", docContent("alpha"))
	f.loader.put("/data/b.txt", docContent("bravo"))
	_, err := f.svc.IngestDirectory(ctx, "/data")
	require.NoError(t, err)

	docs, err := f.registry.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	victim := docs[0].ID

	removed, err := f.svc.Remove(ctx, victim)
	require.NoError(t, err)
	assert.True(t, removed)

	// The survivor's chunks hold dense rows matching the rebuilt index.
	require.NoError(t, f.svc.Verify(ctx))
	all, err := f.chunks.All(ctx)
	require.NoError(t, err)
	for i, rec := range all {
		assert.Equal(t, i, rec.RowID)
		assert.NotEqual(t, victim, rec.Chunk.DocumentID)
	}

	count, err := f.registry.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRemove_UnknownDocument(t *testing.T) {
	f := newIngestFixture(t)

	removed, err := f.svc.Remove(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRebuild_RepairsDrift(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	f.loader.put("/data/a.txt", docContent("alpha"))
	_, err := f.svc.IngestFile(ctx, "/data/a.txt")
	require.NoError(t, err)

	// Drift the index away from the metadata.
	_, err = f.index.Add(ctx, [][]float32{{9, 9}})
	require.NoError(t, err)

	err = f.svc.Verify(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptState))

	require.NoError(t, f.svc.Rebuild(ctx))
	require.NoError(t, f.svc.Verify(ctx))
}

func TestClear_WipesEverything(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	f.loader.put("/data/a.txt", docContent("alpha"))
	_, err := f.svc.IngestFile(ctx, "/data/a.txt")
	require.NoError(t, err)

	require.NoError(t, f.svc.Clear(ctx))

	count, err := f.chunks.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	regCount, err := f.registry.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, regCount)
	assert.Equal(t, 0, f.index.RowCount())
	require.NoError(t, f.svc.Verify(ctx))
}

func TestStats(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	f.loader.put("/data/a.txt", docContent("alpha"))
	f.loader.put("/data/b.txt", docContent("bravo"))
	_, err := f.svc.IngestDirectory(ctx, "/data")
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, stats.TotalChunks, stats.TotalVectors)
	assert.Equal(t, 2, stats.EmbeddingDimension)
	require.Len(t, stats.Documents, 2)

	totalFromDocs := 0
	for _, d := range stats.Documents {
		assert.NotEmpty(t, d.Filename)
		assert.NotEmpty(t, d.IngestedAt)
		totalFromDocs += d.NumChunks
	}
	assert.Equal(t, stats.TotalChunks, totalFromDocs)
}
