package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
)

func TestDocumentRegistry_UpsertAndGet(t *testing.T) {
	reg := NewDocumentRegistry()
	ctx := context.Background()

	now := time.Now()
	doc := &domain.Document{
		ID:          "report_a1b2c3d4",
		SourcePath:  "/data/report.txt",
		Filename:    "report.txt",
		ContentHash: "a1b2c3d4e5f6",
		ChunkIDs:    []string{"report_a1b2c3d4_chunk_0"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, reg.Upsert(ctx, doc))

	got, err := reg.Get(ctx, "report_a1b2c3d4")
	require.NoError(t, err)
	assert.Equal(t, "report.txt", got.Filename)
	assert.Equal(t, "a1b2c3d4e5f6", got.ContentHash)
}

func TestDocumentRegistry_UpsertReplaces(t *testing.T) {
	reg := NewDocumentRegistry()
	ctx := context.Background()

	require.NoError(t, reg.Upsert(ctx, &domain.Document{ID: "doc-1", ContentHash: "old"}))
	require.NoError(t, reg.Upsert(ctx, &domain.Document{ID: "doc-1", ContentHash: "new"}))

	got, err := reg.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.ContentHash)

	count, err := reg.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDocumentRegistry_GetMissing(t *testing.T) {
	reg := NewDocumentRegistry()

	_, err := reg.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDocumentRegistry_Delete(t *testing.T) {
	reg := NewDocumentRegistry()
	ctx := context.Background()

	require.NoError(t, reg.Upsert(ctx, &domain.Document{ID: "doc-1"}))
	require.NoError(t, reg.Delete(ctx, "doc-1"))

	_, err := reg.Get(ctx, "doc-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = reg.Delete(ctx, "doc-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDocumentRegistry_ListSorted(t *testing.T) {
	reg := NewDocumentRegistry()
	ctx := context.Background()

	require.NoError(t, reg.Upsert(ctx, &domain.Document{ID: "zeta"}))
	require.NoError(t, reg.Upsert(ctx, &domain.Document{ID: "alpha"}))
	require.NoError(t, reg.Upsert(ctx, &domain.Document{ID: "mid"}))

	docs, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "alpha", docs[0].ID)
	assert.Equal(t, "mid", docs[1].ID)
	assert.Equal(t, "zeta", docs[2].ID)
}

func TestDocumentRegistry_Clear(t *testing.T) {
	reg := NewDocumentRegistry()
	ctx := context.Background()

	require.NoError(t, reg.Upsert(ctx, &domain.Document{ID: "doc-1"}))
	require.NoError(t, reg.Clear(ctx))

	count, err := reg.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
