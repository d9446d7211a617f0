// Package flat provides an exact, append-only vector index over dense
// row ids, persisted as a versioned binary snapshot.
//
// Search is an exact linear scan by L2 distance, and there is no delete
// operation. Removing rows means rebuilding the whole index from the
// surviving embeddings, which is the consistency boundary of the store.
package flat

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driven"
	"github.com/lodeworks/quarry-cli/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Snapshot format constants. The header makes the on-disk state
// self-describing so the startup consistency check can compare row
// counts without deserialising the payload.
const (
	snapshotMagic   = "QIDX"
	snapshotVersion = uint16(1)
	headerSize      = 4 + 2 + 4 + 8 // magic + version + dim + rows
)

// Index is a flat L2 vector index with dense zero-based row ids.
type Index struct {
	mu      sync.RWMutex
	path    string
	dim     int
	vectors [][]float32
	closed  bool
}

// Open loads the snapshot at path, or creates an empty index when no
// snapshot exists. The dimension is fixed for the life of the index; a
// snapshot recorded with a different dimension is a fatal configuration
// error, never silently adopted.
func Open(path string, dimension int) (*Index, error) {
	if path == "" {
		return nil, errors.New("flat: path cannot be empty")
	}
	if dimension <= 0 {
		return nil, errors.New("flat: dimension must be positive")
	}

	idx := &Index{
		path: path,
		dim:  dimension,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("Creating new flat index (dimension=%d)", dimension)
			return idx, nil
		}
		return nil, fmt.Errorf("flat: read snapshot: %w", err)
	}

	if err := idx.decode(data); err != nil {
		return nil, fmt.Errorf("flat: load %s: %w", path, err)
	}

	logger.Info("Loaded flat index with %d vectors from %s", len(idx.vectors), path)
	return idx, nil
}

// Add appends embeddings and assigns contiguous row ids starting at the
// current row count. The snapshot on disk grows monotonically.
func (idx *Index) Add(_ context.Context, embeddings [][]float32) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return 0, errors.New("flat: index is closed")
	}

	for i, e := range embeddings {
		if len(e) != idx.dim {
			return 0, fmt.Errorf("flat: embedding %d has dimension %d, index expects %d: %w",
				i, len(e), idx.dim, domain.ErrDimensionMismatch)
		}
	}

	start := len(idx.vectors)
	for _, e := range embeddings {
		row := make([]float32, idx.dim)
		copy(row, e)
		idx.vectors = append(idx.vectors, row)
	}

	if err := idx.save(); err != nil {
		return 0, err
	}
	return start, nil
}

// Search returns the k nearest rows by squared L2 distance, ascending,
// with ties broken by ascending row id for determinism. Searching an
// empty index returns an empty result.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, errors.New("flat: index is closed")
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("flat: query has dimension %d, index expects %d: %w",
			len(query), idx.dim, domain.ErrDimensionMismatch)
	}
	if k <= 0 || len(idx.vectors) == 0 {
		return []driven.VectorHit{}, nil
	}

	hits := make([]driven.VectorHit, len(idx.vectors))
	for row, vec := range idx.vectors {
		hits[row] = driven.VectorHit{RowID: row, Distance: l2Squared(query, vec)}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].RowID < hits[j].RowID
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Rebuild replaces the index contents with the given rows. The new
// arena is validated and built off to the side, then published under
// the write lock so in-flight reads never observe a partial index.
// Rebuild ignores context cancellation on purpose: once started it is
// the consistency boundary and must run to completion.
func (idx *Index) Rebuild(_ context.Context, embeddings [][]float32) error {
	fresh := make([][]float32, 0, len(embeddings))
	for i, e := range embeddings {
		if len(e) != idx.dim {
			return fmt.Errorf("flat: rebuild row %d has dimension %d, index expects %d: %w",
				i, len(e), idx.dim, domain.ErrDimensionMismatch)
		}
		row := make([]float32, idx.dim)
		copy(row, e)
		fresh = append(fresh, row)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return errors.New("flat: index is closed")
	}

	idx.vectors = fresh
	logger.Info("Rebuilt flat index with %d vectors", len(fresh))
	return idx.save()
}

// RowCount returns the number of stored vectors.
func (idx *Index) RowCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Dimensions returns the fixed embedding dimension.
func (idx *Index) Dimensions() int {
	return idx.dim
}

// Flush persists the snapshot.
func (idx *Index) Flush() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return errors.New("flat: index is closed")
	}
	return idx.save()
}

// Close flushes and releases the index.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil
	}
	err := idx.save()
	idx.closed = true
	return err
}

// save writes the snapshot atomically: temp file in the same directory,
// then rename. Caller must hold the write lock.
func (idx *Index) save() error {
	data := idx.encode()

	dir := filepath.Dir(idx.path)
	tmp, err := os.CreateTemp(dir, ".qidx-*")
	if err != nil {
		return fmt.Errorf("flat: create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flat: write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("flat: close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, idx.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("flat: publish snapshot: %w", err)
	}
	return nil
}

// encode serialises header + rows, little endian throughout.
func (idx *Index) encode() []byte {
	rows := len(idx.vectors)
	buf := make([]byte, headerSize+rows*idx.dim*4)

	copy(buf[0:4], snapshotMagic)
	binary.LittleEndian.PutUint16(buf[4:6], snapshotVersion)
	binary.LittleEndian.PutUint32(buf[6:10], uint32(idx.dim))
	binary.LittleEndian.PutUint64(buf[10:18], uint64(rows))

	off := headerSize
	for _, vec := range idx.vectors {
		for _, f := range vec {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
			off += 4
		}
	}
	return buf
}

// decode parses and validates a snapshot.
func (idx *Index) decode(data []byte) error {
	if len(data) < headerSize {
		return errors.New("snapshot truncated before header")
	}
	if string(data[0:4]) != snapshotMagic {
		return errors.New("not a flat index snapshot")
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", v)
	}
	dim := int(binary.LittleEndian.Uint32(data[6:10]))
	if dim != idx.dim {
		return fmt.Errorf("snapshot dimension %d does not match configured %d: %w",
			dim, idx.dim, domain.ErrDimensionMismatch)
	}
	rows := int(binary.LittleEndian.Uint64(data[10:18]))

	want := headerSize + rows*dim*4
	if len(data) != want {
		return fmt.Errorf("snapshot payload is %d bytes, header declares %d", len(data), want)
	}

	vectors := make([][]float32, rows)
	off := headerSize
	for r := 0; r < rows; r++ {
		vec := make([]float32, dim)
		for d := 0; d < dim; d++ {
			vec[d] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		vectors[r] = vec
	}

	idx.vectors = vectors
	return nil
}

// l2Squared computes squared Euclidean distance. Squared distance
// preserves nearest-neighbour ordering and avoids the sqrt.
func l2Squared(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
