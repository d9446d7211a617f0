package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	store, err := NewConfigStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".quarry", "config.toml"), store.Path())
}

func TestNewConfigStore_CreatesNestedDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "deep", "path")

	store, err := NewConfigStore(nested)
	require.NoError(t, err)
	require.NotNil(t, store)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("search.mode", "hybrid"))
	require.NoError(t, store.Set("search.top_k", 5))
	require.NoError(t, store.Set("search.score_threshold", 0.25))

	assert.Equal(t, "hybrid", store.GetString("search.mode"))
	assert.Equal(t, 5, store.GetInt("search.top_k"))
	assert.InDelta(t, 0.25, store.GetFloat("search.score_threshold"), 1e-9)

	// Missing keys return zero values.
	assert.Empty(t, store.GetString("nonexistent"))
	assert.Zero(t, store.GetInt("nonexistent"))
	assert.Zero(t, store.GetFloat("nonexistent"))

	// Type mismatches return zero values rather than panicking.
	assert.Empty(t, store.GetString("search.top_k"))
	assert.Zero(t, store.GetInt("search.mode"))
	assert.Zero(t, store.GetFloat("search.mode"))
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store := newTestStore(t)

	val, ok := store.Get("nonexistent")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	store1, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store1.Set("embedding.provider", "ollama"))
	require.NoError(t, store1.Set("embedding.dimensions", 384))
	require.NoError(t, store1.Set("search.score_threshold", 0.25))

	// A fresh instance loads from the file.
	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "ollama", store2.GetString("embedding.provider"))
	assert.Equal(t, 384, store2.GetInt("embedding.dimensions"))
	assert.InDelta(t, 0.25, store2.GetFloat("search.score_threshold"), 1e-9)
}

func TestConfigStore_SaveWritesNestedTables(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("search.mode", "hybrid"))
	require.NoError(t, store.Set("embedding.model", "all-minilm"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[search]")
	assert.Contains(t, string(raw), "[embedding]")
	assert.NotContains(t, string(raw), "search.mode", "keys must not be written flat")
}

func TestConfigStore_SaveLeavesNoTempFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("search.mode", "semantic"))

	_, err := os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestConfigStore_LoadFlattensNestedTables(t *testing.T) {
	tmpDir := t.TempDir()

	content := []byte("[search]\nmode = \"keyword\"\ntop_k = 7\n\n[embedding]\nmodel = \"all-minilm\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), content, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "keyword", store.GetString("search.mode"))
	assert.Equal(t, 7, store.GetInt("search.top_k"))
	assert.Equal(t, "all-minilm", store.GetString("embedding.model"))
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("# comment only\n"), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	_, ok := store.Get("any_key")
	assert.False(t, ok)
}

func TestConfigStore_CorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not valid TOML {{{[["), 0600))

	store, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_OverwriteValue(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("search.mode", "semantic"))
	require.NoError(t, store.Set("search.mode", "hybrid"))
	assert.Equal(t, "hybrid", store.GetString("search.mode"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("embedding.api_key", "sk-secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_GetInt_Int64FromTOML(t *testing.T) {
	store := newTestStore(t)

	store.mu.Lock()
	store.data["chunking.chunk_size"] = int64(1000)
	store.mu.Unlock()

	assert.Equal(t, 1000, store.GetInt("chunking.chunk_size"))
}

func TestConfigStore_GetFloat_Int64FromTOML(t *testing.T) {
	store := newTestStore(t)

	store.mu.Lock()
	store.data["search.score_threshold"] = int64(1)
	store.mu.Unlock()

	assert.InDelta(t, 1.0, store.GetFloat("search.score_threshold"), 1e-9)
}

func TestConfigStore_SetUnmarshallableValue(t *testing.T) {
	store := newTestStore(t)

	err := store.Set("channel", make(chan int))
	assert.Error(t, err)

	// A failed save must not leave the unmarshallable value behind.
	_, ok := store.Get("channel")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestStore(t)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			key := "key" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_, _ = store.Get(key)
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
