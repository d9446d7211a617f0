package memory

import (
	"sync"

	"github.com/lodeworks/quarry-cli/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in memory. It backs tests and ephemeral
// runs where nothing should touch the user's config file. Keys follow
// the same dot notation the file store uses ("search.mode").
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates an empty in-memory config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

// NewSeededConfigStore creates a store pre-populated with values, for
// tests that start from a known configuration.
func NewSeededConfigStore(values map[string]any) *ConfigStore {
	s := NewConfigStore()
	for key, val := range values {
		s.values[key] = val
	}
	return s
}

// Get retrieves a raw value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// GetString returns the string at key, or "".
func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	str, _ := val.(string)
	return str
}

// GetInt returns the integer at key, or 0. Wider integer and float
// types are converted, matching what the file store yields after a
// TOML round trip.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// GetFloat returns the numeric value at key, or 0. Integers widen.
func (s *ConfigStore) GetFloat(key string) float64 {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Set stores a value. There is no backing storage, so the value is
// immediately visible to readers.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Save is a no-op; memory is the storage.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op; memory is the storage.
func (s *ConfigStore) Load() error { return nil }

// Path identifies the store for display.
func (s *ConfigStore) Path() string { return ":memory:" }
