package driven

// ConfigStore persists application settings as flat dot-notation keys
// ("search.mode", "chunking.chunk_size", "embedding.api_key"). The
// settings service owns the key names; stores only move typed values
// in and out.
type ConfigStore interface {
	// Get retrieves a raw value and reports whether the key exists.
	Get(key string) (any, bool)

	// GetString returns the value at key, or "" when the key is
	// missing or holds a non-string.
	GetString(key string) string

	// GetInt returns the value at key, or 0 when the key is missing
	// or holds a non-integer. Integer widths from the underlying
	// format (e.g. TOML's int64) are converted.
	GetInt(key string) int

	// GetFloat returns the value at key, or 0 when the key is missing
	// or not numeric. Integers are widened.
	GetFloat(key string) float64

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path identifies the backing storage for display.
	Path() string
}
