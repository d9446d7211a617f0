package driving

import "github.com/lodeworks/quarry-cli/internal/core/domain"

// SettingsService manages persisted application settings.
type SettingsService interface {
	// Get retrieves current settings, falling back to defaults for
	// anything unset.
	Get() (*domain.AppSettings, error)

	// Save persists settings.
	Save(settings *domain.AppSettings) error

	// SetSearchMode updates the default search mode.
	SetSearchMode(mode domain.SearchMode) error

	// SetEmbeddingProvider configures the embedding backend.
	SetEmbeddingProvider(provider domain.EmbeddingProvider, model, apiKey string) error

	// Validate checks that the settings are usable for the configured mode.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
