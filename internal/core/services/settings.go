package services

import (
	"fmt"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driven"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keySearchMode     = "search.mode"
	keySearchTopK     = "search.top_k"
	keySearchMinScore = "search.score_threshold"
	keySearchContext  = "search.context_window"
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedDims      = "embedding.dimensions"
	keyChunkSize      = "chunking.chunk_size"
	keyChunkOverlap   = "chunking.overlap"
	keyChunkMinSize   = "chunking.min_chunk_size"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Search: domain.SearchSettings{
			Mode:           s.getSearchMode(defaults.Search.Mode),
			TopK:           s.getInt(keySearchTopK, defaults.Search.TopK),
			ScoreThreshold: s.getFloat(keySearchMinScore, defaults.Search.ScoreThreshold),
			ContextWindow:  s.getInt(keySearchContext, defaults.Search.ContextWindow),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.getString(keyEmbedBaseURL, defaults.Embedding.BaseURL),
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDims, defaults.Embedding.Dimensions),
		},
		Chunking: domain.ChunkingSettings{
			ChunkSize:    s.getInt(keyChunkSize, defaults.Chunking.ChunkSize),
			Overlap:      s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
			MinChunkSize: s.getInt(keyChunkMinSize, defaults.Chunking.MinChunkSize),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.configStore.Set(keySearchMode, string(settings.Search.Mode)); err != nil {
		return fmt.Errorf("save search mode: %w", err)
	}
	if err := s.configStore.Set(keySearchTopK, settings.Search.TopK); err != nil {
		return fmt.Errorf("save top_k: %w", err)
	}
	if err := s.configStore.Set(keySearchMinScore, settings.Search.ScoreThreshold); err != nil {
		return fmt.Errorf("save score_threshold: %w", err)
	}
	if err := s.configStore.Set(keySearchContext, settings.Search.ContextWindow); err != nil {
		return fmt.Errorf("save context_window: %w", err)
	}

	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if err := s.configStore.Set(keyEmbedDims, settings.Embedding.Dimensions); err != nil {
		return fmt.Errorf("save embedding dimensions: %w", err)
	}

	if err := s.configStore.Set(keyChunkSize, settings.Chunking.ChunkSize); err != nil {
		return fmt.Errorf("save chunk_size: %w", err)
	}
	if err := s.configStore.Set(keyChunkOverlap, settings.Chunking.Overlap); err != nil {
		return fmt.Errorf("save overlap: %w", err)
	}
	if err := s.configStore.Set(keyChunkMinSize, settings.Chunking.MinChunkSize); err != nil {
		return fmt.Errorf("save min_chunk_size: %w", err)
	}

	return nil
}

// SetSearchMode updates the default search mode.
func (s *SettingsService) SetSearchMode(mode domain.SearchMode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid search mode: %s", mode)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Search.Mode = mode
	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding backend.
func (s *SettingsService) SetEmbeddingProvider(
	provider domain.EmbeddingProvider, model, apiKey string,
) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		defaults := domain.DefaultEmbeddingModels()
		if defaultModel, ok := defaults[provider]; ok {
			settings.Embedding.Model = defaultModel
		}
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	// Update dimensions based on model. Changing dimensions invalidates
	// the index; the corpus needs an explicit rebuild afterwards.
	dims := domain.EmbeddingDimensions()
	if d, ok := dims[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// Validate checks if current settings are valid for the configured mode.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Search.Mode.Valid() {
		return fmt.Errorf("invalid search mode: %s", settings.Search.Mode)
	}

	if settings.Search.Mode != domain.SearchModeKeyword {
		if !settings.Embedding.IsConfigured() {
			return fmt.Errorf(
				"search mode %q requires embedding provider to be configured",
				settings.Search.Mode,
			)
		}
	}

	if settings.Chunking.Overlap >= settings.Chunking.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d",
			settings.Chunking.Overlap, settings.Chunking.ChunkSize)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getSearchMode(defaultVal domain.SearchMode) domain.SearchMode {
	val := s.configStore.GetString(keySearchMode)
	if val == "" {
		return defaultVal
	}
	mode := domain.SearchMode(val)
	if !mode.Valid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getProvider(key string, defaultVal domain.EmbeddingProvider) domain.EmbeddingProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.EmbeddingProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
