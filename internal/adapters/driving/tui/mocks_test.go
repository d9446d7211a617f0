package tui

import (
	"context"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
)

// mockSearchService returns canned results for testing.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
}

func (m *mockSearchService) Search(
	_ context.Context, _ string, _ domain.SearchOptions,
) ([]domain.SearchResult, error) {
	return m.results, m.err
}

// mockIngestService serves canned corpus stats for testing.
type mockIngestService struct {
	stats   *domain.CorpusStats
	removed bool
	err     error
}

func (m *mockIngestService) IngestFile(_ context.Context, _ string) (domain.IngestStatus, error) {
	return domain.IngestAdded, m.err
}

func (m *mockIngestService) IngestDirectory(_ context.Context, _ string) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, m.err
}

func (m *mockIngestService) Remove(_ context.Context, _ string) (bool, error) {
	return m.removed, m.err
}

func (m *mockIngestService) Rebuild(_ context.Context) error { return m.err }

func (m *mockIngestService) Verify(_ context.Context) error { return m.err }

func (m *mockIngestService) Stats(_ context.Context) (*domain.CorpusStats, error) {
	return m.stats, m.err
}

func (m *mockIngestService) Clear(_ context.Context) error { return m.err }

// mockSettingsService serves canned settings for testing.
type mockSettingsService struct {
	settings domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, m.err
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error { return m.err }

func (m *mockSettingsService) SetSearchMode(mode domain.SearchMode) error {
	m.settings.Search.Mode = mode
	return m.err
}

func (m *mockSettingsService) SetEmbeddingProvider(
	provider domain.EmbeddingProvider, model, apiKey string,
) error {
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return m.err
}

func (m *mockSettingsService) Validate() error { return m.err }

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}
