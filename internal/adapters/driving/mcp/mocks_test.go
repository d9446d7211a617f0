package mcp

import (
	"context"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results  []domain.SearchResult
	err      error
	adaptive bool
}

func (m *mockRetrievalService) MultiQuery(
	_ context.Context,
	_ []string,
	_ int,
	_ domain.SearchMode,
) ([]domain.SearchResult, error) {
	m.adaptive = false
	return m.results, m.err
}

func (m *mockRetrievalService) AdaptiveRetrieve(
	_ context.Context,
	_ []string,
	_, _ int,
) ([]domain.SearchResult, error) {
	m.adaptive = true
	return m.results, m.err
}

func (m *mockRetrievalService) ExpandContext(
	_ context.Context,
	results []domain.SearchResult,
	_ int,
) ([]domain.SearchResult, error) {
	return results, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	stats *domain.CorpusStats
	err   error
}

func (m *mockIngestService) IngestFile(_ context.Context, _ string) (domain.IngestStatus, error) {
	return domain.IngestAdded, m.err
}

func (m *mockIngestService) IngestDirectory(_ context.Context, _ string) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, m.err
}

func (m *mockIngestService) Remove(_ context.Context, _ string) (bool, error) {
	return true, m.err
}

func (m *mockIngestService) Rebuild(_ context.Context) error {
	return m.err
}

func (m *mockIngestService) Verify(_ context.Context) error {
	return m.err
}

func (m *mockIngestService) Stats(_ context.Context) (*domain.CorpusStats, error) {
	return m.stats, m.err
}

func (m *mockIngestService) Clear(_ context.Context) error {
	return m.err
}
