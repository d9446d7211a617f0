package cli

import (
	"bytes"
	"context"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
)

// mockSearchService records the last query and returns canned results.
type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	lastQry  string
	lastOpts domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastQry = query
	m.lastOpts = opts
	return m.results, m.err
}

type mockRetrievalService struct {
	results []domain.SearchResult
	err     error

	multiQueries   []string
	multiTopK      int
	multiMode      domain.SearchMode
	adaptiveMin    int
	adaptiveMax    int
	expandWindow   int
	expandCalled   bool
	adaptiveCalled bool
	multiCalled    bool
}

func (m *mockRetrievalService) MultiQuery(
	_ context.Context, queries []string, topK int, mode domain.SearchMode,
) ([]domain.SearchResult, error) {
	m.multiCalled = true
	m.multiQueries = queries
	m.multiTopK = topK
	m.multiMode = mode
	return m.results, m.err
}

func (m *mockRetrievalService) AdaptiveRetrieve(
	_ context.Context, queries []string, minResults, maxResults int,
) ([]domain.SearchResult, error) {
	m.adaptiveCalled = true
	m.multiQueries = queries
	m.adaptiveMin = minResults
	m.adaptiveMax = maxResults
	return m.results, m.err
}

func (m *mockRetrievalService) ExpandContext(
	_ context.Context, results []domain.SearchResult, window int,
) ([]domain.SearchResult, error) {
	m.expandCalled = true
	m.expandWindow = window
	return results, m.err
}

type mockIngestService struct {
	status    domain.IngestStatus
	report    *domain.IngestReport
	stats     *domain.CorpusStats
	removed   bool
	err       error
	verifyErr error

	ingestedPath string
	removedID    string
	rebuilt      bool
	cleared      bool
}

func (m *mockIngestService) IngestFile(_ context.Context, path string) (domain.IngestStatus, error) {
	m.ingestedPath = path
	return m.status, m.err
}

func (m *mockIngestService) IngestDirectory(_ context.Context, dir string) (*domain.IngestReport, error) {
	m.ingestedPath = dir
	return m.report, m.err
}

func (m *mockIngestService) Remove(_ context.Context, docID string) (bool, error) {
	m.removedID = docID
	return m.removed, m.err
}

func (m *mockIngestService) Rebuild(_ context.Context) error {
	m.rebuilt = true
	return m.err
}

func (m *mockIngestService) Verify(_ context.Context) error { return m.verifyErr }

func (m *mockIngestService) Stats(_ context.Context) (*domain.CorpusStats, error) {
	return m.stats, m.err
}

func (m *mockIngestService) Clear(_ context.Context) error {
	m.cleared = true
	return m.err
}

type mockSettingsService struct {
	settings    domain.AppSettings
	err         error
	validateErr error

	savedMode     domain.SearchMode
	savedProvider domain.EmbeddingProvider
	savedModel    string
	savedAPIKey   string
	saved         *domain.AppSettings
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	cp := m.settings
	return &cp, m.err
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.saved = settings
	return m.err
}

func (m *mockSettingsService) SetSearchMode(mode domain.SearchMode) error {
	m.savedMode = mode
	return m.err
}

func (m *mockSettingsService) SetEmbeddingProvider(
	provider domain.EmbeddingProvider, model, apiKey string,
) error {
	m.savedProvider = provider
	m.savedModel = model
	m.savedAPIKey = apiKey
	return m.err
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// testServices bundles the mocks installed by setupTestServices.
type testServices struct {
	search    *mockSearchService
	retrieval *mockRetrievalService
	ingest    *mockIngestService
	settings  *mockSettingsService
}

// setupTestServices swaps the package services for mocks and returns a
// cleanup func that restores the originals and resets flag state.
func setupTestServices() (*testServices, func()) {
	prevSearch := searchService
	prevRetrieval := retrievalService
	prevIngest := ingestService
	prevSettings := settingsService

	svcs := &testServices{
		search:    &mockSearchService{},
		retrieval: &mockRetrievalService{},
		ingest:    &mockIngestService{},
		settings:  &mockSettingsService{settings: domain.DefaultAppSettings()},
	}
	SetServices(Services{
		Search:    svcs.search,
		Retrieval: svcs.retrieval,
		Ingest:    svcs.ingest,
		Settings:  svcs.settings,
	})

	return svcs, func() {
		searchService = prevSearch
		retrievalService = prevRetrieval
		ingestService = prevIngest
		settingsService = prevSettings
		startupErr = nil

		searchLimit = 5
		searchMode = ""
		searchThreshold = 0
		searchContext = 0
		searchMin = 0
		searchJSON = false
		clearForce = false
	}
}

// executeCommand runs the root command with args and captures the output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{
			Chunk: domain.Chunk{
				ID:           "guide_ab12cd34_chunk_0",
				DocumentID:   "guide_ab12cd34",
				DocumentName: "guide.md",
				Ordinal:      0,
				Text:         "Install the binary and run quarry ingest to index documents.",
			},
			SemanticScore: 0.9,
			KeywordScore:  0.5,
			HybridScore:   0.78,
		},
		{
			Chunk: domain.Chunk{
				ID:           "guide_ab12cd34_chunk_1",
				DocumentID:   "guide_ab12cd34",
				DocumentName: "guide.md",
				Ordinal:      1,
				Text:         "Search combines keyword and semantic scoring.",
			},
			HybridScore: 0.55,
			QuerySource: "hybrid search",
		},
	}
}
