package domain

// EmbeddingProvider identifies an embedding backend.
type EmbeddingProvider string

const (
	// ProviderOllama is a local Ollama server.
	ProviderOllama EmbeddingProvider = "ollama"

	// ProviderOpenAI is OpenAI or any API-compatible endpoint.
	ProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid reports whether the provider is known.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case ProviderOllama, ProviderOpenAI:
		return true
	}
	return false
}

// IsLocal reports whether the provider runs on the local machine.
func (p EmbeddingProvider) IsLocal() bool {
	return p == ProviderOllama
}

// RequiresAPIKey reports whether the provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == ProviderOpenAI
}

// String returns the provider name.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case ProviderOllama:
		return "Ollama (local, no API key)"
	case ProviderOpenAI:
		return "OpenAI (cloud, requires API key)"
	default:
		return string(p)
	}
}

// AllEmbeddingProviders lists the selectable providers in display order.
func AllEmbeddingProviders() []EmbeddingProvider {
	return []EmbeddingProvider{ProviderOllama, ProviderOpenAI}
}

// SearchSettings configures retrieval defaults.
type SearchSettings struct {
	Mode           SearchMode
	TopK           int
	ScoreThreshold float64
	ContextWindow  int
}

// EmbeddingSettings configures the embedding backend.
type EmbeddingSettings struct {
	Provider   EmbeddingProvider
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
}

// IsConfigured reports whether the embedding backend can be constructed.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Model == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings configures the document splitter.
type ChunkingSettings struct {
	ChunkSize    int
	Overlap      int
	MinChunkSize int
}

// AppSettings is the full application configuration.
type AppSettings struct {
	Search    SearchSettings
	Embedding EmbeddingSettings
	Chunking  ChunkingSettings
}

// DefaultAppSettings returns the configuration used before the user has
// set anything.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search: SearchSettings{
			Mode: SearchModeHybrid,
			TopK: 5,
		},
		Embedding: EmbeddingSettings{
			Provider:   ProviderOllama,
			Model:      "all-minilm",
			BaseURL:    "http://localhost:11434",
			Dimensions: 384,
		},
		Chunking: ChunkingSettings{
			ChunkSize:    1000,
			Overlap:      200,
			MinChunkSize: 100,
		},
	}
}

// DefaultEmbeddingModels maps providers to their default model.
func DefaultEmbeddingModels() map[EmbeddingProvider]string {
	return map[EmbeddingProvider]string{
		ProviderOllama: "all-minilm",
		ProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions maps known models to their vector size.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"all-minilm":             384,
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
	}
}
