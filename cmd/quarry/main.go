// Command quarry is a local hybrid document search tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lodeworks/quarry-cli/internal/adapters/driven/config/file"
	"github.com/lodeworks/quarry-cli/internal/adapters/driven/embedding/ollama"
	"github.com/lodeworks/quarry-cli/internal/adapters/driven/embedding/openai"
	"github.com/lodeworks/quarry-cli/internal/adapters/driven/index/flat"
	"github.com/lodeworks/quarry-cli/internal/adapters/driven/lexical/bm25"
	fsloader "github.com/lodeworks/quarry-cli/internal/adapters/driven/loader/fs"
	"github.com/lodeworks/quarry-cli/internal/adapters/driven/storage/sqlite"
	"github.com/lodeworks/quarry-cli/internal/adapters/driving/cli"
	"github.com/lodeworks/quarry-cli/internal/chunker"
	"github.com/lodeworks/quarry-cli/internal/core/domain"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driven"
	"github.com/lodeworks/quarry-cli/internal/core/services"
	"github.com/lodeworks/quarry-cli/internal/logger"
)

// version is injected at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	defer store.Close()

	embedder := buildEmbedder(settings)

	dimensions := settings.Embedding.Dimensions
	if embedder != nil {
		dimensions = embedder.Dimensions()
	}
	if dimensions <= 0 {
		dimensions = settingsService.GetDefaults().Embedding.Dimensions
	}

	index, err := flat.Open(indexPath(store.Path()), dimensions)
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}
	defer index.Close()

	splitter := chunker.New(
		chunker.WithChunkSize(settings.Chunking.ChunkSize),
		chunker.WithOverlap(settings.Chunking.Overlap),
		chunker.WithMinChunkSize(settings.Chunking.MinChunkSize),
	)

	chunks := store.ChunkStore()
	registry := store.DocumentRegistry()
	lexical := bm25.New(chunks)
	loader := fsloader.New()

	searchService := services.NewSearchService(chunks, index, lexical, embedder)
	retrievalService := services.NewRetrievalService(searchService, chunks)
	ingestService := services.NewIngestService(loader, splitter, embedder, index, chunks, registry)

	// Consistency check at startup. A row-count mismatch is fatal for
	// everything except the explicit repair commands; serving searches
	// over drifted state would hydrate the wrong chunks.
	if err := ingestService.Verify(context.Background()); err != nil {
		if errors.Is(err, domain.ErrCorruptState) {
			cli.SetStartupError(err)
		} else {
			logger.Warn("Startup verify failed: %v", err)
		}
	}

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Search:    searchService,
		Retrieval: retrievalService,
		Ingest:    ingestService,
		Settings:  settingsService,
	})

	return cli.Execute()
}

// buildEmbedder constructs the embedding backend for the configured
// provider, or returns nil when none is usable. A nil embedder leaves
// keyword search available.
func buildEmbedder(settings *domain.AppSettings) driven.EmbeddingService {
	if !settings.Embedding.IsConfigured() {
		return nil
	}

	switch settings.Embedding.Provider {
	case domain.ProviderOllama:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    settings.Embedding.BaseURL,
			Model:      settings.Embedding.Model,
			Dimensions: settings.Embedding.Dimensions,
		})
	case domain.ProviderOpenAI:
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:     settings.Embedding.APIKey,
			BaseURL:    settings.Embedding.BaseURL,
			Model:      settings.Embedding.Model,
			Dimensions: settings.Embedding.Dimensions,
		})
		if err != nil {
			logger.Warn("OpenAI embedding unavailable: %v", err)
			return nil
		}
		return svc
	}
	return nil
}

// indexPath places the vector snapshot next to the metadata database.
func indexPath(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "vectors.qidx")
}
