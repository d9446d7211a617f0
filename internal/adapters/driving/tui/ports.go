// Package tui provides an interactive terminal user interface for quarry.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/lodeworks/quarry-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides single-query retrieval.
	Search driving.SearchService

	// Retrieval provides multi-query and adaptive retrieval.
	Retrieval driving.RetrievalService

	// Ingest manages the corpus: stats, removal, rebuild.
	Ingest driving.IngestService

	// Settings manages application settings.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	// Retrieval and Settings are optional; their views degrade gracefully
	return nil
}
