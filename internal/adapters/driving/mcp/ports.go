package mcp

import (
	"github.com/lodeworks/quarry-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides single-query retrieval.
	Search driving.SearchService

	// Retrieval provides multi-query and adaptive retrieval.
	Retrieval driving.RetrievalService

	// Ingest provides corpus statistics.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Retrieval and Ingest are optional; their tools degrade gracefully
	return nil
}
