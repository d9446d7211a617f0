package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for Quarry resources.
	uriScheme = "quarry://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for corpus statistics.
	s.inner.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Corpus statistics: document, chunk, and vector counts",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	// Static resource for listing documents.
	s.inner.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "List of all indexed documents",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)
}

// handleStatsResource returns the corpus statistics.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Ingest == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	stats, err := s.ports.Ingest.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}

	type statsInfo struct {
		Documents  int `json:"documents"`
		Chunks     int `json:"chunks"`
		Vectors    int `json:"vectors"`
		Dimensions int `json:"dimensions"`
	}

	data, err := json.MarshalIndent(statsInfo{
		Documents:  stats.TotalDocuments,
		Chunks:     stats.TotalChunks,
		Vectors:    stats.TotalVectors,
		Dimensions: stats.EmbeddingDimension,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling stats: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleDocumentsResource returns a list of all indexed documents.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Ingest == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	stats, err := s.ports.Ingest.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	// Build simplified document list.
	type docInfo struct {
		ID         string `json:"id"`
		Filename   string `json:"filename"`
		Chunks     int    `json:"chunks"`
		IngestedAt string `json:"ingested_at"`
	}

	infos := make([]docInfo, len(stats.Documents))
	for i := range stats.Documents {
		doc := &stats.Documents[i]
		infos[i] = docInfo{
			ID:         doc.ID,
			Filename:   doc.Filename,
			Chunks:     doc.NumChunks,
			IngestedAt: doc.IngestedAt,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
