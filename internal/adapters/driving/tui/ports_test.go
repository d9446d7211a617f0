package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPorts_Validate(t *testing.T) {
	t.Run("valid ports", func(t *testing.T) {
		ports := newTestPorts()
		assert.NoError(t, ports.Validate())
	})

	t.Run("missing search service", func(t *testing.T) {
		ports := newTestPorts()
		ports.Search = nil
		assert.ErrorIs(t, ports.Validate(), ErrMissingSearchService)
	})

	t.Run("missing ingest service", func(t *testing.T) {
		ports := newTestPorts()
		ports.Ingest = nil
		assert.ErrorIs(t, ports.Validate(), ErrMissingIngestService)
	})

	t.Run("retrieval and settings optional", func(t *testing.T) {
		ports := newTestPorts()
		ports.Retrieval = nil
		ports.Settings = nil
		assert.NoError(t, ports.Validate())
	})
}
