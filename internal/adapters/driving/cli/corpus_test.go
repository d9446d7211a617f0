package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
)

// executeCommandWithInput runs the root command with stdin wired to input.
func executeCommandWithInput(input string, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestStatsCmd(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()
	svcs.ingest.stats = &domain.CorpusStats{
		TotalDocuments:     2,
		TotalChunks:        7,
		TotalVectors:       7,
		EmbeddingDimension: 384,
		Documents: []domain.DocumentStats{
			{ID: "guide_ab12cd34", Filename: "guide.md", NumChunks: 4, IngestedAt: "2026-08-01T10:00:00Z"},
			{ID: "notes_ef56ab78", Filename: "notes.txt", NumChunks: 3, IngestedAt: "2026-08-02T11:00:00Z"},
		},
	}

	output, err := executeCommand("stats")

	require.NoError(t, err)
	assert.Contains(t, output, "Documents:  2")
	assert.Contains(t, output, "Chunks:     7")
	assert.Contains(t, output, "Vectors:    7")
	assert.Contains(t, output, "Dimensions: 384")
	assert.Contains(t, output, "guide_ab12cd34")
	assert.Contains(t, output, "File:     notes.txt")
}

func TestStatsCmd_Empty(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()
	svcs.ingest.stats = &domain.CorpusStats{}

	output, err := executeCommand("stats")

	require.NoError(t, err)
	assert.Contains(t, output, "Documents:  0")
}

func TestVerifyCmd_Consistent(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	output, err := executeCommand("verify")

	require.NoError(t, err)
	assert.Contains(t, output, "Index is consistent.")
}

func TestVerifyCmd_Inconsistent(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()
	svcs.ingest.verifyErr = domain.ErrCorruptState

	_, err := executeCommand("verify")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCorruptState)
	assert.Contains(t, err.Error(), "run 'quarry rebuild' to repair")
}

func TestRebuildCmd(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()

	output, err := executeCommand("rebuild")

	require.NoError(t, err)
	assert.True(t, svcs.ingest.rebuilt)
	assert.Contains(t, output, "Rebuild complete.")
}

func TestRebuildCmd_Error(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()
	svcs.ingest.err = assert.AnError

	_, err := executeCommand("rebuild")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rebuild failed")
}

func TestClearCmd_Force(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()

	output, err := executeCommand("clear", "--force")

	require.NoError(t, err)
	assert.True(t, svcs.ingest.cleared)
	assert.Contains(t, output, "All indexed data deleted.")
}

func TestClearCmd_Confirmed(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()

	output, err := executeCommandWithInput("y\n", "clear")

	require.NoError(t, err)
	assert.True(t, svcs.ingest.cleared)
	assert.Contains(t, output, "Continue? [y/N]")
	assert.Contains(t, output, "All indexed data deleted.")
}

func TestClearCmd_Declined(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()

	output, err := executeCommandWithInput("n\n", "clear")

	require.NoError(t, err)
	assert.False(t, svcs.ingest.cleared)
	assert.Contains(t, output, "Aborted.")
}

func TestClearCmd_DeclinedByDefault(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()

	output, err := executeCommandWithInput("\n", "clear")

	require.NoError(t, err)
	assert.False(t, svcs.ingest.cleared)
	assert.Contains(t, output, "Aborted.")
}
