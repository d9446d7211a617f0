// Package cli implements the quarry command-line interface using cobra.
// Commands delegate to the driving port services; wiring happens in main.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lodeworks/quarry-cli/internal/core/ports/driving"
	"github.com/lodeworks/quarry-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// verboseFlag enables debug logging for the retrieval pipeline.
var verboseFlag bool

// Services the commands delegate to. Set via SetServices before Execute.
var (
	searchService    driving.SearchService
	retrievalService driving.RetrievalService
	ingestService    driving.IngestService
	settingsService  driving.SettingsService
)

// Services bundles the driving ports the CLI needs.
type Services struct {
	Search    driving.SearchService
	Retrieval driving.RetrievalService
	Ingest    driving.IngestService
	Settings  driving.SettingsService
}

// SetServices injects the service implementations used by the commands.
func SetServices(s Services) {
	searchService = s.Search
	retrievalService = s.Retrieval
	ingestService = s.Ingest
	settingsService = s.Settings
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// startupErr holds a fatal load-time consistency failure. While set,
// every command except the explicit repair path refuses to run: serving
// queries over a drifted index would return the wrong chunks with
// confident scores.
var startupErr error

// repairCommands may run against corrupt state.
var repairCommands = map[string]bool{
	"rebuild": true,
	"verify":  true,
}

// SetStartupError records a consistency failure detected at load.
func SetStartupError(err error) {
	startupErr = err
}

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Local hybrid document search",
	Long: `Quarry indexes local documents and retrieves them with hybrid search,
combining BM25 keyword matching with semantic vector similarity.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if startupErr != nil && !repairCommands[cmd.Name()] {
			return fmt.Errorf("%w (run 'quarry rebuild' to repair)", startupErr)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
