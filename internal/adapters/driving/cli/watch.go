package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lodeworks/quarry-cli/internal/logger"
)

// watchDebounce coalesces bursts of filesystem events for the same path.
// Editors often emit several writes per save.
const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and re-ingest changed files",
	Long: `Watches a directory tree and ingests files as they are created
or modified. Unchanged content is skipped by the dedup check, so
spurious events are cheap. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the whole tree; fsnotify does not recurse on its own.
	err = filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initial pass so the index reflects the current tree.
	report, err := ingestService.IngestDirectory(ctx, dir)
	if err != nil {
		return fmt.Errorf("initial ingest failed: %w", err)
	}
	cmd.Printf("Watching %s (%d documents indexed, %d skipped)\n", dir, report.Succeeded, report.Skipped)

	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
	)
	defer func() {
		mu.Lock()
		for _, timer := range pending {
			timer.Stop()
		}
		mu.Unlock()
	}()

	ingestPath := func(path string) {
		mu.Lock()
		delete(pending, path)
		mu.Unlock()

		status, err := ingestService.IngestFile(ctx, path)
		if err != nil {
			logger.Warn("watch: ingest %s: %v", path, err)
			return
		}
		cmd.Printf("%s: %s\n", path, status)
	}

	for {
		select {
		case <-ctx.Done():
			cmd.Println("\nStopped.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op.Has(fsnotify.Create) {
				// New directories need their own watch.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !strings.HasPrefix(filepath.Base(event.Name), ".") {
						_ = watcher.Add(event.Name)
					}
					continue
				}
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}

			path := event.Name
			mu.Lock()
			if timer, exists := pending[path]; exists {
				timer.Reset(watchDebounce)
			} else {
				pending[path] = time.AfterFunc(watchDebounce, func() { ingestPath(path) })
			}
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)
		}
	}
}
