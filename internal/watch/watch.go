// Package watch re-runs work when bundle documents change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before calling back.
const DefaultDebounce = 150 * time.Millisecond

// Options configures Run.
type Options struct {
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// Extensions limits events to these file extensions (with dot).
	// Empty means every file.
	Extensions []string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Ready, if set, is called once every directory is being watched.
	Ready func()
}

// Run watches dir recursively and calls onChange with the sorted set of
// changed paths after each debounced burst. It returns when ctx is done.
// Errors from onChange are logged and do not stop the watch.
func Run(ctx context.Context, dir string, opts Options, onChange func(paths []string) error) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := addTree(watcher, dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logger.Info("watching for changes", "dir", dir)
	if opts.Ready != nil {
		opts.Ready()
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			// new subdirectories join the watch
			if event.Op&fsnotify.Create != 0 && isDir(event.Name) {
				if err := addTree(watcher, event.Name); err != nil {
					logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
				}
				continue
			}
			if !matches(event.Name, opts.Extensions) {
				continue
			}

			logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			pending[event.Name] = true
			timer.Reset(debounce)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)

			if err := onChange(paths); err != nil {
				logger.Warn("rebuild failed", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

// addTree adds dir and its non-hidden subdirectories to the watcher.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func matches(path string, exts []string) bool {
	return len(exts) == 0 || slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}
