// Package watcher triggers a refresh when dictionary or template files
// change on disk. Bursts of events are debounced into one refresh.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"smarttax/receipt-ocr/internal/fileutils"
	"smarttax/receipt-ocr/internal/logging"
)

// DefaultDebounce is the quiet period after the last event before a refresh.
const DefaultDebounce = 500 * time.Millisecond

// watchedExtensions are the document types that trigger a refresh.
var watchedExtensions = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// Watcher calls onChange after matching files under its directories settle.
type Watcher struct {
	dirs     []string
	debounce time.Duration
	onChange func(context.Context)
	logger   logging.Logger
}

// New creates a Watcher over dirs. Missing directories are skipped when
// Run starts. A non-positive debounce selects DefaultDebounce.
func New(dirs []string, debounce time.Duration, onChange func(context.Context), logger logging.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{dirs: dirs, debounce: debounce, onChange: onChange, logger: logging.OrDefault(logger)}
}

// Run watches until ctx is done. It returns an error only if the watch
// cannot be set up.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating file watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	watched := 0
	for _, dir := range w.dirs {
		for _, d := range []string{dir, filepath.Join(dir, "users")} {
			if !fileutils.DirectoryExists(d) {
				continue
			}
			if err := fw.Add(d); err != nil {
				return fmt.Errorf("error watching %s: %w", d, err)
			}
			watched++
			w.logger.Info("Watching directory", logging.Field{Key: logging.FieldFile, Value: d})
		}
	}
	if watched == 0 {
		return fmt.Errorf("no existing directory to watch among %s", strings.Join(w.dirs, ", "))
	}

	// Armed by the first relevant event.
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			w.logger.Debug("Change detected",
				logging.Field{Key: logging.FieldFile, Value: ev.Name},
				logging.Field{Key: logging.FieldOperation, Value: ev.Op.String()})
			timer.Reset(w.debounce)
		case <-timer.C:
			w.onChange(ctx)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("File watch error")
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return watchedExtensions[strings.ToLower(filepath.Ext(base))]
}
