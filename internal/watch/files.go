package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/dashwire/pulse/internal/hub"
	"github.com/dashwire/pulse/pkg/errors"
)

// FilesConfig configures the file watcher.
type FilesConfig struct {
	// Roots are the directories watched recursively. At least one is required.
	Roots []string

	// Debounce is the quiet period before a batch of changes is published.
	// Defaults to 300ms.
	Debounce time.Duration

	// ProjectID tags published events.
	ProjectID string
}

// FileChangeBatch is the payload of a file-change event. Paths are sorted
// and deduplicated across the debounce window.
type FileChangeBatch struct {
	Paths []string `json:"paths"`
	Count int      `json:"count"`
}

// FileWatcher publishes debounced file-change events for a set of
// directory trees. Rapid bursts of filesystem activity collapse into a
// single event per quiet period.
type FileWatcher struct {
	pub    hub.Publisher
	cfg    FilesConfig
	logger *zerolog.Logger
}

// NewFileWatcher creates a file watcher publishing through pub.
func NewFileWatcher(pub hub.Publisher, cfg FilesConfig, logger *zerolog.Logger) *FileWatcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 300 * time.Millisecond
	}
	return &FileWatcher{pub: pub, cfg: cfg, logger: logger}
}

// Name implements Producer.
func (w *FileWatcher) Name() string { return "files" }

// Run watches the configured roots until ctx is done.
func (w *FileWatcher) Run(ctx context.Context) error {
	if len(w.cfg.Roots) == 0 {
		return errors.NewValidationError("roots", "", "at least one watch root is required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.NewIOError("watch", "", err)
	}
	defer watcher.Close()

	for _, root := range w.cfg.Roots {
		if err := w.addRecursive(watcher, root); err != nil {
			return errors.NewIOError("watch", root, err)
		}
	}
	w.logger.Info().Strs("roots", w.cfg.Roots).Msg("Watching for file changes")

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.cfg.Debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod || w.ignored(ev.Name) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if err := w.addRecursive(watcher, ev.Name); err != nil {
						w.logger.Warn().Err(err).Str("path", ev.Name).Msg("Failed to watch new directory")
					}
					continue
				}
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(w.cfg.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("File watcher error")

		case <-timer.C:
			w.flush(pending)
			pending = make(map[string]struct{})
		}
	}
}

// addRecursive watches root and every non-hidden subdirectory under it.
func (w *FileWatcher) addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// ignored reports whether a path is hidden noise, such as dotfiles.
func (w *FileWatcher) ignored(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// flush publishes the accumulated changes as one file-change event.
func (w *FileWatcher) flush(pending map[string]struct{}) {
	if len(pending) == 0 {
		return
	}
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	w.pub.Publish(hub.Event{
		Type:      hub.FileChange,
		Payload:   FileChangeBatch{Paths: paths, Count: len(paths)},
		Source:    w.Name(),
		ProjectID: w.cfg.ProjectID,
	})
	w.logger.Debug().Int("files", len(paths)).Msg("File changes published")
}
