// Package watch re-runs conversions when control sheets change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/fsnotify.v1"

	"github.com/coolbeans/ctlcat/pkg/logging"
)

// DefaultDebounce coalesces the burst of writes a spreadsheet export makes.
const DefaultDebounce = 500 * time.Millisecond

// Config selects what is watched.
type Config struct {
	// Dirs are the directories to watch (not recursive).
	Dirs []string
	// Patterns are doublestar globs; a pattern without a slash is matched
	// against the file's base name. Empty means every file.
	Patterns []string
	// Debounce is the quiet period after the last event before onChange runs.
	Debounce time.Duration
	Logger   logging.Logger
}

// Watcher calls a function for each changed file matching its patterns.
type Watcher struct {
	cfg      Config
	onChange func(path string)
	log      logging.Logger

	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	done     chan struct{}

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New validates cfg and creates a Watcher. onChange is called from a timer
// goroutine, at most once per debounce window per file.
func New(cfg Config, onChange func(path string)) (*Watcher, error) {
	if len(cfg.Dirs) == 0 {
		return nil, fmt.Errorf("no directories configured for watching")
	}
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback is required")
	}
	for _, pattern := range cfg.Patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid watch pattern %q", pattern)
		}
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Watcher{
		cfg:      cfg,
		onChange: onChange,
		log:      log,
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Matches reports whether path is selected by the watch patterns.
func (w *Watcher) Matches(path string) bool {
	if len(w.cfg.Patterns) == 0 {
		return true
	}
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, pattern := range w.cfg.Patterns {
		target := slashed
		if !strings.Contains(pattern, "/") {
			target = base
		}
		if ok, _ := doublestar.Match(pattern, target); ok {
			return true
		}
	}
	return false
}

// Start begins watching. Call Stop to release the watcher.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	for _, dir := range w.cfg.Dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}

	w.watcher = watcher
	w.stopChan = make(chan struct{})
	w.done = make(chan struct{})
	go w.watchLoop()

	return nil
}

// Run starts the watcher and blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	w.Stop()
	return nil
}

// Stop ends watching and cancels pending callbacks.
func (w *Watcher) Stop() {
	if w.stopChan == nil {
		return
	}
	close(w.stopChan)
	w.watcher.Close()
	<-w.done
	w.stopChan = nil

	w.mu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.Matches(event.Name) {
				continue
			}
			switch {
			case event.Op&fsnotify.Create == fsnotify.Create,
				event.Op&fsnotify.Write == fsnotify.Write,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				w.schedule(event.Name)
			case event.Op&fsnotify.Remove == fsnotify.Remove:
				w.log.Debug("watched file removed", "path", event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

// schedule (re)arms the debounce timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.cfg.Debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		w.log.Debug("watched file changed", "path", path)
		w.onChange(path)
	})
}
