// Package watch reports edits to slide files so the presenter can reload
// them while the deck is open.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/dloss/deckview/internal/deck"
)

// DefaultIgnore skips hidden files and common editor leftovers.
var DefaultIgnore = []string{".*", "*~", "#*#", "*.swp"}

// Editors often write a file in several steps; events for the same slide
// closer together than this are coalesced.
const settle = 100 * time.Millisecond

// SlideChanged reports that the file for slide Index was written.
type SlideChanged struct {
	Index int
	Path  string
}

// Watcher watches a deck directory for slide file writes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	ignore   []string
	onChange func(SlideChanged)
	logger   *log.Logger
	done     chan struct{}

	mu      sync.Mutex
	pending map[int]*time.Timer
}

// New watches dir. Extra ignore patterns are doublestar globs matched
// against the file name relative to dir.
func New(dir string, ignore []string, onChange func(SlideChanged), logger *log.Logger) (*Watcher, error) {
	for _, p := range ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	return &Watcher{
		watcher:  fsWatcher,
		dir:      dir,
		ignore:   append(append([]string(nil), DefaultIgnore...), ignore...),
		onChange: onChange,
		logger:   logger.WithPrefix("watch"),
		done:     make(chan struct{}),
		pending:  make(map[int]*time.Timer),
	}, nil
}

// Match reports the slide index for an event path, or false when the file
// is not a slide or is ignored.
func (w *Watcher) Match(path string) (int, bool) {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)
	for _, p := range w.ignore {
		if ok, _ := doublestar.Match(p, rel); ok {
			return 0, false
		}
	}
	return deck.ParseSlideName(rel)
}

// Start begins watching for file changes.
func (w *Watcher) Start() {
	go func() {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				idx, ok := w.Match(event.Name)
				if !ok {
					continue
				}
				w.logger.Debug("slide file changed", "slide", idx, "file", event.Name)
				w.schedule(SlideChanged{Index: idx, Path: event.Name})

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Error("watch error", "err", err)

			case <-w.done:
				return
			}
		}
	}()
}

func (w *Watcher) schedule(ev SlideChanged) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[ev.Index]; ok {
		t.Stop()
	}
	// A timer that fired while a newer one replaced it, or after Stop, finds
	// itself gone from pending and does nothing.
	var t *time.Timer
	t = time.AfterFunc(settle, func() {
		w.mu.Lock()
		current := w.pending[ev.Index] == t
		if current {
			delete(w.pending, ev.Index)
		}
		w.mu.Unlock()
		if current {
			w.onChange(ev)
		}
	})
	w.pending[ev.Index] = t
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	w.mu.Lock()
	for idx, t := range w.pending {
		t.Stop()
		delete(w.pending, idx)
	}
	w.mu.Unlock()
	return w.watcher.Close()
}
