// Package watch reports changes to daily usage logs in a directory.
package watch

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/blockrun-report/internal/loader"
	"github.com/j-veylop/blockrun-report/internal/logger"
)

// DefaultDebounce is used when no positive debounce interval is given.
const DefaultDebounce = 500 * time.Millisecond

// EventType defines the type of watch event.
type EventType int

const (
	// EventChanged means one or more usage files changed.
	EventChanged EventType = iota
	// EventError carries a watcher error.
	EventError
)

// Event represents a watch event.
type Event struct {
	Type  EventType
	Paths []string
	Error error
}

// Watcher watches a log directory and calls back once per burst of changes
// to usage-*.jsonl files.
type Watcher struct {
	mu            sync.Mutex
	dir           string
	debounce      time.Duration
	onChange      func(paths []string)
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	pending       map[string]struct{}
	closeOnce     sync.Once
}

// New starts watching dir. onChange may be nil when the caller only reads
// Events.
func New(dir string, debounce time.Duration, onChange func(paths []string)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		if closeErr := fw.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		dir:       dir,
		debounce:  debounce,
		onChange:  onChange,
		watcher:   fw,
		eventChan: make(chan Event, 16),
		stopChan:  make(chan struct{}),
		pending:   make(map[string]struct{}),
	}

	go w.watchLoop()
	logger.Info("watching log directory", "dir", dir, "debounce", debounce)
	return w, nil
}

// Events returns the event channel.
func (w *Watcher) Events() <-chan Event {
	return w.eventChan
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// watchLoop handles file system events with debouncing.
func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !loader.IsUsageFile(event.Name) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.schedule(event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", "dir", w.dir, "error", err)
			w.sendEvent(Event{Type: EventError, Error: err})

		case <-w.stopChan:
			return
		}
	}
}

// schedule records path and restarts the debounce timer.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[filepath.Clean(path)] = struct{}{}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounce, w.flush)
}

// flush delivers the paths collected since the last flush.
func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	onChange := w.onChange
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	logger.Debug("usage files changed", "count", len(paths))
	w.sendEvent(Event{Type: EventChanged, Paths: paths})
	if onChange != nil {
		onChange(paths)
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (w *Watcher) sendEvent(event Event) {
	select {
	case w.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-w.eventChan:
		default:
		}
		select {
		case w.eventChan <- event:
		default:
		}
	}
}

// Close stops the watcher. Pending changes are discarded.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.stopChan)

		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()

		err = w.watcher.Close()
	})
	return err
}
