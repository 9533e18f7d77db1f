package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"assetpipe/src/common"
	"assetpipe/src/converter"
)

// Processor converts single files and refreshes references
type Processor interface {
	ShouldConvert(name string) bool
	ConvertFile(path string) bool
	UpdateReferences() (converter.ReferenceSummary, error)
}

// Watcher monitors the image root and converts PNG files as they appear
type Watcher struct {
	proc    Processor
	root    string
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	events  chan Event
	done    chan struct{}

	// Debounce is the quiet period before a changed file is converted
	Debounce time.Duration

	// mu guards debounce, started and stopped, and serializes conversions
	mu       sync.Mutex
	debounce map[string]*time.Timer
	started  bool
	stopped  bool
}

// Event reports the outcome of converting a changed file
type Event struct {
	Type     EventType
	FilePath string
}

// EventType represents the outcome of a conversion
type EventType int

const (
	EventConverted EventType = iota
	EventFailed
)

func (t EventType) String() string {
	if t == EventConverted {
		return "converted"
	}
	return "failed"
}

// NewWatcher creates a watcher for the image root
func NewWatcher(proc Processor, root string, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		proc:     proc,
		root:     root,
		logger:   logger.With("component", "watcher"),
		watcher:  fsWatcher,
		events:   make(chan Event, 100),
		done:     make(chan struct{}),
		Debounce: 500 * time.Millisecond,
		debounce: make(map[string]*time.Timer),
	}, nil
}

// Start begins monitoring the image root and all of its subdirectories
func (w *Watcher) Start() error {
	if err := w.addTree(w.root); err != nil {
		return err
	}

	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go w.processEvents()

	return nil
}

// Run starts the watcher and blocks until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return w.Stop()
}

func (w *Watcher) addTree(root string) error {
	return common.WalkDirs(root, w.logger, func(dir string) error {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch folder %s: %w", dir, err)
		}
		w.logger.Debug("watching folder", "path", dir)
		return nil
	})
}

// processEvents turns fsnotify events into debounced conversions
func (w *Watcher) processEvents() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.handleNewDir(event.Name)
					continue
				}
			}

			w.schedule(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// handleNewDir watches a directory created after start-up and picks up any
// PNG files that were already inside it
func (w *Watcher) handleNewDir(dir string) {
	if err := w.addTree(dir); err != nil {
		w.logger.Warn("failed to watch new folder", "path", dir, "error", err)
		return
	}

	files, err := common.FindFiles(dir, nil, w.logger, w.proc.ShouldConvert)
	if err != nil {
		w.logger.Warn("failed to scan new folder", "path", dir, "error", err)
		return
	}
	for _, path := range files {
		w.schedule(path)
	}
}

func (w *Watcher) schedule(path string) {
	name := filepath.Base(path)
	// Skip temp files
	if name == "" || name[0] == '.' || !w.proc.ShouldConvert(name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	if timer, exists := w.debounce[path]; exists {
		timer.Stop()
	}
	w.debounce[path] = time.AfterFunc(w.Debounce, func() {
		w.handleFile(path)
	})
}

// handleFile converts one file and refreshes references
func (w *Watcher) handleFile(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.debounce, path)
	if w.stopped {
		return
	}

	if _, err := os.Stat(path); err != nil {
		w.logger.Debug("file vanished before conversion", "path", path)
		return
	}

	eventType := EventFailed
	if w.proc.ConvertFile(path) {
		eventType = EventConverted
		if _, err := w.proc.UpdateReferences(); err != nil {
			w.logger.Warn("failed to update references", "error", err)
		}
	}

	select {
	case w.events <- Event{Type: eventType, FilePath: path}:
	default:
		w.logger.Debug("event dropped", "path", path, "type", eventType)
	}
}

// Events returns the event channel. It is closed by Stop.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop stops the watcher; pending conversions are discarded
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	started := w.started
	for path, timer := range w.debounce {
		timer.Stop()
		delete(w.debounce, path)
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	if started {
		<-w.done
	}
	close(w.events)
	return err
}
