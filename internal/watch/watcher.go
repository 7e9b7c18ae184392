// Package watch invalidates cached class paths and member sets when PHP
// files under the Magento root change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/magentointel/internal/debug"
)

// DefaultInclude matches the files whose changes are reported
const DefaultInclude = "**/*.php"

// DefaultExclude lists directory names that are never watched. They hold
// generated or uploaded content rather than class files.
var DefaultExclude = []string{".git", "var", "media", "node_modules", ".magentointel-cache"}

// EventType is the kind of change reported for a file
type EventType int

const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventWrite:
		return "write"
	case EventRemove:
		return "remove"
	default:
		return "rename"
	}
}

// Handler receives debounced file changes
type Handler func(path string, event EventType)

// Options configures a FileWatcher
type Options struct {
	Debounce time.Duration
	Include  []string // doublestar patterns matched against the slash path; defaults to DefaultInclude
	Exclude  []string // directory base names; defaults to DefaultExclude
}

// FileWatcher reports changes to matching files below one or more roots
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *eventDebouncer
	include   []string
	exclude   map[string]bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	stopOnce  sync.Once

	eventsProcessed int64
	errorCount      int64
	lastEventTime   time.Time
	statsMu         sync.RWMutex
}

// New creates a watcher calling handler for every debounced change
func New(opts Options, handler Handler) (*FileWatcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("watcher requires a handler")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	include := opts.Include
	if len(include) == 0 {
		include = []string{DefaultInclude}
	}
	excludeNames := opts.Exclude
	if excludeNames == nil {
		excludeNames = DefaultExclude
	}
	exclude := make(map[string]bool, len(excludeNames))
	for _, name := range excludeNames {
		exclude[name] = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	fw := &FileWatcher{
		watcher: watcher,
		include: include,
		exclude: exclude,
		ctx:     ctx,
		cancel:  cancel,
	}
	fw.debouncer = newEventDebouncer(opts.Debounce, func(path string, event EventType) {
		handler(path, event)
		fw.incrementStats(1, 0)
	})
	return fw, nil
}

// Start adds watches below every root and begins delivering events
func (fw *FileWatcher) Start(roots ...string) error {
	for _, root := range roots {
		debug.Log(debug.ComponentWatch, "watching %s\n", root)
		if err := fw.addWatches(root); err != nil {
			return fmt.Errorf("failed to add watches starting from %s: %w", root, err)
		}
	}

	fw.wg.Add(1)
	go fw.processEvents()
	return nil
}

// Stop ends watching. Pending debounced events are dropped.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		fw.cancel()
		fw.debouncer.stop()
		err = fw.watcher.Close()
		fw.wg.Wait()
		debug.Log(debug.ComponentWatch, "watcher stopped\n")
	})
	return err
}

// addWatches recursively adds watches to every directory below root
func (fw *FileWatcher) addWatches(root string) error {
	if _, err := os.Stat(root); err != nil {
		return err
	}
	visited := make(map[string]bool)

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}

		// Symlink cycles
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visited[realPath] {
			return filepath.SkipDir
		}
		visited[realPath] = true

		if path != root && fw.exclude[info.Name()] {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			debug.Log(debug.ComponentWatch, "failed to watch %s: %v\n", path, err)
		}
		return nil
	})
}

func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.incrementStats(0, 1)
			debug.Warn(debug.ComponentWatch, err, "file watcher error")
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	info, err := os.Stat(path)
	if err != nil {
		// Gone: a removal or the source side of a rename
		if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && fw.matches(path) {
			fw.debouncer.addEvent(path, EventRemove)
		}
		return
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 && !fw.exclude[info.Name()] {
			if err := fw.addWatches(path); err != nil {
				debug.Log(debug.ComponentWatch, "failed to watch new directory %s: %v\n", path, err)
			}
		}
		return
	}

	if !fw.matches(path) {
		return
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = EventCreate
	case event.Op&fsnotify.Write != 0:
		eventType = EventWrite
	case event.Op&fsnotify.Remove != 0:
		eventType = EventRemove
	case event.Op&fsnotify.Rename != 0:
		eventType = EventRename
	default:
		return
	}
	fw.debouncer.addEvent(path, eventType)
}

func (fw *FileWatcher) matches(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, pattern := range fw.include {
		if matched, err := doublestar.Match(pattern, slashed); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}

func (fw *FileWatcher) incrementStats(events, errors int64) {
	fw.statsMu.Lock()
	defer fw.statsMu.Unlock()
	fw.eventsProcessed += events
	fw.errorCount += errors
	fw.lastEventTime = time.Now()
}

// Stats contains counters about delivered events
type Stats struct {
	EventsProcessed int64     `json:"events_processed"`
	ErrorCount      int64     `json:"error_count"`
	LastEventTime   time.Time `json:"last_event_time"`
	IsActive        bool      `json:"is_active"`
}

// GetStats returns the current counters
func (fw *FileWatcher) GetStats() Stats {
	fw.statsMu.RLock()
	defer fw.statsMu.RUnlock()
	return Stats{
		EventsProcessed: fw.eventsProcessed,
		ErrorCount:      fw.errorCount,
		LastEventTime:   fw.lastEventTime,
		IsActive:        fw.ctx.Err() == nil,
	}
}
