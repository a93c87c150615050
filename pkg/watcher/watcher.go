package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/olimci/bijou/pkg/utils/set"
)

// DefaultIgnore matches editor swap files and the temporaries of atomic
// writes by base name.
var DefaultIgnore = []string{".*", "*~", "*.swp", "*.swx", "*.tmp", "4913"}

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".cache":       true,
}

type Config struct {
	Paths    []string
	Debounce time.Duration
	// Ignore holds doublestar patterns matched against base names.
	Ignore []string
	// Skip lists directories never watched, typically build outputs.
	Skip []string
}

// Event is a debounced batch of changed paths.
type Event struct {
	Reason string
	Paths  []string
}

type Watcher struct {
	Events chan Event
	Errors chan error

	watcher  *fsnotify.Watcher
	debounce time.Duration
	paths    []string
	ignore   []string
	skip     []string

	mu      sync.Mutex
	watched *set.Set[string]
}

func New(cfg Config) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	ignore := cfg.Ignore
	if ignore == nil {
		ignore = DefaultIgnore
	}

	skip := make([]string, 0, len(cfg.Skip))
	for _, p := range cfg.Skip {
		skip = append(skip, filepath.Clean(p))
	}

	return &Watcher{
		Events:   make(chan Event, 64),
		Errors:   make(chan error, 64),
		watcher:  w,
		debounce: cfg.Debounce,
		paths:    cfg.Paths,
		ignore:   ignore,
		skip:     skip,
		watched:  set.New[string](),
	}, nil
}

// Start watches every configured path, recursing into directories, and
// begins delivering events. Paths that cannot be watched are reported on
// Errors and skipped.
func (w *Watcher) Start(ctx context.Context) error {
	for _, p := range w.paths {
		if err := w.addPath(p); err != nil {
			_ = trySend(w.Errors, fmt.Errorf("not watching %s: %w", p, err))
		}
	}

	go w.loop(ctx)

	return nil
}

// Watched lists the watched files and directories.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return set.Sorted(w.watched)
}

func (w *Watcher) loop(ctx context.Context) {
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
		pending = set.New[string]()
	)

	resetTimer := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			timerCh = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.debounce)
	}

	flush := func() {
		if pending.Len() == 0 {
			return
		}
		paths := pending.Values()
		sort.Strings(paths)

		// a busy consumer keeps the batch pending and retries after another
		// quiet period
		if trySend(w.Events, Event{
			Reason: fmt.Sprintf("file change (%s quiet)", w.debounce),
			Paths:  paths,
		}) {
			pending.Clear()
			return
		}
		resetTimer()
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Chmod == fsnotify.Chmod || w.Ignored(ev.Name) {
				continue
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				w.addDirectoryIfNeeded(ev.Name)
			}
			pending.Add(filepath.Clean(ev.Name))
			resetTimer()

		case <-timerCh:
			timer = nil
			timerCh = nil
			flush()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			_ = trySend(w.Errors, fmt.Errorf("watch error: %w", err))
		}
	}
}

func (w *Watcher) Close() error {
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}

// Ignored reports whether changes to name are dropped.
func (w *Watcher) Ignored(name string) bool {
	base := filepath.Base(name)
	for _, pattern := range w.ignore {
		if doublestar.MatchUnvalidated(pattern, base) {
			return true
		}
	}
	return w.skipped(name)
}

func (w *Watcher) skipped(name string) bool {
	name = filepath.Clean(name)
	for _, dir := range w.skip {
		rel, err := filepath.Rel(dir, name)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addPath(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.addWatch(root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (skipDirs[d.Name()] || w.skipped(path)) {
			return filepath.SkipDir
		}
		return w.addWatch(path)
	})
}

func (w *Watcher) addWatch(path string) error {
	normalized := filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watched.Has(normalized) {
		return nil
	}
	if err := w.watcher.Add(normalized); err != nil {
		return err
	}
	w.watched.Add(normalized)
	return nil
}

func (w *Watcher) addDirectoryIfNeeded(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addPath(path); err != nil {
		_ = trySend(w.Errors, fmt.Errorf("failed to watch new directory: %w", err))
	}
}
