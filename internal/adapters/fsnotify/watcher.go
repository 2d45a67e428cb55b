// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It watches a flat corpus directory, filters out everything that is not a
// corpus file (wrong extension, hidden files, editor swap files), and
// debounces rapid events (editors often trigger multiple writes per save).
package fsnotify

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Editor and OS droppings that never count as corpus changes.
var ignoreSuffixes = []string{
	".swp",
	".swx",
	".tmp",
	".part",
	"~",
}

const debounceInterval = 50 * time.Millisecond

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw      *fsnotify.Watcher
	ext     string
	logger  *slog.Logger
	done    chan struct{}
	stopped bool
	mu      sync.Mutex
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithExt restricts callbacks to files with the given extension. An empty
// extension accepts every non-ignored file.
func WithExt(ext string) Option {
	return func(w *Watcher) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		w.ext = ext
	}
}

// WithLogger sets the logger used for watcher errors.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher creates a new file system watcher.
func NewWatcher(opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fw:     fw,
		logger: slog.Default().With("component", "watcher"),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch starts monitoring dir (not recursively: corpora live directly in
// it). onChange is called with the absolute path of each changed file.
func (w *Watcher) Watch(dir string, onChange func(filePath string)) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := w.fw.Add(absPath); err != nil {
		return err
	}

	debounce := newDebouncer(debounceInterval)

	go func() {
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				path := event.Name
				if filepath.Dir(path) != absPath || w.shouldIgnore(path) {
					continue
				}
				if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
					continue
				}

				if !debounce.allow(path, time.Now()) {
					continue
				}

				select {
				case <-w.done:
					return
				default:
				}
				onChange(path)

			case err, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				// fsnotify recovers on its own; the worst case is a stale
				// entry until the next stat notices the new mtime.
				w.logger.Warn("watch error", "dir", absPath, "err", err)

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	return w.fw.Close()
}

// debouncer drops repeat events for a path inside interval. Entries older
// than interval are pruned on every call, so it only remembers paths seen
// within the last interval.
type debouncer struct {
	interval time.Duration
	last     map[string]time.Time
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval, last: make(map[string]time.Time)}
}

// allow reports whether an event for path at now should be delivered.
func (d *debouncer) allow(path string, now time.Time) bool {
	for p, t := range d.last {
		if now.Sub(t) >= d.interval {
			delete(d.last, p)
		}
	}
	if _, seen := d.last[path]; seen {
		return false
	}
	d.last[path] = now
	return true
}

// shouldIgnore returns true if the file path should not trigger onChange.
func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	for _, suffix := range ignoreSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return w.ext != "" && filepath.Ext(base) != w.ext
}
