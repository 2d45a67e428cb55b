// Package corpus owns the in-memory corpus cache: identifier validation,
// change detection against the backing store, atomic reloads and access
// bookkeeping. It performs no logging; load outcomes are reported through an
// optional LoadObserver and errors are returned typed.
package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"
	"time"

	"github.com/corey/kwic/internal/ports"
)

// LoadEvent describes one attempt to (re)load a corpus from the store.
type LoadEvent struct {
	ID       string
	Reload   bool // a previous record existed
	Lines    int
	Bytes    int64
	Duration time.Duration
	Err      error
}

// LoadObserver is called after every load attempt, successful or not.
// Used by the app layer to log cache activity.
type LoadObserver func(LoadEvent)

// Stats is the observable metadata of one cached corpus: everything but
// the lines themselves.
type Stats struct {
	ID           string        `json:"id"`
	ModTime      time.Time     `json:"modification_time"`
	SizeBytes    int64         `json:"size_bytes"`
	LineCount    int           `json:"line_count"`
	TokenCount   int           `json:"token_count"`
	Vocabulary   int           `json:"vocabulary"`
	LoadDuration time.Duration `json:"load_duration"`
	LoadedAt     time.Time     `json:"loaded_at"`
	Loads        int           `json:"loads"`
	AccessCount  uint64        `json:"access_count"`
	LastAccessed time.Time     `json:"last_accessed"`
}

// entry holds one identifier's record plus its access counters.
// loadMu serializes the check-and-load step per identifier; mu guards the
// fields below it so Status never waits behind a slow read.
type entry struct {
	loadMu sync.Mutex

	mu           sync.RWMutex
	rec          *Record
	loadedAt     time.Time // first successful load
	loads        int
	accessCount  uint64
	lastAccessed time.Time
}

// Cache maps corpus identifiers to loaded records. Thread-safe: the map is
// guarded by an RWMutex, each entry by its own locks, so requests for
// different corpora never wait on each other's loads.
type Cache struct {
	store    ports.CorpusStore
	clock    ports.Clock
	observer LoadObserver

	mu      sync.RWMutex
	entries map[string]*entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock sets the time source for access timestamps and load durations.
// Default is ports.SystemClock.
func WithClock(clock ports.Clock) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLoadObserver registers a callback invoked after every load attempt.
func WithLoadObserver(obs LoadObserver) Option {
	return func(c *Cache) {
		c.observer = obs
	}
}

// NewCache creates an empty cache over store.
func NewCache(store ports.CorpusStore, opts ...Option) *Cache {
	c := &Cache{
		store:   store,
		clock:   ports.SystemClock{},
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the current lines of corpus id, loading or reloading it when
// the store reports a strictly newer modification time than the cached one.
// Every call counts as an access.
func (c *Cache) Get(id string) ([]string, error) {
	rec, err := c.Snapshot(id)
	if err != nil {
		return nil, err
	}
	return rec.Lines, nil
}

// Snapshot is Get returning the whole immutable record, including the
// pre-tokenized lines and line index used by the search path.
func (c *Cache) Snapshot(id string) (*Record, error) {
	e, rec, err := c.refresh(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.accessCount++
	e.lastAccessed = c.clock.Now()
	e.mu.Unlock()
	return rec, nil
}

// Refresh re-checks a cached corpus against the store and reloads it when
// its modification time moved forward. A failed reload keeps the previous
// record and comes back as a *LoadError; a corpus whose file is gone is
// evicted and reported as ErrNotFound. Identifiers that hold nothing are
// left alone. Refresh is not an access.
func (c *Cache) Refresh(id string) error {
	c.mu.RLock()
	_, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	_, _, err := c.refresh(id)
	return err
}

// refresh validates id, checks the store's modification time and reloads
// when needed. It does not touch access counters.
func (c *Cache) refresh(id string) (*entry, *Record, error) {
	if err := ValidateIdentifier(id); err != nil {
		return nil, nil, err
	}

	e := c.entry(id)
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	e.mu.RLock()
	current := e.rec
	e.mu.RUnlock()

	modTime, err := c.store.ModTime(id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Backing corpus is gone: never serve what we can no longer observe.
			c.evict(id, e)
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		c.dropIfEmpty(id, e)
		return nil, nil, &LoadError{ID: id, Err: err}
	}

	if current != nil && !modTime.After(current.ModTime) {
		return e, current, nil
	}

	rec, err := c.load(id, modTime, current != nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.evict(id, e)
		} else {
			c.dropIfEmpty(id, e)
		}
		return nil, nil, err
	}

	e.mu.Lock()
	e.rec = rec
	if e.loadedAt.IsZero() {
		e.loadedAt = rec.loadStart
	}
	e.loads++
	e.mu.Unlock()
	return e, rec, nil
}

// load reads and decodes one corpus. It has no side effects on the cache.
func (c *Cache) load(id string, modTime time.Time, reload bool) (*Record, error) {
	start := c.clock.Now()
	rec, err := c.readRecord(id, modTime)
	dur := c.clock.Now().Sub(start)

	ev := LoadEvent{ID: id, Reload: reload, Duration: dur, Err: err}
	if rec != nil {
		rec.LoadDuration = dur
		rec.loadStart = start
		ev.Lines = rec.LineCount()
		ev.Bytes = rec.SizeBytes
	}
	if c.observer != nil {
		c.observer(ev)
	}
	return rec, err
}

func (c *Cache) readRecord(id string, modTime time.Time) (*Record, error) {
	data, err := c.store.ReadAll(id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, &LoadError{ID: id, Err: err}
	}
	rec, err := buildRecord(id, data, modTime)
	if err != nil {
		return nil, &LoadError{ID: id, Err: err}
	}
	return rec, nil
}

// entry returns the entry for id, creating it if needed.
func (c *Cache) entry(id string) *entry {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		return e
	}
	e = &entry{}
	c.entries[id] = e
	return e
}

// evict removes e from the map if it is still the entry for id.
func (c *Cache) evict(id string, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[id] == e {
		delete(c.entries, id)
	}
}

// dropIfEmpty evicts an entry that never loaded successfully, so failed
// lookups don't accumulate. Entries with a record keep serving it.
func (c *Cache) dropIfEmpty(id string, e *entry) {
	e.mu.RLock()
	empty := e.rec == nil
	e.mu.RUnlock()
	if empty {
		c.evict(id, e)
	}
}

// Status returns the metadata of every loaded corpus keyed by identifier.
func (c *Cache) Status() map[string]Stats {
	c.mu.RLock()
	snapshot := make(map[string]*entry, len(c.entries))
	for id, e := range c.entries {
		snapshot[id] = e
	}
	c.mu.RUnlock()

	out := make(map[string]Stats, len(snapshot))
	for id, e := range snapshot {
		e.mu.RLock()
		if e.rec != nil {
			out[id] = Stats{
				ID:           id,
				ModTime:      e.rec.ModTime,
				SizeBytes:    e.rec.SizeBytes,
				LineCount:    e.rec.LineCount(),
				TokenCount:   e.rec.TokenCount(),
				Vocabulary:   e.rec.Vocabulary(),
				LoadDuration: e.rec.LoadDuration,
				LoadedAt:     e.loadedAt,
				Loads:        e.loads,
				AccessCount:  e.accessCount,
				LastAccessed: e.lastAccessed,
			}
		}
		e.mu.RUnlock()
	}
	return out
}

// Clear evicts the given identifiers, or every entry when called with none.
// The next Get of an evicted corpus reloads it from the store.
func (c *Cache) Clear(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(ids) == 0 {
		c.entries = make(map[string]*entry)
		return
	}
	for _, id := range ids {
		delete(c.entries, id)
	}
}

// Cached returns the identifiers currently holding a record, sorted.
func (c *Cache) Cached() []string {
	st := c.Status()
	ids := make([]string, 0, len(st))
	for id := range st {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns the identifiers available in the backing store that pass
// identifier validation, sorted. Nothing is loaded.
func (c *Cache) List() ([]string, error) {
	all, err := c.store.List()
	if err != nil {
		return nil, fmt.Errorf("list corpora: %w", err)
	}
	ids := make([]string, 0, len(all))
	for _, id := range all {
		if ValidateIdentifier(id) == nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
