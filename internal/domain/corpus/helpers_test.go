package corpus

import (
	"fmt"
	"io/fs"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory ports.CorpusStore that counts every call.
type memStore struct {
	mu      sync.Mutex
	content map[string][]byte
	mtime   map[string]time.Time
	failOn  map[string]error // ReadAll error per id

	reads map[string]int
	stats int
}

func newMemStore() *memStore {
	return &memStore{
		content: make(map[string][]byte),
		mtime:   make(map[string]time.Time),
		failOn:  make(map[string]error),
		reads:   make(map[string]int),
	}
}

func (s *memStore) put(id, content string, mtime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content[id] = []byte(content)
	s.mtime[id] = mtime
}

func (s *memStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.content, id)
	delete(s.mtime, id)
}

func (s *memStore) readCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[id]
}

func (s *memStore) touched() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.stats
	for _, r := range s.reads {
		n += r
	}
	return n
}

func (s *memStore) Exists(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.content[id]
	return ok, nil
}

func (s *memStore) ReadAll(id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads[id]++
	if err := s.failOn[id]; err != nil {
		return nil, err
	}
	data, ok := s.content[id]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", id, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (s *memStore) ModTime(id string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats++
	t, ok := s.mtime[id]
	if !ok {
		return time.Time{}, fmt.Errorf("stat %s: %w", id, fs.ErrNotExist)
	}
	return t, nil
}

func (s *memStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.content))
	for id := range s.content {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// fakeClock advances only when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var t0 = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
