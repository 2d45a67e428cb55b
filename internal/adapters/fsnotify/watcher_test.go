package fsnotify

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitForCallback waits up to timeout for the callback channel to receive a value.
func waitForCallback(ch <-chan string, timeout time.Duration) (string, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-time.After(timeout):
		return "", false
	}
}

// startWatcher watches dir and returns the channel fed by onChange.
func startWatcher(t *testing.T, dir string, opts ...Option) (*Watcher, <-chan string) {
	t.Helper()
	w, err := NewWatcher(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	changed := make(chan string, 16)
	require.NoError(t, w.Watch(dir, func(path string) {
		changed <- path
	}))
	// Give watcher time to start
	time.Sleep(50 * time.Millisecond)
	return w, changed
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "demo.txt")
	require.NoError(t, os.WriteFile(corpus, []byte("the fox"), 0644))

	_, changed := startWatcher(t, dir, WithExt(".txt"))
	require.NoError(t, os.WriteFile(corpus, []byte("the dog"), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for corpus change")
	assert.Equal(t, corpus, path)
}

func TestWatcher_DetectsNewFile(t *testing.T) {
	dir := t.TempDir()
	_, changed := startWatcher(t, dir, WithExt(".txt"))

	corpus := filepath.Join(dir, "fresh.txt")
	require.NoError(t, os.WriteFile(corpus, []byte("new"), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for new corpus")
	assert.Equal(t, corpus, path)
}

func TestWatcher_DetectsDeletedFile(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "gone.txt")
	require.NoError(t, os.WriteFile(corpus, []byte("bye"), 0644))

	_, changed := startWatcher(t, dir, WithExt(".txt"))
	require.NoError(t, os.Remove(corpus))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for deleted corpus")
	assert.Equal(t, corpus, path)
}

func TestWatcher_IgnoresNonCorpusFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0755))

	_, changed := startWatcher(t, dir, WithExt(".txt"))

	os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "demo.txt.swp"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "demo.txt~"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(sub, "deep.txt"), []byte("x"), 0644)

	_, ok := waitForCallback(changed, 500*time.Millisecond)
	assert.False(t, ok, "should not have received callback for ignored files")

	corpus := filepath.Join(dir, "real.txt")
	require.NoError(t, os.WriteFile(corpus, []byte("x"), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for corpus file")
	assert.Equal(t, corpus, path)
}

func TestWatcher_NoExtAcceptsAll(t *testing.T) {
	dir := t.TempDir()
	_, changed := startWatcher(t, dir)

	f := filepath.Join(dir, "poem.corpus")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok)
	assert.Equal(t, f, path)
}

func TestWatcher_StopCleanup(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher()
	require.NoError(t, err)

	callCount := 0
	var mu sync.Mutex
	require.NoError(t, w.Watch(dir, func(path string) {
		mu.Lock()
		callCount++
		mu.Unlock()
	}))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, w.Stop())

	mu.Lock()
	countAfterStop := callCount
	mu.Unlock()

	os.WriteFile(filepath.Join(dir, "after_stop.txt"), []byte("nope"), 0644)
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	countAfterWrite := callCount
	mu.Unlock()

	assert.Equal(t, countAfterStop, countAfterWrite, "callbacks fired after Stop()")
	assert.NoError(t, w.Stop(), "double stop is safe")
}

func TestShouldIgnore(t *testing.T) {
	w := &Watcher{ext: ".txt"}
	assert.False(t, w.shouldIgnore("/c/demo.txt"))
	assert.True(t, w.shouldIgnore("/c/demo.md"))
	assert.True(t, w.shouldIgnore("/c/.demo.txt"))
	assert.True(t, w.shouldIgnore("/c/demo.txt.swp"))
	assert.True(t, w.shouldIgnore("/c/demo.tmp"))
}

func TestDebouncer_DropsRepeatsWithinInterval(t *testing.T) {
	d := newDebouncer(50 * time.Millisecond)
	now := time.Now()

	assert.True(t, d.allow("/c/a.txt", now))
	assert.False(t, d.allow("/c/a.txt", now.Add(10*time.Millisecond)))
	assert.True(t, d.allow("/c/b.txt", now.Add(10*time.Millisecond)), "paths are independent")
	assert.True(t, d.allow("/c/a.txt", now.Add(60*time.Millisecond)))
}

func TestDebouncer_ForgetsOldPaths(t *testing.T) {
	d := newDebouncer(50 * time.Millisecond)
	now := time.Now()

	for i := 0; i < 1000; i++ {
		now = now.Add(time.Second)
		require.True(t, d.allow(filepath.Join("/c", strconv.Itoa(i)+".txt"), now))
	}
	assert.Len(t, d.last, 1, "only the latest path is still inside the interval")
}
