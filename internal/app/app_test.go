package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/kwic/internal/adapters/bbolt"
	"github.com/corey/kwic/internal/adapters/socket"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) (Config, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.txt"),
		[]byte("The quick brown fox jumps over the lazy dog.\nA fox is a small animal.\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("no canines\n"), 0644))

	cfg := DefaultConfig(envMap(nil))
	cfg.CorpusDir = dir
	cfg.Addr = "127.0.0.1:0"
	cfg.Version = "test"
	cfg.Logger = quietLogger()
	return cfg, dir
}

func startApp(t *testing.T, cfg Config) *App {
	t.Helper()
	a, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() { a.Stop() })
	return a
}

func TestApp_ServesHTTPAndSocket(t *testing.T) {
	cfg, _ := testConfig(t)
	a := startApp(t, cfg)

	resp, err := http.Get(a.WebServer.URL() + "/api/search?corpus=demo&query=fox")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	var sr socket.SearchResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sr))
	assert.Equal(t, 2, sr.TotalHits)

	client := socket.NewClient(cfg.SocketPath())
	require.True(t, client.Ping())
	health, err := client.Health()
	require.NoError(t, err)
	assert.Equal(t, "test", health.Version)

	port, err := a.Paths.ReadPort()
	require.NoError(t, err)
	assert.Equal(t, a.WebServer.Port(), port)
}

func TestApp_WarmLoadsEveryCorpus(t *testing.T) {
	cfg, _ := testConfig(t)
	a := startApp(t, cfg)

	select {
	case <-a.Warmed():
	case <-time.After(5 * time.Second):
		t.Fatal("warm did not finish")
	}
	assert.Equal(t, []string{"demo", "other"}, a.Cache.Cached())
	for _, st := range a.Cache.Status() {
		assert.Zero(t, st.AccessCount, "warming is not an access")
	}
}

func TestApp_NoWarm(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.Warm = false
	a := startApp(t, cfg)

	<-a.Warmed()
	assert.Empty(t, a.Cache.Cached())
}

func TestApp_WatcherReloadsChangedCorpus(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.Warm = false
	a := startApp(t, cfg)
	require.NotNil(t, a.Watcher)

	_, err := a.Cache.Get("demo")
	require.NoError(t, err)
	require.Equal(t, []string{"demo"}, a.Cache.Cached())
	loadedAt := a.Cache.Status()["demo"].LoadedAt

	time.Sleep(50 * time.Millisecond)
	touchLater(t, filepath.Join(a.dir.Root(), "demo.txt"), []byte("replaced\n"), time.Hour)

	assert.Eventually(t, func() bool {
		return a.Cache.Status()["demo"].Loads == 2
	}, 2*time.Second, 20*time.Millisecond)

	st := a.Cache.Status()["demo"]
	assert.Equal(t, 1, st.LineCount)
	assert.Equal(t, loadedAt, st.LoadedAt)
	assert.Equal(t, uint64(1), st.AccessCount, "reload kept the counters")
}

func TestApp_WatcherKeepsRecordOnInvalidWrite(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.Warm = false
	a := startApp(t, cfg)

	_, err := a.Cache.Get("demo")
	require.NoError(t, err)

	demo := filepath.Join(a.dir.Root(), "demo.txt")
	time.Sleep(50 * time.Millisecond)
	touchLater(t, demo, []byte("bad \xff\xfe bytes\n"), time.Hour)
	time.Sleep(300 * time.Millisecond)

	st, ok := a.Cache.Status()["demo"]
	require.True(t, ok, "previous record keeps serving")
	assert.Equal(t, 2, st.LineCount)

	// A valid write afterwards is picked up.
	touchLater(t, demo, []byte("fixed\n"), 2*time.Hour)
	assert.Eventually(t, func() bool {
		return a.Cache.Status()["demo"].LineCount == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestApp_StopCleansUp(t *testing.T) {
	cfg, _ := testConfig(t)
	a, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, a.Stop())

	_, err = os.Stat(a.Paths.PIDFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(cfg.SocketPath())
	assert.True(t, os.IsNotExist(err))
}

func TestApp_SecondInstanceRefused(t *testing.T) {
	cfg, _ := testConfig(t)
	startApp(t, cfg)

	b, err := New(cfg)
	require.NoError(t, err)
	assert.ErrorContains(t, b.Start(context.Background()), "already running")
	if b.Watcher != nil {
		b.Watcher.Stop()
	}
	b.Backend.Close()
}

func TestNewBackend_Archive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpora.db")
	st, err := bbolt.NewStore(path)
	require.NoError(t, err)
	require.NoError(t, st.Put("poem", []byte("roses are red\n"), time.Now()))
	require.NoError(t, st.Close())

	cfg := DefaultConfig(envMap(nil))
	cfg.Archive = path
	b, err := NewBackend(cfg, nil)
	require.NoError(t, err)
	defer b.Close()

	ids, err := b.Service.Corpora()
	require.NoError(t, err)
	assert.Equal(t, []string{"poem"}, ids)

	resp, err := b.Service.View("poem")
	require.NoError(t, err)
	assert.Equal(t, "roses are red", resp.Content)
}

func TestNewBackend_MissingDir(t *testing.T) {
	cfg := DefaultConfig(envMap(nil))
	cfg.CorpusDir = filepath.Join(t.TempDir(), "nope")
	_, err := NewBackend(cfg, nil)
	assert.Error(t, err)
}
