package app

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(envMap(nil))
	assert.Equal(t, DefaultCorpusDir, cfg.CorpusDir)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, ".txt", cfg.Ext)
	assert.Empty(t, cfg.Archive)
	assert.True(t, cfg.Watch)
	assert.True(t, cfg.Warm)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestDefaultConfig_Env(t *testing.T) {
	cfg := DefaultConfig(envMap(map[string]string{
		EnvCorpusDir: "/data/corpora",
		EnvArchive:   "/data/corpora.db",
		EnvAddr:      ":9000",
		EnvLogLevel:  "debug",
		EnvMaxBytes:  "1024",
	}))
	assert.Equal(t, "/data/corpora", cfg.CorpusDir)
	assert.Equal(t, "/data/corpora.db", cfg.Archive)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, int64(1024), cfg.MaxCorpusBytes)
	assert.True(t, cfg.UsesArchive())
	assert.Equal(t, "/data/corpora.db", cfg.Source())
	assert.Equal(t, filepath.Join("/data", ".kwic"), cfg.ResolvedStateDir())
}

func TestDefaultConfig_BadMaxBytesIgnored(t *testing.T) {
	cfg := DefaultConfig(envMap(map[string]string{EnvMaxBytes: "lots"}))
	assert.Positive(t, cfg.MaxCorpusBytes)
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{CorpusDir: "/c", Addr: ":1", Ext: "corpus"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ".corpus", cfg.Ext)

	cfg = Config{CorpusDir: "/c", Addr: ":1"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ".txt", cfg.Ext)

	assert.Error(t, (&Config{Addr: ":1"}).Validate())
	assert.Error(t, (&Config{CorpusDir: "/c"}).Validate())
	assert.Error(t, (&Config{CorpusDir: "/c", Addr: ":1", LogLevel: "loud"}).Validate())
}

func TestConfig_StateDirAndSocket(t *testing.T) {
	cfg := Config{CorpusDir: "/srv/corpora"}
	assert.Equal(t, filepath.Join("/srv/corpora", ".kwic"), cfg.ResolvedStateDir())

	cfg.StateDir = "/var/lib/kwic"
	assert.Equal(t, "/var/lib/kwic", cfg.ResolvedStateDir())

	other := Config{CorpusDir: "/srv/other"}
	assert.NotEqual(t, cfg.SocketPath(), other.SocketPath())
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}
