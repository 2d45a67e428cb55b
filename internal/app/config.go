package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/corey/kwic/internal/adapters/dirstore"
	"github.com/corey/kwic/internal/adapters/socket"
)

// Environment variables consulted by DefaultConfig.
const (
	EnvCorpusDir = "KWIC_CORPUS_DIR"
	EnvArchive   = "KWIC_ARCHIVE"
	EnvAddr      = "KWIC_ADDR"
	EnvLogLevel  = "KWIC_LOG_LEVEL"
	EnvMaxBytes  = "KWIC_MAX_CORPUS_BYTES"
)

// Default configuration values.
const (
	DefaultCorpusDir = "./samples"
	DefaultAddr      = "127.0.0.1:8000"
	DefaultLogLevel  = "info"
)

// Config holds initialization parameters for the App.
type Config struct {
	CorpusDir      string // directory of <id><ext> files (ignored when Archive is set)
	Archive        string // bbolt archive path; when set it is the corpus store
	Addr           string // HTTP listen address
	Ext            string // corpus file extension, with dot
	MaxCorpusBytes int64  // per-corpus size cap for directory stores
	Watch          bool   // evict cache entries when corpus files change
	Warm           bool   // preload every corpus at startup
	StateDir       string // runtime files (default: <source>/.kwic)
	LogLevel       string
	Version        string

	Logger *slog.Logger // nil = slog.Default()
}

// DefaultConfig returns the defaults overridden by environment variables
// read through getenv (os.Getenv in production).
func DefaultConfig(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Config{
		CorpusDir:      envOr(getenv, EnvCorpusDir, DefaultCorpusDir),
		Archive:        getenv(EnvArchive),
		Addr:           envOr(getenv, EnvAddr, DefaultAddr),
		Ext:            dirstore.DefaultExt,
		MaxCorpusBytes: dirstore.DefaultMaxBytes,
		Watch:          true,
		Warm:           true,
		LogLevel:       envOr(getenv, EnvLogLevel, DefaultLogLevel),
	}
	if raw := getenv(EnvMaxBytes); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			cfg.MaxCorpusBytes = n
		}
	}
	return cfg
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Validate normalizes the extension and checks required fields.
func (c *Config) Validate() error {
	if c.Archive == "" && c.CorpusDir == "" {
		return fmt.Errorf("corpus dir or archive required")
	}
	if c.Addr == "" {
		return fmt.Errorf("listen address required")
	}
	if c.Ext == "" {
		c.Ext = dirstore.DefaultExt
	}
	if !strings.HasPrefix(c.Ext, ".") {
		c.Ext = "." + c.Ext
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// UsesArchive reports whether corpora come from a bbolt archive.
func (c Config) UsesArchive() bool { return c.Archive != "" }

// Source returns the absolute path of the corpus source: the archive file
// or the corpus directory.
func (c Config) Source() string {
	src := c.CorpusDir
	if c.UsesArchive() {
		src = c.Archive
	}
	if abs, err := filepath.Abs(src); err == nil {
		return abs
	}
	return src
}

// SocketPath returns the daemon socket for this configuration's source.
func (c Config) SocketPath() string {
	return socket.SocketPath(c.Source())
}

// ResolvedStateDir returns StateDir or its default next to the source.
func (c Config) ResolvedStateDir() string {
	if c.StateDir != "" {
		return c.StateDir
	}
	if c.UsesArchive() {
		return filepath.Join(filepath.Dir(c.Source()), ".kwic")
	}
	return filepath.Join(c.Source(), ".kwic")
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}
