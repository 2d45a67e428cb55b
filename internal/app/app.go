// Package app wires together all adapters and domain logic.
// It provides lifecycle management for the kwic daemon: create, start, stop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corey/kwic/internal/adapters/ahocorasick"
	"github.com/corey/kwic/internal/adapters/bbolt"
	"github.com/corey/kwic/internal/adapters/dirstore"
	fsw "github.com/corey/kwic/internal/adapters/fsnotify"
	"github.com/corey/kwic/internal/adapters/socket"
	"github.com/corey/kwic/internal/adapters/web"
	"github.com/corey/kwic/internal/domain/concordance"
	"github.com/corey/kwic/internal/domain/corpus"
	"github.com/corey/kwic/internal/ports"
)

// Backend is the corpus store plus the cache and service built on it. The
// CLI uses it directly when no daemon is running.
type Backend struct {
	Store   ports.CorpusStore
	Cache   *corpus.Cache
	Service *concordance.Service

	dir     *dirstore.Store // nil in archive mode
	archive *bbolt.Store    // nil in directory mode
}

// NewBackend opens the configured store and builds the cache and service.
// observer may be nil.
func NewBackend(cfg Config, observer corpus.LoadObserver) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Backend{}
	if cfg.UsesArchive() {
		st, err := bbolt.OpenReadOnly(cfg.Archive)
		if err != nil {
			return nil, fmt.Errorf("open archive: %w", err)
		}
		b.archive = st
		b.Store = st
	} else {
		st, err := dirstore.New(cfg.CorpusDir,
			dirstore.WithExt(cfg.Ext),
			dirstore.WithMaxBytes(cfg.MaxCorpusBytes),
		)
		if err != nil {
			return nil, err
		}
		b.dir = st
		b.Store = st
	}

	b.Cache = corpus.NewCache(b.Store, corpus.WithLoadObserver(observer))
	b.Service = concordance.NewService(b.Cache,
		concordance.WithFileExt(cfg.Ext),
		concordance.WithLineFilter(ahocorasick.ForQuery),
	)
	return b, nil
}

// Close releases the store.
func (b *Backend) Close() error {
	if b.archive != nil {
		return b.archive.Close()
	}
	return nil
}

// App is the top-level container wiring all components together.
type App struct {
	Config Config
	Paths  *Paths

	*Backend
	Watcher   *fsw.Watcher // nil when watching is off or corpora come from an archive
	Server    *socket.Server
	WebServer *web.Server

	logger  *slog.Logger
	started time.Time
	cancel  context.CancelFunc
	warmed  chan struct{}
}

// New creates an App with all dependencies wired. Does not start services.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		Config: cfg,
		Paths:  NewPaths(cfg.ResolvedStateDir()),
		logger: logger,
		warmed: make(chan struct{}),
	}

	backend, err := NewBackend(cfg, a.onCorpusLoad)
	if err != nil {
		return nil, err
	}
	a.Backend = backend

	if cfg.Watch && backend.dir != nil {
		w, err := fsw.NewWatcher(
			fsw.WithExt(cfg.Ext),
			fsw.WithLogger(logger.With("component", "watcher")),
		)
		if err != nil {
			backend.Close()
			return nil, fmt.Errorf("create watcher: %w", err)
		}
		a.Watcher = w
	}

	a.Server = socket.NewServer(
		socket.NewHandler(backend.Service, cfg.Version),
		cfg.SocketPath(),
		logger.With("component", "socket"),
	)
	a.WebServer = web.NewServer(backend.Service,
		web.WithLogger(logger.With("component", "web")),
		web.WithVersion(cfg.Version),
		web.WithPortFile(a.Paths.PortFile),
	)
	return a, nil
}

// Start brings up the socket and HTTP servers, the watcher and, when
// enabled, background cache warming. ctx bounds the warm-up.
func (a *App) Start(ctx context.Context) error {
	a.started = time.Now()
	if err := a.Paths.EnsureDirs(); err != nil {
		return fmt.Errorf("state dir: %w", err)
	}
	if err := a.Server.Start(); err != nil {
		return fmt.Errorf("start socket server: %w", err)
	}
	if err := a.WebServer.Start(a.Config.Addr); err != nil {
		a.Server.Stop()
		return fmt.Errorf("start http server: %w", err)
	}
	if err := a.Paths.WritePID(); err != nil {
		a.logger.Warn("write pid file", "path", a.Paths.PIDFile, "err", err)
	}

	// Watcher is non-fatal: the cache still notices changes by mtime.
	if a.Watcher != nil {
		if err := a.Watcher.Watch(a.Config.CorpusDir, a.onCorpusChanged); err != nil {
			a.logger.Warn("file watcher unavailable", "dir", a.Config.CorpusDir, "err", err)
		}
	}

	ctx, a.cancel = context.WithCancel(ctx)
	if a.Config.Warm {
		go a.warm(ctx)
	} else {
		close(a.warmed)
	}

	a.logger.Info("kwic started",
		"source", a.Config.Source(),
		"socket", a.Server.Addr(),
		"url", a.WebServer.URL(),
	)
	return nil
}

// Stop gracefully shuts down all services.
func (a *App) Stop() error {
	if a.cancel != nil {
		a.cancel()
	}
	if a.Watcher != nil {
		a.Watcher.Stop()
	}
	a.WebServer.Stop()
	a.Server.Stop()
	a.Paths.CleanEphemeral()
	return a.Backend.Close()
}

// ShutdownCh is closed when a client asks the daemon to stop.
func (a *App) ShutdownCh() <-chan struct{} {
	return a.Server.ShutdownCh()
}

// Warmed is closed once startup warming has finished (or was skipped).
func (a *App) Warmed() <-chan struct{} {
	return a.warmed
}

// Uptime returns the time since Start.
func (a *App) Uptime() time.Duration {
	return time.Since(a.started)
}

func (a *App) warm(ctx context.Context) {
	defer close(a.warmed)
	ids, err := a.Cache.List()
	if err != nil {
		a.logger.Warn("warm: list corpora", "err", err)
		return
	}
	start := time.Now()
	err = a.Cache.Warm(ctx, ids...)
	if err != nil && !errors.Is(err, context.Canceled) {
		// Per-corpus failures were already logged by the load observer.
		a.logger.Warn("warm finished with errors", "corpora", len(ids), "err", err)
		return
	}
	a.logger.Info("warm finished", "corpora", len(ids), "elapsed", time.Since(start).Round(time.Millisecond))
}
