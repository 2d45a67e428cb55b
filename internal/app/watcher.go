package app

import (
	"errors"

	"github.com/corey/kwic/internal/domain/corpus"
)

// onCorpusChanged re-checks a cached corpus whose file was written, created,
// renamed or removed. The reload goes through the cache's replace-or-fail
// path: a bad write leaves the previous record serving, and only a file that
// is gone gets evicted. Corpora nobody has asked for stay unloaded.
func (a *App) onCorpusChanged(path string) {
	if a.dir == nil {
		return
	}
	id, ok := a.dir.ID(path)
	if !ok {
		return
	}
	err := a.Cache.Refresh(id)
	switch {
	case err == nil:
		a.logger.Debug("corpus changed", "corpus", id, "path", path)
	case errors.Is(err, corpus.ErrNotFound):
		a.logger.Info("corpus removed", "corpus", id, "path", path)
	default:
		// Load failures are already logged by onCorpusLoad.
		a.logger.Debug("corpus refresh failed, keeping cached record", "corpus", id, "err", err)
	}
}
