package app

import (
	"github.com/corey/kwic/internal/domain/corpus"
)

// onCorpusLoad logs every cache load attempt. The cache itself never logs.
func (a *App) onCorpusLoad(ev corpus.LoadEvent) {
	if ev.Err != nil {
		a.logger.Warn("corpus load failed",
			"corpus", ev.ID,
			"reload", ev.Reload,
			"err", ev.Err,
		)
		return
	}
	msg := "corpus loaded"
	if ev.Reload {
		msg = "corpus reloaded"
	}
	a.logger.Debug(msg,
		"corpus", ev.ID,
		"lines", ev.Lines,
		"bytes", ev.Bytes,
		"elapsed", ev.Duration,
	)
}
