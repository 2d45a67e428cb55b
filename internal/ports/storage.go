// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

import "time"

// CorpusStore is the backing store for corpora. A corpus is opaque,
// line-oriented UTF-8 text addressed by an identifier that the caller has
// already validated. The directory adapter maps one identifier to one file;
// the bbolt adapter maps it to one archive record.
//
// Missing corpora must be reported with an error satisfying
// errors.Is(err, fs.ErrNotExist) so the cache can tell "not found" apart
// from "unreadable".
type CorpusStore interface {
	// Exists reports whether a corpus is present. It never returns an
	// error for a missing corpus, only for a store that cannot be queried.
	Exists(id string) (bool, error)

	// ReadAll returns the full raw content of a corpus.
	ReadAll(id string) ([]byte, error)

	// ModTime returns the time of the corpus's last write.
	ModTime(id string) (time.Time, error)

	// List returns every corpus identifier in the store, sorted.
	List() ([]string, error)
}

// CorpusArchive is a CorpusStore that also accepts writes. Used by the
// import command to pack a directory of corpora into a single file.
type CorpusArchive interface {
	CorpusStore

	// Put stores content under id with the given modification time,
	// replacing any previous version atomically.
	Put(id string, content []byte, modTime time.Time) error

	// Delete removes a corpus. Idempotent.
	Delete(id string) error
}
