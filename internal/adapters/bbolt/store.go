// Package bbolt implements ports.CorpusArchive on bbolt (embedded B+ tree).
// Every corpus gets its own sub-bucket under "corpora" holding the raw
// content and a small binary header. Writes are transactional, so a crash
// during import cannot leave a corpus with content from one version and a
// header from another.
package bbolt

import (
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/corey/kwic/internal/ports"
	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var (
	bucketCorpora = []byte("corpora")
	keyContent    = []byte("content")
	keyHeader     = []byte("header")
)

var _ ports.CorpusArchive = (*Store)(nil)

// Store implements ports.CorpusArchive backed by bbolt.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenReadOnly opens an existing archive without taking the write lock, so
// several serving processes can share one file.
func OpenReadOnly(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// Put stores (or replaces) a corpus with the given modification time.
func (s *Store) Put(id string, content []byte, modTime time.Time) error {
	hdr := encodeHeader(header{ModTime: modTime, Size: int64(len(content))})
	return s.db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists(bucketCorpora)
		if err != nil {
			return err
		}
		cb, err := root.CreateBucketIfNotExists([]byte(id))
		if err != nil {
			return err
		}
		if err := cb.Put(keyContent, content); err != nil {
			return err
		}
		return cb.Put(keyHeader, hdr)
	})
}

// Delete removes a corpus. Deleting a missing corpus is not an error.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketCorpora)
		if root == nil || root.Bucket([]byte(id)) == nil {
			return nil
		}
		return root.DeleteBucket([]byte(id))
	})
}

// Exists reports whether the archive holds corpus id.
func (s *Store) Exists(id string) (bool, error) {
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		found = corpusBucket(tx, id) != nil
		return nil
	})
	return found, err
}

// ModTime returns the modification time recorded at import.
func (s *Store) ModTime(id string) (time.Time, error) {
	var h header
	err := s.db.View(func(tx *bolt.Tx) error {
		cb := corpusBucket(tx, id)
		if cb == nil {
			return notExist(id)
		}
		var err error
		h, err = decodeHeader(cb.Get(keyHeader))
		return err
	})
	if err != nil {
		return time.Time{}, err
	}
	return h.ModTime, nil
}

// ReadAll returns a copy of the corpus content.
func (s *Store) ReadAll(id string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		cb := corpusBucket(tx, id)
		if cb == nil {
			return notExist(id)
		}
		// bbolt slices are only valid within the transaction
		v := cb.Get(keyContent)
		data = make([]byte, len(v))
		copy(data, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// List returns every archived corpus identifier, sorted.
func (s *Store) List() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketCorpora)
		if root == nil {
			return nil
		}
		return root.ForEachBucket(func(k []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func corpusBucket(tx *bolt.Tx, id string) *bolt.Bucket {
	root := tx.Bucket(bucketCorpora)
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(id))
}

func notExist(id string) error {
	return fmt.Errorf("archive corpus %q: %w", id, fs.ErrNotExist)
}
