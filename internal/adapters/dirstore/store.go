// Package dirstore implements ports.CorpusStore over a flat directory of
// text files: corpus "demo" is the file <root>/demo.txt.
package dirstore

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultExt is the file extension of corpus files.
	DefaultExt = ".txt"

	// DefaultMaxBytes caps a single corpus file.
	DefaultMaxBytes = 64 << 20
)

// Store reads corpora from a directory. It holds no state besides its
// configuration and is safe for concurrent use.
type Store struct {
	root     string
	ext      string
	maxBytes int64
}

// Option configures a Store.
type Option func(*Store)

// WithExt sets the corpus file extension (with leading dot).
func WithExt(ext string) Option {
	return func(s *Store) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.ext = ext
	}
}

// WithMaxBytes caps the size of a corpus file. Zero or negative keeps the
// default.
func WithMaxBytes(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// New creates a Store rooted at dir. The directory must exist.
func New(dir string, opts ...Option) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("corpus dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus dir %s: not a directory", abs)
	}

	s := &Store{root: abs, ext: DefaultExt, maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the absolute corpus directory.
func (s *Store) Root() string { return s.root }

// Ext returns the corpus file extension.
func (s *Store) Ext() string { return s.ext }

// Path returns the file backing corpus id. The result is always inside
// Root; an id that would resolve elsewhere yields an error.
func (s *Store) Path(id string) (string, error) {
	p := filepath.Join(s.root, id+s.ext)
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel != filepath.Base(p) {
		return "", fmt.Errorf("corpus %q resolves outside %s", id, s.root)
	}
	return p, nil
}

// ID maps a file path back to its corpus identifier. ok is false for
// files that are not corpora (wrong extension, different directory).
func (s *Store) ID(path string) (id string, ok bool) {
	if filepath.Dir(path) != s.root || !strings.HasSuffix(path, s.ext) {
		return "", false
	}
	id = strings.TrimSuffix(filepath.Base(path), s.ext)
	return id, id != ""
}

// Exists reports whether corpus id has a regular file.
func (s *Store) Exists(id string) (bool, error) {
	_, err := s.stat(id)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ModTime returns the corpus file's modification time.
func (s *Store) ModTime(id string) (time.Time, error) {
	info, err := s.stat(id)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// ReadAll reads the whole corpus file, refusing files over the size cap.
func (s *Store) ReadAll(id string) ([]byte, error) {
	p, err := s.Path(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Read one byte past the cap to detect oversize files without a stat race.
	data, err := io.ReadAll(io.LimitReader(f, s.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("corpus %q exceeds %d bytes", id, s.maxBytes)
	}
	return data, nil
}

// List returns the identifiers of every corpus file in the directory.
// Symlinks count when they resolve to a regular file, the same rule the
// read path applies.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		p := filepath.Join(s.root, e.Name())
		if e.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(p)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		} else if !e.Type().IsRegular() {
			continue
		}
		if id, ok := s.ID(p); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) stat(id string) (fs.FileInfo, error) {
	p, err := s.Path(id)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("corpus %q: not a regular file", id)
	}
	return info, nil
}
