package corpus

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/RoaringBitmap/roaring"
	"github.com/corey/kwic/internal/domain/kwic"
)

// Record is one loaded corpus. It is immutable once built: a reload builds
// a new Record and swaps the pointer, so a reader holding a Record always
// sees lines, tokens and metadata from the same file state.
//
// Callers must not modify the returned slices.
type Record struct {
	ID           string
	Lines        []string
	Tokens       [][]string // Tokenize(Lines[i])
	ModTime      time.Time  // backing store's write time observed before the read
	SizeBytes    int64
	LoadDuration time.Duration

	loadStart time.Time
	// lineIndex maps a lowercased token to the set of 0-based line indexes
	// containing it. Iteration order is ascending, which is corpus order.
	lineIndex  map[string]*roaring.Bitmap
	tokenCount int
}

// buildRecord decodes raw corpus bytes into lines, pre-tokenizes every line
// and builds the token→line bitmap index.
func buildRecord(id string, data []byte, modTime time.Time) (*Record, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}

	lines := splitLines(string(data))
	rec := &Record{
		ID:        id,
		Lines:     lines,
		Tokens:    make([][]string, len(lines)),
		ModTime:   modTime,
		SizeBytes: int64(len(data)),
		lineIndex: make(map[string]*roaring.Bitmap),
	}

	for i, line := range lines {
		toks := kwic.Tokenize(line)
		rec.Tokens[i] = toks
		rec.tokenCount += len(toks)
		for _, tok := range toks {
			key := strings.ToLower(tok)
			bm, ok := rec.lineIndex[key]
			if !ok {
				bm = roaring.NewBitmap()
				rec.lineIndex[key] = bm
			}
			bm.Add(uint32(i))
		}
	}
	for _, bm := range rec.lineIndex {
		bm.RunOptimize()
	}
	return rec, nil
}

// splitLines splits on \n, drops a trailing \r per line and a leading BOM.
// A final newline does not produce an empty last line. Blank lines are kept
// so line numbers match the file.
func splitLines(s string) []string {
	s = strings.TrimPrefix(s, "\uFEFF")
	if s == "" {
		return []string{}
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// LineCount returns the number of lines.
func (r *Record) LineCount() int { return len(r.Lines) }

// TokenCount returns the total number of tokens across all lines.
func (r *Record) TokenCount() int { return r.tokenCount }

// Vocabulary returns the number of distinct lowercased tokens.
func (r *Record) Vocabulary() int { return len(r.lineIndex) }

// Search produces the same results as kwic.Search over r.Lines, but only
// visits lines the index says contain the query.
func (r *Record) Search(query string, contextSize int, opts kwic.Options) ([]kwic.Result, error) {
	m, err := kwic.NewMatcher(query, contextSize, opts)
	if err != nil {
		return nil, err
	}

	bm, ok := r.lineIndex[strings.ToLower(query)]
	if !ok {
		return []kwic.Result{}, nil
	}

	// Case-sensitive queries may match fewer lines than the index holds.
	results := make([]kwic.Result, 0, bm.GetCardinality())

	it := bm.Iterator()
	for it.HasNext() {
		i := int(it.Next())
		if res, ok := m.Find(r.Tokens[i]); ok {
			res.LineNumber = i + 1
			results = append(results, res)
		}
	}
	return results, nil
}
