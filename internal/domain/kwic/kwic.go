// Package kwic implements keyword-in-context extraction over tokenized
// lines. Everything here is pure: no I/O, no shared state, safe for
// concurrent use without locking.
package kwic

import (
	"fmt"
	"strings"
)

// DefaultContextSize is the number of tokens shown on each side of a match
// when the caller does not ask for a specific window.
const DefaultContextSize = 5

// Result is one concordance line: the first match on a corpus line with at
// most ContextSize tokens on either side.
type Result struct {
	Left       []string
	Match      string // original case
	Right      []string
	LineNumber int // 1-based, 0 when produced outside a corpus scan
}

// Options controls matching. The zero value is the default: exact token
// equality, case-insensitive.
type Options struct {
	CaseSensitive bool
}

// Matcher finds the first token equal to a query and cuts the context
// window around it. Build one per request with NewMatcher; it is immutable
// and may be shared across goroutines.
type Matcher struct {
	query       string // lowered unless caseSensitive
	contextSize int
	caseSens    bool
}

// NewMatcher validates contextSize once and returns a reusable matcher.
func NewMatcher(query string, contextSize int, opts Options) (*Matcher, error) {
	if contextSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidContextSize, contextSize)
	}
	q := query
	if !opts.CaseSensitive {
		q = strings.ToLower(q)
	}
	return &Matcher{query: q, contextSize: contextSize, caseSens: opts.CaseSensitive}, nil
}

// Query returns the normalized query string the matcher compares against.
func (m *Matcher) Query() string { return m.query }

// Matches reports whether a single token equals the query.
func (m *Matcher) Matches(token string) bool {
	if m.caseSens {
		return token == m.query
	}
	return strings.ToLower(token) == m.query
}

// Find returns the KWIC window around the first matching token.
// Only the first occurrence on a line is reported: one concordance line per
// corpus line. The window never reads past either end of tokens.
func (m *Matcher) Find(tokens []string) (Result, bool) {
	for i, tok := range tokens {
		if !m.Matches(tok) {
			continue
		}
		leftStart := max(0, i-m.contextSize)
		rightEnd := min(len(tokens), i+1+m.contextSize)

		// Copies keep callers from aliasing cached token slices.
		left := make([]string, i-leftStart)
		copy(left, tokens[leftStart:i])
		right := make([]string, rightEnd-(i+1))
		copy(right, tokens[i+1:rightEnd])

		return Result{Left: left, Match: tok, Right: right}, true
	}
	return Result{}, false
}

// FindKWIC is the one-shot form of NewMatcher(...).Find with default options.
func FindKWIC(tokens []string, query string, contextSize int) (Result, bool, error) {
	m, err := NewMatcher(query, contextSize, Options{})
	if err != nil {
		return Result{}, false, err
	}
	r, ok := m.Find(tokens)
	return r, ok, nil
}

// Search runs the matcher over every line in corpus order and returns one
// Result per matching line, with 1-based line numbers.
func Search(lines []string, query string, contextSize int, opts Options) ([]Result, error) {
	m, err := NewMatcher(query, contextSize, opts)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0)
	for i, line := range lines {
		if r, ok := m.Find(Tokenize(line)); ok {
			r.LineNumber = i + 1
			results = append(results, r)
		}
	}
	return results, nil
}
