// Package ahocorasick provides multi-pattern substring prefiltering using an
// Aho-Corasick automaton. It wraps the petar-dambovaliev/aho-corasick library
// for O(n + m + z) matching.
package ahocorasick

import (
	"strings"

	aho "github.com/petar-dambovaliev/aho-corasick"

	"github.com/corey/kwic/internal/ports"
)

var _ ports.LineFilter = (*LineFilter)(nil)

// LineFilter reports whether a line contains any of its terms as a
// substring. Token equality implies substring containment, so a line the
// filter rejects can never hold a matching token; the converse does not
// hold and callers still tokenize accepted lines.
type LineFilter struct {
	automaton aho.AhoCorasick
	terms     []string
	foldCase  bool
}

// NewLineFilter compiles terms into an automaton. Without caseSensitive,
// terms and lines are compared lowercased, the same per-rune folding the
// token matcher applies.
func NewLineFilter(terms []string, caseSensitive bool) *LineFilter {
	f := &LineFilter{foldCase: !caseSensitive}
	for _, t := range terms {
		if t == "" {
			continue
		}
		if f.foldCase {
			t = strings.ToLower(t)
		}
		f.terms = append(f.terms, t)
	}
	if len(f.terms) == 0 {
		return f
	}

	builder := aho.NewAhoCorasickBuilder(aho.Opts{
		DFA: true,
	})
	f.automaton = builder.Build(f.terms)
	return f
}

// ForQuery builds a filter for a single query term. Its signature matches
// the factory the concordance service accepts.
func ForQuery(query string, caseSensitive bool) ports.LineFilter {
	return NewLineFilter([]string{query}, caseSensitive)
}

// MayContain reports whether line contains at least one term. A filter
// without terms accepts every line.
func (f *LineFilter) MayContain(line string) bool {
	if len(f.terms) == 0 {
		return true
	}
	if f.foldCase {
		line = strings.ToLower(line)
	}
	return len(f.automaton.FindAll(line)) > 0
}
