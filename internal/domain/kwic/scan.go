package kwic

import (
	"strings"
	"unicode/utf8"

	"github.com/corey/kwic/internal/ports"
)

// LineMatch is one line of an in-file scan.
type LineMatch struct {
	LineNumber int    `json:"line_number"`
	Content    string `json:"content"`
	Matches    int    `json:"matches"`
}

// ScanResult holds every matching line of a scan plus totals.
type ScanResult struct {
	Results           []LineMatch
	TotalLinesMatched int
	TotalMatches      int
}

// ScanLines reports every line containing the query as a token, with the
// number of matching tokens on that line. Matching uses the same
// exact-token rule as the concordance so both views agree on what a hit is.
//
// filter may be nil. When set, lines it rejects are skipped untokenized.
func ScanLines(lines []string, query string, opts Options, filter ports.LineFilter) ScanResult {
	m := &Matcher{query: query, caseSens: opts.CaseSensitive}
	if !opts.CaseSensitive {
		m.query = strings.ToLower(query)
	}

	res := ScanResult{Results: []LineMatch{}}
	for i, line := range lines {
		if filter != nil && !filter.MayContain(line) {
			continue
		}
		n := 0
		for _, tok := range Tokenize(line) {
			if m.Matches(tok) {
				n++
			}
		}
		if n == 0 {
			continue
		}
		res.Results = append(res.Results, LineMatch{
			LineNumber: i + 1,
			Content:    strings.TrimSpace(line),
			Matches:    n,
		})
		res.TotalMatches += n
	}
	res.TotalLinesMatched = len(res.Results)
	return res
}

// TextStats are the size facts shown alongside a corpus's full text.
type TextStats struct {
	LineCount int
	WordCount int // whitespace-separated fields
	CharCount int // runes, counting the newlines between lines
}

// Describe computes TextStats for a corpus given as lines.
func Describe(lines []string) TextStats {
	st := TextStats{LineCount: len(lines)}
	for i, line := range lines {
		st.WordCount += len(strings.Fields(line))
		st.CharCount += utf8.RuneCountInString(line)
		if i > 0 {
			st.CharCount++
		}
	}
	return st
}
