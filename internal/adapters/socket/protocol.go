// Package socket implements a JSON-over-Unix-socket protocol for the kwic daemon.
// The protocol uses newline-delimited JSON: each message is one JSON object + \n.
//
// The wire types defined here are shared with the HTTP API so both
// transports return identical shapes.
package socket

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/corey/kwic/internal/domain/concordance"
	"github.com/corey/kwic/internal/domain/corpus"
	"github.com/corey/kwic/internal/domain/kwic"
)

// SocketPath returns the Unix socket path for a given corpus source (a
// directory or archive file).
// Format: /tmp/kwic-{first12hex}.sock
func SocketPath(source string) string {
	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}
	h := sha256.Sum256([]byte(abs))
	return fmt.Sprintf("/tmp/kwic-%x.sock", h[:6])
}

// Method names for the protocol.
const (
	MethodSearch   = "search"
	MethodGrep     = "grep"
	MethodView     = "view"
	MethodCorpora  = "corpora"
	MethodStatus   = "status"
	MethodClear    = "clear"
	MethodHealth   = "health"
	MethodShutdown = "shutdown"
)

// Error codes carried in Response.Code.
const (
	CodeInvalid  = "invalid_argument"
	CodeNotFound = "not_found"
	CodeLoad     = "load_failed"
	CodeInternal = "internal"
)

// Request is the wire format for client-to-server messages.
type Request struct {
	ID     string      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// Response is the wire format for server-to-client messages.
type Response struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
	Code   string      `json:"code,omitempty"`
}

// Error is a failed request as seen by a client.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Classify maps a service error to a wire error code.
func Classify(err error) string {
	var le *corpus.LoadError
	switch {
	case errors.Is(err, concordance.ErrEmptyQuery),
		errors.Is(err, concordance.ErrOutOfRange),
		errors.Is(err, corpus.ErrInvalidIdentifier),
		errors.Is(err, kwic.ErrInvalidContextSize),
		errors.Is(err, kwic.ErrInvalidPage):
		return CodeInvalid
	case errors.Is(err, corpus.ErrNotFound):
		return CodeNotFound
	case errors.As(err, &le):
		return CodeLoad
	default:
		return CodeInternal
	}
}

// SearchParams is the params for a search request.
type SearchParams struct {
	Corpus        string `json:"corpus"`
	Query         string `json:"query"`
	ContextSize   int    `json:"context_size,omitempty"`
	CaseSensitive bool   `json:"case_sensitive,omitempty"`
	Page          int    `json:"page,omitempty"`
	PageSize      int    `json:"page_size,omitempty"`
}

// KWICHit is one concordance line (wire format). Match is a one-element
// list so clients can treat the three columns uniformly.
type KWICHit struct {
	Left       []string `json:"left"`
	Match      []string `json:"match"`
	Right      []string `json:"right"`
	LineNumber int      `json:"line_number"`
}

// SearchResult is the result of a search request.
type SearchResult struct {
	Query         string    `json:"query"`
	Corpus        string    `json:"corpus"`
	ContextSize   int       `json:"context_size"`
	CaseSensitive bool      `json:"case_sensitive"`
	Results       []KWICHit `json:"results"`
	TotalHits     int       `json:"total_hits"`
	Page          int       `json:"page"`
	PageSize      int       `json:"page_size"`
	TotalPages    int       `json:"total_pages"`
	Elapsed       string    `json:"elapsed"`
}

// GrepParams is the params for an in-file search request.
type GrepParams struct {
	Corpus        string `json:"corpus"`
	Query         string `json:"query"`
	CaseSensitive bool   `json:"case_sensitive,omitempty"`
}

// GrepResult is the result of an in-file search request.
type GrepResult struct {
	Query             string           `json:"query"`
	Corpus            string           `json:"corpus"`
	CaseSensitive     bool             `json:"case_sensitive"`
	Results           []kwic.LineMatch `json:"results"`
	TotalLinesMatched int              `json:"total_lines_matched"`
	TotalMatches      int              `json:"total_matches"`
	Elapsed           string           `json:"elapsed"`
}

// ViewParams is the params for a view request.
type ViewParams struct {
	Corpus string `json:"corpus"`
}

// ViewResult is the full text of a corpus.
type ViewResult struct {
	Filename  string `json:"filename"`
	Content   string `json:"content"`
	LineCount int    `json:"line_count"`
	WordCount int    `json:"word_count"`
	CharCount int    `json:"char_count"`
}

// CorporaResult lists the corpora available in the store.
type CorporaResult struct {
	Corpora []string `json:"corpora"`
	Count   int      `json:"count"`
}

// StatusResult describes every cached corpus, sorted by identifier.
type StatusResult struct {
	Cached []corpus.Stats `json:"cached"`
	Count  int            `json:"count"`
}

// ClearParams is the params for a clear request. No corpora clears all.
type ClearParams struct {
	Corpora []string `json:"corpora,omitempty"`
}

// ClearResult lists the corpora that were evicted.
type ClearResult struct {
	Cleared []string `json:"cleared"`
	Count   int      `json:"count"`
}

// HealthResult is the result of a health request. Requests counts the
// searches and greps inside the latency window; SearchP50 stays empty until
// there are enough of them.
type HealthResult struct {
	Status    string `json:"status"`
	Cached    int    `json:"cached"`
	Uptime    string `json:"uptime"`
	Version   string `json:"version,omitempty"`
	Requests  int    `json:"recent_requests"`
	SearchP50 string `json:"search_p50,omitempty"`
	SearchMax string `json:"search_max,omitempty"`
}

// NewHealthResult builds a health report from the service's cache and
// latency window.
func NewHealthResult(svc *concordance.Service, uptime time.Duration, version string) HealthResult {
	lat := svc.Latency()
	h := HealthResult{
		Status:   "ok",
		Cached:   len(svc.Status()),
		Uptime:   uptime.Round(time.Second).String(),
		Version:  version,
		Requests: lat.Samples,
	}
	if lat.P50 > 0 {
		h.SearchP50 = lat.P50.String()
	}
	if lat.Max > 0 {
		h.SearchMax = lat.Max.String()
	}
	return h
}

// NewSearchResult converts a service response to wire format.
func NewSearchResult(r *concordance.SearchResponse) SearchResult {
	hits := make([]KWICHit, len(r.Results))
	for i, h := range r.Results {
		hits[i] = KWICHit{
			Left:       nonNil(h.Left),
			Match:      []string{h.Match},
			Right:      nonNil(h.Right),
			LineNumber: h.LineNumber,
		}
	}
	return SearchResult{
		Query:         r.Query,
		Corpus:        r.Corpus,
		ContextSize:   r.ContextSize,
		CaseSensitive: r.CaseSensitive,
		Results:       hits,
		TotalHits:     r.TotalHits,
		Page:          r.Page.Page,
		PageSize:      r.PageSize,
		TotalPages:    r.TotalPages,
		Elapsed:       r.Elapsed.String(),
	}
}

// NewGrepResult converts a service response to wire format.
func NewGrepResult(r *concordance.GrepResponse) GrepResult {
	return GrepResult{
		Query:             r.Query,
		Corpus:            r.Corpus,
		CaseSensitive:     r.CaseSensitive,
		Results:           r.Results,
		TotalLinesMatched: r.TotalLinesMatched,
		TotalMatches:      r.TotalMatches,
		Elapsed:           r.Elapsed.String(),
	}
}

// NewViewResult converts a service response to wire format.
func NewViewResult(r *concordance.ViewResponse) ViewResult {
	return ViewResult{
		Filename:  r.Filename,
		Content:   r.Content,
		LineCount: r.LineCount,
		WordCount: r.WordCount,
		CharCount: r.CharCount,
	}
}

// NewStatusResult flattens cache stats into a list sorted by identifier.
func NewStatusResult(stats map[string]corpus.Stats) StatusResult {
	out := make([]corpus.Stats, 0, len(stats))
	for _, st := range stats {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return StatusResult{Cached: out, Count: len(out)}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
