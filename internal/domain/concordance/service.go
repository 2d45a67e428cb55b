// Package concordance is the request layer over the corpus cache. It
// normalizes and bounds request parameters, picks the indexed search path
// and shapes results for the transports (HTTP, Unix socket, in-process CLI).
package concordance

import (
	"fmt"
	"strings"
	"time"

	"github.com/corey/kwic/internal/domain/corpus"
	"github.com/corey/kwic/internal/domain/kwic"
	"github.com/corey/kwic/internal/ports"
)

// Request limits. Zero values in a request select the defaults.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
	MaxContextSize  = 50
)

// FilterFactory builds a line prefilter for one in-file scan.
type FilterFactory func(query string, caseSensitive bool) ports.LineFilter

// Service answers concordance requests from a corpus cache.
type Service struct {
	cache  *corpus.Cache
	filter FilterFactory
	ext    string
	clock  ports.Clock

	searches *LatencyTracker
}

// Option configures a Service.
type Option func(*Service)

// WithLineFilter sets the prefilter used by Grep.
func WithLineFilter(f FilterFactory) Option {
	return func(s *Service) { s.filter = f }
}

// WithFileExt sets the extension View appends to an identifier to report
// the corpus file name.
func WithFileExt(ext string) Option {
	return func(s *Service) { s.ext = ext }
}

// WithClock sets the time source for elapsed times.
func WithClock(c ports.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLatencyWindow sets the rolling window Latency reports over.
func WithLatencyWindow(d time.Duration) Option {
	return func(s *Service) { s.searches = NewLatencyTracker(d) }
}

// NewService creates a Service over cache.
func NewService(cache *corpus.Cache, opts ...Option) *Service {
	s := &Service{cache: cache, clock: ports.SystemClock{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.searches == nil {
		s.searches = NewLatencyTracker(DefaultLatencyWindow)
	}
	return s
}

// Cache returns the underlying corpus cache.
func (s *Service) Cache() *corpus.Cache { return s.cache }

// SearchRequest asks for one page of KWIC results.
type SearchRequest struct {
	Corpus        string
	Query         string
	ContextSize   int // 0 selects kwic.DefaultContextSize
	CaseSensitive bool
	Page          int // 0 selects 1
	PageSize      int // 0 selects DefaultPageSize
}

// SearchResponse is one page of results plus the effective parameters.
type SearchResponse struct {
	Corpus        string
	Query         string
	ContextSize   int
	CaseSensitive bool
	kwic.Page
	Elapsed time.Duration
}

// Search runs a KWIC search over one corpus and returns the requested page.
func (s *Service) Search(req SearchRequest) (*SearchResponse, error) {
	query, err := normalizeQuery(req.Query)
	if err != nil {
		return nil, err
	}
	ctxSize := req.ContextSize
	if ctxSize == 0 {
		ctxSize = kwic.DefaultContextSize
	}
	if ctxSize < 1 {
		return nil, fmt.Errorf("%w: got %d", kwic.ErrInvalidContextSize, ctxSize)
	}
	if ctxSize > MaxContextSize {
		return nil, fmt.Errorf("%w: context_size %d exceeds %d", ErrOutOfRange, ctxSize, MaxContextSize)
	}
	page := req.Page
	if page == 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: page=%d page_size=%d", kwic.ErrInvalidPage, page, pageSize)
	}
	if pageSize > MaxPageSize {
		return nil, fmt.Errorf("%w: page_size %d exceeds %d", ErrOutOfRange, pageSize, MaxPageSize)
	}

	start := s.clock.Now()
	rec, err := s.cache.Snapshot(req.Corpus)
	if err != nil {
		return nil, err
	}
	opts := kwic.Options{CaseSensitive: req.CaseSensitive}
	results, err := rec.Search(query, ctxSize, opts)
	if err != nil {
		return nil, err
	}
	p, err := kwic.Paginate(results, page, pageSize)
	if err != nil {
		return nil, err
	}

	return &SearchResponse{
		Corpus:        req.Corpus,
		Query:         query,
		ContextSize:   ctxSize,
		CaseSensitive: req.CaseSensitive,
		Page:          p,
		Elapsed:       s.observe(start),
	}, nil
}

// GrepRequest asks for every line of a corpus holding the query token.
type GrepRequest struct {
	Corpus        string
	Query         string
	CaseSensitive bool
}

// GrepResponse lists matching lines with per-line token counts.
type GrepResponse struct {
	Corpus        string
	Query         string
	CaseSensitive bool
	kwic.ScanResult
	Elapsed time.Duration
}

// Grep scans a corpus line by line for the query token.
func (s *Service) Grep(req GrepRequest) (*GrepResponse, error) {
	query, err := normalizeQuery(req.Query)
	if err != nil {
		return nil, err
	}

	start := s.clock.Now()
	lines, err := s.cache.Get(req.Corpus)
	if err != nil {
		return nil, err
	}
	var filter ports.LineFilter
	if s.filter != nil {
		filter = s.filter(query, req.CaseSensitive)
	}
	res := kwic.ScanLines(lines, query, kwic.Options{CaseSensitive: req.CaseSensitive}, filter)

	return &GrepResponse{
		Corpus:        req.Corpus,
		Query:         query,
		CaseSensitive: req.CaseSensitive,
		ScanResult:    res,
		Elapsed:       s.observe(start),
	}, nil
}

// ViewResponse is the full text of a corpus with size facts.
type ViewResponse struct {
	Corpus   string
	Filename string
	Content  string
	kwic.TextStats
}

// View returns a corpus's full text as the cache holds it (BOM stripped,
// line endings normalized to \n).
func (s *Service) View(id string) (*ViewResponse, error) {
	lines, err := s.cache.Get(id)
	if err != nil {
		return nil, err
	}
	return &ViewResponse{
		Corpus:    id,
		Filename:  id + s.ext,
		Content:   strings.Join(lines, "\n"),
		TextStats: kwic.Describe(lines),
	}, nil
}

// Corpora lists the identifiers available in the store.
func (s *Service) Corpora() ([]string, error) {
	return s.cache.List()
}

// Status reports every cached corpus.
func (s *Service) Status() map[string]corpus.Stats {
	return s.cache.Status()
}

// Clear evicts the given corpora, or all of them. It returns the
// identifiers that were cached before the call and are now gone.
func (s *Service) Clear(ids ...string) []string {
	before := s.cache.Cached()
	s.cache.Clear(ids...)
	if len(ids) == 0 {
		return before
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	cleared := []string{}
	for _, id := range before {
		if want[id] {
			cleared = append(cleared, id)
		}
	}
	return cleared
}

// Latency summarizes recent Search and Grep durations.
func (s *Service) Latency() LatencySummary {
	return s.searches.SummaryAt(s.clock.Now())
}

// observe records the time since start as one request sample.
func (s *Service) observe(start time.Time) time.Duration {
	now := s.clock.Now()
	d := now.Sub(start)
	s.searches.RecordAt(now, d)
	return d
}

func normalizeQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", ErrEmptyQuery
	}
	return q, nil
}
