package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/corey/kwic/internal/adapters/socket"
	"github.com/corey/kwic/internal/domain/concordance"
)

// Server serves the JSON API and the static page over HTTP.
type Server struct {
	svc      *concordance.Service
	logger   *slog.Logger
	version  string
	listener net.Listener
	httpSrv  *http.Server
	started  time.Time
	stopOnce sync.Once

	portFilePath string // <state dir>/http.port
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the access and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVersion sets the version reported by GET /api.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithPortFile makes Start write the bound port to path for discovery.
func WithPortFile(path string) Option {
	return func(s *Server) { s.portFilePath = path }
}

// NewServer creates an HTTP server over svc.
func NewServer(svc *concordance.Service, opts ...Option) *Server {
	s := &Server{
		svc:     svc,
		logger:  slog.Default().With("component", "web"),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /", http.FileServerFS(staticRoot()))
	mux.HandleFunc("GET /api", s.handleStatus)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/cache", s.handleCacheStatus)
	mux.HandleFunc("DELETE /api/cache", s.handleCacheClear)
	mux.HandleFunc("DELETE /api/cache/{corpus}", s.handleCacheClear)

	// Routes are served with and without the /api prefix; the bare paths
	// are the ones existing frontends call.
	for _, prefix := range []string{"/api", ""} {
		mux.HandleFunc("GET "+prefix+"/corpora", s.handleCorpora)
		mux.HandleFunc("GET "+prefix+"/search", s.handleSearch)
		mux.HandleFunc("GET "+prefix+"/view/{corpus}", s.handleView)
		mux.HandleFunc("GET "+prefix+"/search-in-file/{corpus}", s.handleSearchInFile)
	}
	return s.middleware(mux)
}

// Start begins listening on addr (host:port; port 0 picks a free one).
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.portFilePath != "" {
		if err := os.WriteFile(s.portFilePath, []byte(strconv.Itoa(s.Port())), 0644); err != nil {
			s.logger.Warn("write port file", "path", s.portFilePath, "err", err)
		}
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http serve", "err", err)
		}
	}()
	s.logger.Info("http listening", "url", s.URL())
	return nil
}

// Stop gracefully shuts down the HTTP server. Idempotent.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.httpSrv.Shutdown(ctx)
		}
		if s.portFilePath != "" {
			os.Remove(s.portFilePath)
		}
	})
}

// Port returns the bound port number, or 0 before Start.
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	if s.listener == nil {
		return ""
	}
	return "http://" + s.listener.Addr().String()
}

type statusResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Message: "Concordance API",
		Status:  "running",
		Version: s.version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, socket.NewHealthResult(s.svc, time.Since(s.started), s.version))
}

func (s *Server) handleCorpora(w http.ResponseWriter, r *http.Request) {
	ids, err := s.svc.Corpora()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, socket.CorporaResult{Corpora: ids, Count: len(ids)})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ints, err := queryInts(q.Get, "context_size", "page", "page_size")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cs, err := queryBool(q.Get("case_sensitive"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.svc.Search(concordance.SearchRequest{
		Corpus:        q.Get("corpus"),
		Query:         q.Get("query"),
		ContextSize:   ints["context_size"],
		CaseSensitive: cs,
		Page:          ints["page"],
		PageSize:      ints["page_size"],
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, socket.NewSearchResult(resp))
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.View(r.PathValue("corpus"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, socket.NewViewResult(resp))
}

func (s *Server) handleSearchInFile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cs, err := queryBool(q.Get("case_sensitive"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.svc.Grep(concordance.GrepRequest{
		Corpus:        r.PathValue("corpus"),
		Query:         q.Get("query"),
		CaseSensitive: cs,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, socket.NewGrepResult(resp))
}

func (s *Server) handleCacheStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, socket.NewStatusResult(s.svc.Status()))
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if id := r.PathValue("corpus"); id != "" {
		ids = append(ids, id)
	}
	cleared := s.svc.Clear(ids...)
	s.logger.Info("cache cleared", "requested", ids, "cleared", cleared)
	writeJSON(w, http.StatusOK, socket.ClearResult{Cleared: cleared, Count: len(cleared)})
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps a wire error code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case socket.CodeInvalid:
		return http.StatusBadRequest
	case socket.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := socket.Classify(err)
	var pe *paramError
	if errors.As(err, &pe) {
		code = socket.CodeInvalid
	}
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", requestID(r), "err", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// paramError reports a query parameter that failed to parse.
type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.name, e.value)
}

// queryInts parses the named integer parameters; absent ones are 0.
func queryInts(get func(string) string, names ...string) (map[string]int, error) {
	out := make(map[string]int, len(names))
	for _, name := range names {
		raw := strings.TrimSpace(get(name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &paramError{name: name, value: raw}
		}
		// 0 means "use the default" inside the service; an explicit 0
		// from a client is an invalid value, not a request for it.
		if n == 0 {
			return nil, &paramError{name: name, value: raw}
		}
		out[name] = n
	}
	return out, nil
}

func queryBool(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &paramError{name: "case_sensitive", value: raw}
	}
	return b, nil
}
