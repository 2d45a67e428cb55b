package socket

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"runtime/debug"
	"sync"
	"time"
)

const (
	maxMessageBytes = 1 << 20
	connIdleTimeout = 2 * time.Minute
)

// Server accepts daemon connections on a Unix socket. Each connection
// carries any number of newline-delimited requests, answered in order.
type Server struct {
	handler  *Handler
	logger   *slog.Logger
	sockPath string
	listener net.Listener

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	closing      chan struct{}
	shutdownCh   chan struct{} // closed when a client sends "shutdown"
	shutdownOnce sync.Once
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewServer creates a daemon server answering through handler.
func NewServer(handler *Handler, sockPath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default().With("component", "socket")
	}
	return &Server{
		handler:    handler,
		logger:     logger,
		sockPath:   sockPath,
		conns:      make(map[net.Conn]struct{}),
		closing:    make(chan struct{}),
		shutdownCh: make(chan struct{}),
	}
}

// Start claims the socket path and begins accepting connections.
func (s *Server) Start() error {
	if err := claimSocket(s.sockPath); err != nil {
		return err
	}
	ln, err := net.Listen("unix", s.sockPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln

	s.wg.Add(1)
	go s.accept()

	s.logger.Info("socket listening", "path", s.sockPath)
	return nil
}

// claimSocket fails when a live daemon answers on path and removes the
// file when nothing does, so a crashed daemon never blocks a restart.
func claimSocket(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	conn, err := net.DialTimeout("unix", path, 500*time.Millisecond)
	if err == nil {
		conn.Close()
		return fmt.Errorf("daemon already running at %s", path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	return nil
}

// Stop closes the listener and every open connection, waits for in-flight
// requests and removes the socket file. Safe to call more than once.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.closing)
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Lock()
		for conn := range s.conns {
			conn.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
		os.Remove(s.sockPath)
	})
	return nil
}

// ShutdownCh is closed when a client asks the daemon to stop. The daemon's
// main goroutine selects on it next to OS signals.
func (s *Server) ShutdownCh() <-chan struct{} {
	return s.shutdownCh
}

// Addr returns the socket path.
func (s *Server) Addr() string {
	return s.sockPath
}

func (s *Server) accept() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closing:
				return
			default:
			}
			s.logger.Debug("accept failed", "err", err)
			continue
		}
		if !s.track(conn) {
			conn.Close()
			return
		}
		s.wg.Add(1)
		go s.serve(conn)
	}
}

// track registers conn unless the server is stopping.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.closing:
		return false
	default:
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

// serve answers requests on one connection until the client hangs up,
// stays idle past connIdleTimeout, or asks for shutdown.
func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)

	in := bufio.NewScanner(conn)
	in.Buffer(make([]byte, 64*1024), maxMessageBytes)
	out := bufio.NewWriter(conn)
	enc := json.NewEncoder(out)

	for {
		conn.SetReadDeadline(time.Now().Add(connIdleTimeout))
		if !in.Scan() {
			if err := in.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("connection closed", "err", err)
			}
			return
		}
		line := in.Bytes()
		if len(line) == 0 {
			continue
		}

		req, resp := s.answer(line)
		if err := enc.Encode(resp); err != nil {
			s.logger.Error("encode response", "method", req.Method, "err", err)
			return
		}
		if err := out.Flush(); err != nil {
			return
		}

		if req.Method == MethodShutdown {
			s.shutdownOnce.Do(func() { close(s.shutdownCh) })
			return
		}
	}
}

// answer decodes one request line and runs it through the handler. A panic
// in the handler becomes an internal error on this request only.
func (s *Server) answer(line []byte) (req Request, resp Response) {
	if err := json.Unmarshal(line, &req); err != nil {
		return req, Response{Error: "invalid request JSON", Code: CodeInvalid}
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("request panicked", "method", req.Method, "id", req.ID,
				"panic", r, "stack", string(debug.Stack()))
			resp = Response{ID: req.ID, Error: "internal error", Code: CodeInternal}
		}
	}()
	start := time.Now()
	resp = s.handler.Handle(req)
	s.logger.Debug("request", "method", req.Method, "id", req.ID,
		"code", resp.Code, "elapsed", time.Since(start))
	return req, resp
}
