package socket

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/corey/kwic/internal/domain/concordance"
)

// Client talks to a kwic daemon over a Unix socket, or to an in-process
// Handler when built with NewLocalClient.
type Client struct {
	sockPath string
	local    *Handler
}

// NewClient creates a client that will connect to the given socket path.
func NewClient(sockPath string) *Client {
	return &Client{sockPath: sockPath}
}

// NewLocalClient creates a client answering from svc in this process.
// Requests still pass through the wire encoding, so results are identical
// to a daemon's.
func NewLocalClient(svc *concordance.Service, version string) *Client {
	return &Client{local: NewHandler(svc, version)}
}

// IsLocal reports whether the client answers in-process.
func (c *Client) IsLocal() bool { return c.local != nil }

// Search runs a KWIC search.
func (c *Client) Search(p SearchParams) (*SearchResult, error) {
	return callFor[SearchResult](c, MethodSearch, p)
}

// Grep runs an in-file search.
func (c *Client) Grep(p GrepParams) (*GrepResult, error) {
	return callFor[GrepResult](c, MethodGrep, p)
}

// View fetches a corpus's full text.
func (c *Client) View(corpus string) (*ViewResult, error) {
	return callFor[ViewResult](c, MethodView, ViewParams{Corpus: corpus})
}

// Corpora lists the corpora available to the daemon.
func (c *Client) Corpora() (*CorporaResult, error) {
	return callFor[CorporaResult](c, MethodCorpora, nil)
}

// Status reports the daemon's cached corpora.
func (c *Client) Status() (*StatusResult, error) {
	return callFor[StatusResult](c, MethodStatus, nil)
}

// Clear evicts corpora from the daemon's cache; none means all.
func (c *Client) Clear(corpora ...string) (*ClearResult, error) {
	return callFor[ClearResult](c, MethodClear, ClearParams{Corpora: corpora})
}

// Health sends a health check request.
func (c *Client) Health() (*HealthResult, error) {
	return callFor[HealthResult](c, MethodHealth, nil)
}

// Shutdown sends a shutdown request to the daemon.
func (c *Client) Shutdown() error {
	_, err := c.call(Request{ID: "1", Method: MethodShutdown})
	return err
}

// Ping checks if the daemon is reachable.
func (c *Client) Ping() bool {
	if c.local != nil {
		return true
	}
	conn, err := net.DialTimeout("unix", c.sockPath, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// callFor sends one request and decodes its result into T.
func callFor[T any](c *Client, method string, params interface{}) (*T, error) {
	resp, err := c.call(Request{ID: "1", Method: method, Params: params})
	if err != nil {
		return nil, err
	}
	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	var result T
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &result, nil
}

func (c *Client) call(req Request) (*Response, error) {
	if c.local != nil {
		return c.callLocal(req)
	}
	return c.callWithTimeout(req, 5*time.Second)
}

// callLocal round-trips the request through JSON so params arrive in the
// same generic form a socket peer would send.
func (c *Client) callLocal(req Request) (*Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	var wire Request
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	resp := c.local.Handle(wire)
	if resp.Error != "" {
		return nil, &Error{Code: resp.Code, Message: resp.Error}
	}
	return &resp, nil
}

func (c *Client) callWithTimeout(req Request, timeout time.Duration) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.sockPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	// Deadline covers the whole request/response
	conn.SetDeadline(time.Now().Add(timeout))

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024*1024), 64*1024*1024) // view responses carry whole corpora
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		return nil, fmt.Errorf("empty response")
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Error != "" {
		return nil, &Error{Code: resp.Code, Message: resp.Error}
	}
	return &resp, nil
}
