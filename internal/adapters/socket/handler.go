package socket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/corey/kwic/internal/domain/concordance"
)

// Handler dispatches protocol requests to a concordance service. It holds
// no connection state, so the socket server and the in-process client
// share it and answer identically.
type Handler struct {
	svc     *concordance.Service
	started time.Time
	version string
}

// NewHandler creates a Handler over svc.
func NewHandler(svc *concordance.Service, version string) *Handler {
	return &Handler{svc: svc, started: time.Now(), version: version}
}

// Handle answers one request. Shutdown is acknowledged here; acting on it
// is up to the transport.
func (h *Handler) Handle(req Request) Response {
	switch req.Method {
	case MethodSearch:
		return h.handleSearch(req)
	case MethodGrep:
		return h.handleGrep(req)
	case MethodView:
		return h.handleView(req)
	case MethodCorpora:
		return h.handleCorpora(req)
	case MethodStatus:
		return Response{ID: req.ID, Result: NewStatusResult(h.svc.Status())}
	case MethodClear:
		return h.handleClear(req)
	case MethodHealth:
		return Response{ID: req.ID, Result: NewHealthResult(h.svc, time.Since(h.started), h.version)}
	case MethodShutdown:
		return Response{ID: req.ID, Result: struct{}{}}
	default:
		return Response{ID: req.ID, Error: fmt.Sprintf("unknown method: %s", req.Method), Code: CodeInvalid}
	}
}

func (h *Handler) handleSearch(req Request) Response {
	var p SearchParams
	if err := decodeParams(req.Params, &p); err != nil {
		return invalidParams(req, "search")
	}
	resp, err := h.svc.Search(concordance.SearchRequest{
		Corpus:        p.Corpus,
		Query:         p.Query,
		ContextSize:   p.ContextSize,
		CaseSensitive: p.CaseSensitive,
		Page:          p.Page,
		PageSize:      p.PageSize,
	})
	if err != nil {
		return errorResponse(req, err)
	}
	return Response{ID: req.ID, Result: NewSearchResult(resp)}
}

func (h *Handler) handleGrep(req Request) Response {
	var p GrepParams
	if err := decodeParams(req.Params, &p); err != nil {
		return invalidParams(req, "grep")
	}
	resp, err := h.svc.Grep(concordance.GrepRequest{
		Corpus:        p.Corpus,
		Query:         p.Query,
		CaseSensitive: p.CaseSensitive,
	})
	if err != nil {
		return errorResponse(req, err)
	}
	return Response{ID: req.ID, Result: NewGrepResult(resp)}
}

func (h *Handler) handleView(req Request) Response {
	var p ViewParams
	if err := decodeParams(req.Params, &p); err != nil {
		return invalidParams(req, "view")
	}
	resp, err := h.svc.View(p.Corpus)
	if err != nil {
		return errorResponse(req, err)
	}
	return Response{ID: req.ID, Result: NewViewResult(resp)}
}

func (h *Handler) handleCorpora(req Request) Response {
	ids, err := h.svc.Corpora()
	if err != nil {
		return errorResponse(req, err)
	}
	return Response{ID: req.ID, Result: CorporaResult{Corpora: ids, Count: len(ids)}}
}

func (h *Handler) handleClear(req Request) Response {
	var p ClearParams
	if req.Params != nil {
		if err := decodeParams(req.Params, &p); err != nil {
			return invalidParams(req, "clear")
		}
	}
	cleared := h.svc.Clear(p.Corpora...)
	return Response{ID: req.ID, Result: ClearResult{Cleared: cleared, Count: len(cleared)}}
}

// decodeParams re-marshals generic params into a typed struct.
func decodeParams(raw interface{}, dst interface{}) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func invalidParams(req Request, method string) Response {
	return Response{ID: req.ID, Error: fmt.Sprintf("invalid %s params", method), Code: CodeInvalid}
}

func errorResponse(req Request, err error) Response {
	return Response{ID: req.ID, Error: err.Error(), Code: Classify(err)}
}
