package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/kwic/internal/adapters/ahocorasick"
	"github.com/corey/kwic/internal/adapters/dirstore"
	"github.com/corey/kwic/internal/adapters/socket"
	"github.com/corey/kwic/internal/domain/concordance"
	"github.com/corey/kwic/internal/domain/corpus"
)

const demoText = "The quick brown fox jumps over the lazy dog.\n" +
	"A fox is a small animal.\n" +
	"No canines here.\n"

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.txt"), []byte(demoText), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.txt"), []byte{0xff, 0xfe, 'x'}, 0644))

	store, err := dirstore.New(dir)
	require.NoError(t, err)
	svc := concordance.NewService(corpus.NewCache(store),
		concordance.WithFileExt(store.Ext()),
		concordance.WithLineFilter(ahocorasick.ForQuery),
	)
	ts := httptest.NewServer(NewServer(svc, WithVersion("test")).Handler())
	t.Cleanup(ts.Close)
	return ts
}

// getJSON fetches url and decodes the body into out, returning the response.
func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp
}

func TestStatusEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	var result statusResponse
	resp := getJSON(t, ts.URL+"/api", &result)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "running", result.Status)
	assert.Equal(t, "test", result.Version)
}

func TestHealthEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	var result socket.HealthResult
	resp := getJSON(t, ts.URL+"/api/health", &result)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, 0, result.Cached)
}

func TestCorporaEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	for _, path := range []string{"/api/corpora", "/corpora"} {
		var result socket.CorporaResult
		resp := getJSON(t, ts.URL+path, &result)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, []string{"broken", "demo"}, result.Corpora)
	}
}

func TestSearchEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	var result socket.SearchResult
	resp := getJSON(t, ts.URL+"/api/search?corpus=demo&query=fox&context_size=2", &result)
	require.Equal(t, 200, resp.StatusCode)

	assert.Equal(t, "fox", result.Query)
	assert.Equal(t, "demo", result.Corpus)
	assert.Equal(t, 2, result.TotalHits)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 50, result.PageSize)
	assert.Equal(t, 1, result.TotalPages)
	require.Len(t, result.Results, 2)
	assert.Equal(t, []string{"quick", "brown"}, result.Results[0].Left)
	assert.Equal(t, []string{"fox"}, result.Results[0].Match)
	assert.Equal(t, []string{"jumps", "over"}, result.Results[0].Right)
	assert.Equal(t, 1, result.Results[0].LineNumber)
}

func TestSearchEndpoint_WireShape(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/search?corpus=demo&query=the&page_size=1&page=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	for _, key := range []string{"query", "corpus", "results", "total_hits", "page", "page_size", "total_pages"} {
		assert.Contains(t, raw, key)
	}

	var hits []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["results"], &hits))
	require.Len(t, hits, 1)
	assert.JSONEq(t, `[]`, string(hits[0]["left"]), "match at line start has empty left context")
	assert.JSONEq(t, `["The"]`, string(hits[0]["match"]))
}

func TestSearchEndpoint_Errors(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name   string
		query  string
		status int
		code   string
	}{
		{"empty query", "corpus=demo&query=", 400, socket.CodeInvalid},
		{"blank query", "corpus=demo&query=%20%20", 400, socket.CodeInvalid},
		{"missing corpus", "query=fox", 400, socket.CodeInvalid},
		{"traversal", "corpus=..%2Fetc&query=fox", 400, socket.CodeInvalid},
		{"zero context", "corpus=demo&query=fox&context_size=0", 400, socket.CodeInvalid},
		{"negative context", "corpus=demo&query=fox&context_size=-3", 400, socket.CodeInvalid},
		{"context too large", "corpus=demo&query=fox&context_size=51", 400, socket.CodeInvalid},
		{"page size too large", "corpus=demo&query=fox&page_size=501", 400, socket.CodeInvalid},
		{"not a number", "corpus=demo&query=fox&page=two", 400, socket.CodeInvalid},
		{"bad bool", "corpus=demo&query=fox&case_sensitive=maybe", 400, socket.CodeInvalid},
		{"unknown corpus", "corpus=ghost&query=fox", 404, socket.CodeNotFound},
		{"undecodable corpus", "corpus=broken&query=fox", 500, socket.CodeLoad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorResponse
			resp := getJSON(t, ts.URL+"/api/search?"+tt.query, &body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestSearchEndpoint_CaseSensitive(t *testing.T) {
	ts := setupTestServer(t)

	var result socket.SearchResult
	getJSON(t, ts.URL+"/api/search?corpus=demo&query=The&case_sensitive=true", &result)
	require.Len(t, result.Results, 1)
	assert.Equal(t, []string{"The"}, result.Results[0].Match)

	getJSON(t, ts.URL+"/api/search?corpus=demo&query=The", &result)
	assert.Equal(t, 1, result.TotalHits, "first match per line only")
}

func TestViewEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	var result socket.ViewResult
	resp := getJSON(t, ts.URL+"/api/view/demo", &result)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "demo.txt", result.Filename)
	assert.Equal(t, strings.TrimSuffix(demoText, "\n"), result.Content)
	assert.Equal(t, 3, result.LineCount)
	assert.Equal(t, 18, result.WordCount)

	var errBody errorResponse
	resp = getJSON(t, ts.URL+"/view/ghost", &errBody)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestSearchInFileEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	var result socket.GrepResult
	resp := getJSON(t, ts.URL+"/api/search-in-file/demo?query=the", &result)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 1, result.TotalLinesMatched)
	assert.Equal(t, 2, result.TotalMatches)
	assert.False(t, result.CaseSensitive)
	assert.Equal(t, "The quick brown fox jumps over the lazy dog.", result.Results[0].Content)

	var errBody errorResponse
	resp = getJSON(t, ts.URL+"/search-in-file/demo?query=", &errBody)
	assert.Equal(t, 400, resp.StatusCode)
	resp = getJSON(t, ts.URL+"/search-in-file/ghost?query=fox", &errBody)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestCacheEndpoints(t *testing.T) {
	ts := setupTestServer(t)

	var status socket.StatusResult
	getJSON(t, ts.URL+"/api/cache", &status)
	assert.Equal(t, 0, status.Count)

	var sr socket.SearchResult
	getJSON(t, ts.URL+"/api/search?corpus=demo&query=fox", &sr)
	getJSON(t, ts.URL+"/api/search?corpus=demo&query=dog", &sr)

	getJSON(t, ts.URL+"/api/cache", &status)
	require.Equal(t, 1, status.Count)
	assert.Equal(t, "demo", status.Cached[0].ID)
	assert.Equal(t, uint64(2), status.Cached[0].AccessCount)
	assert.Equal(t, 1, status.Cached[0].Loads)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/cache/demo", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var cleared socket.ClearResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cleared))
	resp.Body.Close()
	assert.Equal(t, []string{"demo"}, cleared.Cleared)

	getJSON(t, ts.URL+"/api/cache", &status)
	assert.Equal(t, 0, status.Count)

	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/api/cache", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}

func TestCORSAndRequestID(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/api")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Len(t, resp.Header.Get("X-Request-Id"), 26, "ULID string")

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/search", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestIndexHTML(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	ct := resp.Header.Get("Content-Type")
	assert.True(t, strings.HasPrefix(ct, "text/html"), "content-type should be text/html, got %s", ct)
}

func TestServer_StartStop(t *testing.T) {
	dir := t.TempDir()
	store, err := dirstore.New(dir)
	require.NoError(t, err)
	portFile := filepath.Join(dir, "http.port")

	srv := NewServer(concordance.NewService(corpus.NewCache(store)), WithPortFile(portFile))
	require.NoError(t, srv.Start("127.0.0.1:0"))
	assert.NotZero(t, srv.Port())

	data, err := os.ReadFile(portFile)
	require.NoError(t, err)
	assert.NotEmpty(t, string(data))

	var result statusResponse
	getJSON(t, srv.URL()+"/api", &result)
	assert.Equal(t, "running", result.Status)

	srv.Stop()
	srv.Stop()
	_, err = os.Stat(portFile)
	assert.True(t, os.IsNotExist(err))
}
