package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/cpctree/internal/builder"
	"github.com/dgallion1/cpctree/internal/config"
	"github.com/dgallion1/cpctree/internal/metrics"
	"github.com/dgallion1/cpctree/internal/scheme"
	"github.com/dgallion1/cpctree/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScheme = `<cpc-scheme>
    <classification-item>
        <classification-symbol>A</classification-symbol>
        <class-title><title-part><text>HUMAN NECESSITIES</text></title-part></class-title>
        <classification-item>
            <classification-symbol>A01</classification-symbol>
            <class-title><title-part><text>AGRICULTURE</text></title-part></class-title>
        </classification-item>
    </classification-item>
    <classification-item>
        <classification-symbol>B</classification-symbol>
        <class-title><title-part><text>PERFORMING OPERATIONS</text></title-part></class-title>
    </classification-item>
</cpc-scheme>`

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestServer(t *testing.T, apiKey string, build bool) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, scheme.RootFile), []byte(testScheme), 0o644))

	store := NewStore(builder.New(dir), metrics.NewLatencyStats(time.Hour), discard)
	if build {
		_, err := store.Rebuild(context.Background())
		require.NoError(t, err)
	}
	cfg := config.Config{APIKey: apiKey}
	return NewServer(store, discard, cfg), dir
}

func do(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, "secret", false)
	rec := do(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuth(t *testing.T) {
	srv, _ := newTestServer(t, "secret", true)

	rec := do(t, srv, http.MethodGet, "/api/symbols", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/symbols", http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/symbols", http.Header{"Authorization": {"Bearer secret"}})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSymbols(t *testing.T) {
	srv, _ := newTestServer(t, "", true)
	rec := do(t, srv, http.MethodGet, "/api/symbols", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"symbols":["A","B"]}`, rec.Body.String())
}

func TestTree(t *testing.T) {
	srv, _ := newTestServer(t, "", true)
	rec := do(t, srv, http.MethodGet, "/api/tree", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	nodes, err := tree.DecodeJSON(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "AGRICULTURE", nodes["A"].Children["A01"].Title)
	assert.Equal(t, "PERFORMING OPERATIONS", nodes["B"].Title)
}

func TestTree_NotBuilt(t *testing.T) {
	srv, _ := newTestServer(t, "", false)
	for _, target := range []string{"/api/tree", "/api/symbols", "/api/node?path=A", "/api/export"} {
		rec := do(t, srv, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
	}
}

func TestNode(t *testing.T) {
	srv, _ := newTestServer(t, "", true)

	rec := do(t, srv, http.MethodGet, "/api/node?path=A&path=A01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"title":"AGRICULTURE"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/node?path=A01", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "lookup is by direct key, not by search")

	rec = do(t, srv, http.MethodGet, "/api/node?path=A&path=A02", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/node", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport(t *testing.T) {
	srv, _ := newTestServer(t, "", true)

	rec := do(t, srv, http.MethodGet, "/api/export?format=markdown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "- **A** HUMAN NECESSITIES\n  - **A01** AGRICULTURE\n- **B** PERFORMING OPERATIONS\n", rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/export?format=html", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>A01</strong>")

	rec = do(t, srv, http.MethodGet, "/api/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRebuild(t *testing.T) {
	srv, dir := newTestServer(t, "", true)

	updated := strings.Replace(testScheme, "PERFORMING OPERATIONS", "TRANSPORTING", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, scheme.RootFile), []byte(updated), 0o644))

	rec := do(t, srv, http.MethodPost, "/api/rebuild", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TopLevel int `json:"top_level"`
		Nodes    int `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.TopLevel)
	assert.Equal(t, 3, body.Nodes)

	rec = do(t, srv, http.MethodGet, "/api/node?path=B", nil)
	assert.JSONEq(t, `{"title":"TRANSPORTING"}`, rec.Body.String())
}

func TestRebuild_FailureKeepsPreviousTree(t *testing.T) {
	srv, dir := newTestServer(t, "", true)

	require.NoError(t, os.WriteFile(filepath.Join(dir, scheme.RootFile), []byte("<cpc-scheme>"), 0o644))
	rec := do(t, srv, http.MethodPost, "/api/rebuild", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/symbols", nil)
	assert.JSONEq(t, `{"symbols":["A","B"]}`, rec.Body.String())

	require.NoError(t, os.Remove(filepath.Join(dir, scheme.RootFile)))
	rec = do(t, srv, http.MethodPost, "/api/rebuild", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuildStats(t *testing.T) {
	srv, _ := newTestServer(t, "", true)
	do(t, srv, http.MethodPost, "/api/rebuild", nil)

	rec := do(t, srv, http.MethodGet, "/api/stats/build", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Latency metrics.Snapshot `json:"latency"`
		Builder builder.Stats    `json:"builder"`
		BuiltAt *time.Time       `json:"built_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Latency.Count)
	assert.Equal(t, int64(6), body.Builder.ItemsParsed)
	assert.NotNil(t, body.BuiltAt)
}
