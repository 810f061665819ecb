package router

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchWildcardRoute(t *testing.T) {
	tests := []struct {
		path    string
		pattern string
		params  []string
		ok      bool
	}{
		{"/api/v1/runs/abc", "/api/v1/runs/*", []string{"abc"}, true},
		{"/api/v1/runs/abc/errors", "/api/v1/runs/*/errors", []string{"abc"}, true},
		{"/api/v1/runs/abc/logs", "/api/v1/runs/*/errors", nil, false},
		{"/api/v1/download/r1/forecast.csv", "/api/v1/download/*/*", []string{"r1", "forecast.csv"}, true},
		{"/swagger/index.html", "/swagger/*", []string{"index.html"}, true},
		{"/swagger/a/b", "/swagger/*", []string{"a/b"}, true},
		{"/swagger/", "/swagger/*", nil, false},
		{"/api/v1/runs", "/api/v1/runs/*", nil, false},
		{"/api/v2/runs/x", "/api/v1/runs/*", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path+" "+tt.pattern, func(t *testing.T) {
			params, ok := matchWildcardRoute(tt.path, tt.pattern)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.params, params)
		})
	}
}

func newTestRouter(buf io.Writer) *Router {
	return New(slog.New(slog.NewTextHandler(buf, nil)))
}

func serve(r *Router, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDispatch(t *testing.T) {
	var logs bytes.Buffer
	r := newTestRouter(&logs)

	r.GET("/api/v1/runs", func(w http.ResponseWriter, _ *http.Request) { io.WriteString(w, "list") })
	r.GET("/api/v1/runs/*/errors", func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, "errors:"+Param(req, 0))
	})
	r.GET("/api/v1/runs/*", func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, "run:"+Param(req, 0))
	})
	r.DELETE("/api/v1/runs/*", func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, "deleted:"+Param(req, 0))
	})
	r.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, "static:"+req.URL.Path)
	}))

	tests := []struct {
		method string
		target string
		code   int
		body   string
	}{
		{http.MethodGet, "/api/v1/runs", http.StatusOK, "list"},
		{http.MethodGet, "/api/v1/runs/r1", http.StatusOK, "run:r1"},
		{http.MethodGet, "/api/v1/runs/r1/errors", http.StatusOK, "errors:r1"},
		{http.MethodDelete, "/api/v1/runs/r1", http.StatusOK, "deleted:r1"},
		{http.MethodGet, "/static/app.js", http.StatusOK, "static:/static/app.js"},
		{http.MethodPost, "/api/v1/runs", http.StatusMethodNotAllowed, "Method Not Allowed"},
		{http.MethodPost, "/api/v1/runs/r1", http.StatusMethodNotAllowed, "Method Not Allowed"},
		{http.MethodGet, "/nowhere", http.StatusNotFound, "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := serve(r, tt.method, tt.target, nil)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.body, strings.TrimSpace(rec.Body.String()))
		})
	}

	assert.Contains(t, logs.String(), "path=/api/v1/runs/r1/errors")
	assert.Contains(t, logs.String(), "status=404")
	assert.Len(t, r.Routes(), 4)
	assert.Len(t, r.Paths(), 3)
}

func TestCORS(t *testing.T) {
	r := newTestRouter(io.Discard)
	r.AllowOrigins("http://localhost:3000")
	r.GET("/predict", func(w http.ResponseWriter, _ *http.Request) { io.WriteString(w, "ok") })

	t.Run("simple request", func(t *testing.T) {
		rec := serve(r, http.MethodGet, "/predict", http.Header{"Origin": {"http://localhost:3000"}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		rec := serve(r, http.MethodOptions, "/predict", http.Header{
			"Origin":                        {"http://localhost:3000"},
			"Access-Control-Request-Method": {"GET"},
		})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "GET, POST, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("other origin", func(t *testing.T) {
		rec := serve(r, http.MethodGet, "/predict", http.Header{"Origin": {"http://evil.example"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
