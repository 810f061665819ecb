// Package router is a small method-aware HTTP router with wildcard segments,
// request logging and CORS.
package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

type paramsKey struct{}

type prefixRoute struct {
	prefix  string
	handler http.Handler
}

// Router dispatches METHOD:PATH routes. A "*" segment matches one path segment,
// a trailing "*" matches the rest of the path.
type Router struct {
	routes    map[string]HandlerFunc // key = METHOD:PATH
	paths     map[string]bool        // track registered paths
	wildcards []string               // wildcard paths in registration order
	prefixes  []prefixRoute
	origins   []string
	log       *slog.Logger
}

func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		routes: make(map[string]HandlerFunc),
		paths:  make(map[string]bool),
		log:    logger.With("component", "http"),
	}
}

// AllowOrigins enables CORS for the given origins; "*" allows any
func (r *Router) AllowOrigins(origins ...string) {
	r.origins = append(r.origins, origins...)
}

// ServeHTTP routes the request and logs one line for it
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	if r.cors(lrw, req) {
		r.dispatch(lrw, req)
	}

	r.log.Log(req.Context(), statusLevel(lrw.statusCode), "request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", lrw.statusCode,
		"duration", time.Since(start),
	)
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	key := req.Method + ":" + req.URL.Path
	if h, ok := r.routes[key]; ok {
		h(w, req)
		return
	}

	// First registered wildcard route wins
	methodMismatch := r.paths[req.URL.Path]
	for _, routePath := range r.wildcards {
		params, ok := matchWildcardRoute(req.URL.Path, routePath)
		if !ok {
			continue
		}
		h, ok := r.routes[req.Method+":"+routePath]
		if !ok {
			methodMismatch = true
			continue
		}
		h(w, req.WithContext(context.WithValue(req.Context(), paramsKey{}, params)))
		return
	}

	for _, p := range r.prefixes {
		if strings.HasPrefix(req.URL.Path, p.prefix) {
			p.handler.ServeHTTP(w, req)
			return
		}
	}

	if methodMismatch {
		// Path exists but method not allowed
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	http.Error(w, "Not Found", http.StatusNotFound)
}

// cors sets the CORS headers and reports whether the request should be routed
func (r *Router) cors(w http.ResponseWriter, req *http.Request) bool {
	origin := req.Header.Get("Origin")
	if origin == "" || len(r.origins) == 0 {
		return true
	}

	allowed := ""
	for _, o := range r.origins {
		if o == "*" || o == origin {
			allowed = o
			break
		}
	}
	if allowed == "" {
		return true
	}

	h := w.Header()
	h.Set("Access-Control-Allow-Origin", allowed)
	if allowed != "*" {
		h.Add("Vary", "Origin")
	}
	if req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != "" {
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Max-Age", "600")
		w.WriteHeader(http.StatusNoContent)
		return false
	}
	return true
}

// matchWildcardRoute checks if a request path matches a wildcard route pattern
// and returns the segments matched by each "*"
func matchWildcardRoute(requestPath, routePattern string) ([]string, bool) {
	requestSegments := strings.Split(strings.Trim(requestPath, "/"), "/")
	routeSegments := strings.Split(strings.Trim(routePattern, "/"), "/")

	last := len(routeSegments) - 1
	if routeSegments[last] == "*" {
		// trailing wildcard needs at least one remaining segment
		if len(requestSegments) <= last || requestSegments[last] == "" {
			return nil, false
		}
	} else if len(requestSegments) != len(routeSegments) {
		return nil, false
	}

	var params []string
	for i, routeSegment := range routeSegments {
		if routeSegment != "*" {
			if requestSegments[i] != routeSegment {
				return nil, false
			}
			continue
		}
		if requestSegments[i] == "" {
			return nil, false
		}
		if i == last {
			params = append(params, strings.Join(requestSegments[i:], "/"))
		} else {
			params = append(params, requestSegments[i])
		}
	}
	return params, true
}

// Params returns the path segments matched by the route's wildcards, in order
func Params(req *http.Request) []string {
	params, _ := req.Context().Value(paramsKey{}).([]string)
	return params
}

// Param returns the i-th wildcard segment or ""
func Param(req *http.Request, i int) string {
	params := Params(req)
	if i < 0 || i >= len(params) {
		return ""
	}
	return params[i]
}

// --- Register paths ---
func (r *Router) register(method, path string, handler HandlerFunc) {
	key := method + ":" + path
	if _, seen := r.paths[path]; !seen && strings.Contains(path, "*") {
		r.wildcards = append(r.wildcards, path)
	}
	r.routes[key] = handler
	r.paths[path] = true
}

func (r *Router) GET(path string, handler HandlerFunc) { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc) { r.register(http.MethodPost, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) {
	r.register(http.MethodDelete, path, handler)
}

// Handle mounts handler for every path under prefix, after exact and wildcard routes
func (r *Router) Handle(prefix string, handler http.Handler) {
	r.prefixes = append(r.prefixes, prefixRoute{prefix: prefix, handler: handler})
}

// Getter methods for testing
func (r *Router) Routes() map[string]HandlerFunc {
	return r.routes
}

func (r *Router) Paths() map[string]bool {
	return r.paths
}

// ServerOptions are the http.Server timeouts
type ServerOptions struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully
func (r *Router) Start(ctx context.Context, addr string, opts ServerOptions) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		r.log.Info("server started", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	r.log.Info("shutting down server", "timeout", opts.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// --- Logging response writer to capture status codes ---
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusLevel(code int) slog.Level {
	switch {
	case code >= 500:
		return slog.LevelError
	case code >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
