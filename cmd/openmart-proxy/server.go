package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/openmart-client/pkg/client"
	"github.com/Sternrassler/openmart-client/pkg/metrics"
	"github.com/Sternrassler/openmart-client/pkg/model"
	"github.com/Sternrassler/openmart-client/pkg/search"
)

// DefaultMaxResults bounds /search/all when no max parameter is given.
const DefaultMaxResults = 100

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openmart_proxy_http_requests_total",
			Help: "Proxy HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openmart_proxy_http_request_duration_seconds",
			Help:    "Proxy HTTP request duration by route",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)
)

// server serves the search surface over HTTP.
type server struct {
	search *search.Service
	redis  *redis.Client // nil without Redis
	logger zerolog.Logger

	// corsOrigins enables CORS for browser callers when non-empty.
	corsOrigins []string
}

func newRouter(s *server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(instrument)
	r.Use(middleware.Recoverer)

	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/search", func(r chi.Router) {
		r.Post("/", s.handleSearch)
		r.Post("/all", s.handleSearchAll)
		r.Post("/ids", s.handleSearchIDs)
		r.Post("/ids/all", s.handleSearchIDsAll)
	})

	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("Request finished")
	})
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

func (s *server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed: redis unreachable")
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	filter, ok := s.decodeFilter(w, r)
	if !ok {
		return
	}
	env, err := s.search.Query(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *server) handleSearchIDs(w http.ResponseWriter, r *http.Request) {
	filter, ok := s.decodeFilter(w, r)
	if !ok {
		return
	}
	env, err := s.search.OnlyIDs(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *server) handleSearchAll(w http.ResponseWriter, r *http.Request) {
	maxResults, ok := s.maxResults(w, r)
	if !ok {
		return
	}
	filter, ok := s.decodeFilter(w, r)
	if !ok {
		return
	}
	matches, err := s.search.All(r.Context(), filter, maxResults)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(matches))
}

func (s *server) handleSearchIDsAll(w http.ResponseWriter, r *http.Request) {
	maxResults, ok := s.maxResults(w, r)
	if !ok {
		return
	}
	filter, ok := s.decodeFilter(w, r)
	if !ok {
		return
	}
	ids, err := s.search.AllIDs(r.Context(), filter, maxResults)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(ids))
}

// decodeFilter reads the request body as a filter. An empty body is an
// empty filter.
func (s *server) decodeFilter(w http.ResponseWriter, r *http.Request) (model.Filter, bool) {
	var filter model.Filter

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		s.writeError(w, client.NewError(client.CodeRequest, "failed to read request body"))
		return filter, false
	}
	if len(data) > maxBodyBytes {
		s.writeError(w, client.NewError(client.CodeValidation, "request body too large"))
		return filter, false
	}
	if len(data) == 0 {
		return filter, true
	}
	if err := json.Unmarshal(data, &filter); err != nil {
		s.writeError(w, client.NewError(client.CodeValidation, "request body is not a valid filter: "+err.Error()))
		return filter, false
	}
	return filter, true
}

func (s *server) maxResults(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("max")
	if raw == "" {
		return DefaultMaxResults, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.writeError(w, client.NewError(client.CodeValidation, "max must be an integer"))
		return 0, false
	}
	return n, true
}

type errorResponse struct {
	Detail  string          `json:"detail"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details,omitempty"`
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)

	resp := errorResponse{Detail: err.Error(), Code: client.CodeUnknown}
	if e, ok := client.AsError(err); ok {
		resp = errorResponse{Detail: e.Message, Code: e.Code, Details: e.Details}
	}

	event := s.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = s.logger.Error()
	}
	event.Err(err).Int("status", status).Str("code", resp.Code).Msg("Search request failed")

	writeJSON(w, status, resp)
}

// statusFor maps a client error to the proxy's response status. Errors that
// came with an upstream status keep it.
func statusFor(err error) int {
	e, ok := client.AsError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusInternalServerError
	}
	if e.HasStatus() {
		return e.StatusCode
	}
	switch {
	case e.Code == client.CodeValidation:
		return http.StatusBadRequest
	case e.Class() == client.ErrorClassRateLimit:
		return http.StatusTooManyRequests
	case e.Class() == client.ErrorClassNetwork, e.Code == client.CodeInvalidResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
