// Package client provides the HTTP transport for the OpenMart API: request
// dispatch, API key injection, error classification, optional caching,
// rate-limit gating and retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/openmart-client/pkg/cache"
	"github.com/Sternrassler/openmart-client/pkg/logging"
	"github.com/Sternrassler/openmart-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the production API.
const DefaultBaseURL = "https://api.openmart.ai"

// Version is sent in the User-Agent header.
const Version = "0.1.0"

// Prometheus metrics for API requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openmart_requests_total",
		Help: "Total OpenMart API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "openmart_request_duration_seconds",
		Help:    "OpenMart API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openmart_errors_total",
		Help: "Total OpenMart API errors by class",
	}, []string{"class"})

	requestRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openmart_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "openmart_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openmart_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

var tracer = otel.Tracer("github.com/Sternrassler/openmart-client/pkg/client")

// ErrorClass groups errors for observability and retry decisions.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses and local rate-limit blocks.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents requests that got no response.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassLocal represents failures before anything was sent.
	ErrorClassLocal ErrorClass = "local"
)

// Config holds the client configuration.
type Config struct {
	// APIKey is sent as X-API-Key (REQUIRED).
	APIKey string

	// BaseURL overrides DefaultBaseURL.
	BaseURL string

	// Headers are added to every request and may override the defaults.
	Headers map[string]string

	// Timeout bounds each HTTP attempt. Zero disables the client-side timeout.
	Timeout time.Duration

	// HTTPClient is used for requests; http.DefaultClient's settings when nil.
	HTTPClient *http.Client

	// Caching (optional)
	Cache    *cache.Manager
	CacheTTL time.Duration

	// RateLimiter gates requests on the service's rate-limit headers (optional).
	RateLimiter *ratelimit.Tracker

	// Retry. MaxRetries is the number of extra attempts for network, 5xx
	// and 429 failures; zero means one attempt only.
	MaxRetries     int
	InitialBackoff time.Duration

	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a default configuration for the given API key.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:         apiKey,
		BaseURL:        DefaultBaseURL,
		Timeout:        30 * time.Second,
		CacheTTL:       5 * time.Minute,
		MaxRetries:     0,
		InitialBackoff: 1 * time.Second,
	}
}

// Settings is the per-request configuration snapshot. Requests read the
// snapshot current at dispatch; later updates do not affect them.
type Settings struct {
	APIKey  string
	BaseURL string
	Headers map[string]string
	Timeout time.Duration
}

func (s *Settings) clone() *Settings {
	out := *s
	out.Headers = maps.Clone(s.Headers)
	return &out
}

// Client is the OpenMart API transport.
type Client struct {
	httpClient  *http.Client
	settings    atomic.Pointer[Settings]
	cache       *cache.Manager
	cacheTTL    time.Duration
	rateLimiter *ratelimit.Tracker
	retry       RetryConfig
	logger      zerolog.Logger
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}

	logger := logging.NewLogger(logging.ComponentClient)
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", logging.ComponentClient).Logger()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	retry := DefaultRetryConfig()
	retry.MaxAttempts = cfg.MaxRetries + 1
	if cfg.InitialBackoff > 0 {
		retry.InitialBackoff = cfg.InitialBackoff
	}

	c := &Client{
		httpClient:  httpClient,
		cache:       cfg.Cache,
		cacheTTL:    cfg.CacheTTL,
		rateLimiter: cfg.RateLimiter,
		retry:       retry,
		logger:      logger,
	}
	c.settings.Store(&Settings{
		APIKey:  cfg.APIKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Headers: maps.Clone(cfg.Headers),
		Timeout: cfg.Timeout,
	})

	return c, nil
}

// UpdateAPIKey replaces the API key for all subsequent requests.
func (c *Client) UpdateAPIKey(apiKey string) {
	for {
		old := c.settings.Load()
		next := old.clone()
		next.APIKey = apiKey
		if c.settings.CompareAndSwap(old, next) {
			c.logger.Info().Msg("API key updated")
			return
		}
	}
}

// Settings returns a copy of the current configuration snapshot.
func (c *Client) Settings() Settings {
	return *c.settings.Load().clone()
}

// Post sends body as JSON to path and returns the raw response body.
// Every returned error is an *Error.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	s := c.settings.Load()

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(path).Observe(time.Since(startTime).Seconds())
	}()

	ctx, span := tracer.Start(ctx, "openmart.post",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("openmart.endpoint", path)))
	defer span.End()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, c.fail(span, path, Classify(fmt.Errorf("encode request body: %w", err)))
	}

	key := cache.Key{Endpoint: path, Scope: s.APIKey, Body: payload}
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			c.logger.Debug().Str("endpoint", path).Msg("Cache hit")
			span.SetAttributes(attribute.Bool("openmart.cache_hit", true))
			requestsTotal.WithLabelValues(path, "cached").Inc()
			return entry.Data, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", path).Msg("Cache get error")
		}
	}

	if c.rateLimiter != nil {
		allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Rate limit check failed, allowing request")
		} else if !allowed {
			c.logger.Warn().Str("endpoint", path).Msg("Request blocked by rate limiter")
			requestsTotal.WithLabelValues(path, "rate_limited").Inc()
			return nil, c.fail(span, path, NewError(CodeRateLimited, "request blocked: rate limit exhausted"))
		}
	}

	c.logger.Debug().
		Str("endpoint", path).
		Int("body_bytes", len(payload)).
		Msg("Executing OpenMart request")

	var data []byte
	cerr := retryWithBackoff(ctx, c.retry, c.logger, func(attempt int) *Error {
		d, ferr := c.roundTrip(ctx, s, path, payload)
		if ferr != nil {
			e := Classify(ferr)
			errorsTotal.WithLabelValues(string(e.Class())).Inc()
			return e
		}
		data = d
		return nil
	})
	if cerr != nil {
		return nil, c.fail(span, path, cerr)
	}

	if c.cache != nil && c.cacheTTL > 0 {
		if err := c.cache.Set(ctx, key, cache.NewEntry(data, c.cacheTTL)); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return data, nil
}

// roundTrip performs one HTTP attempt. Failures are returned unclassified.
func (c *Client) roundTrip(ctx context.Context, s *Settings, path string, payload []byte) ([]byte, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "openmart-client-go/"+Version)
	req.Header.Set("X-API-Key", s.APIKey)
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", path).Msg("HTTP request failed")
		requestsTotal.WithLabelValues(path, "network_error").Inc()
		return nil, &NoResponseFailure{Err: err}
	}
	defer resp.Body.Close()

	if c.rateLimiter != nil {
		if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.StatusCode, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues(path, "network_error").Inc()
		return nil, &NoResponseFailure{Err: fmt.Errorf("read response body: %w", err)}
	}

	requestsTotal.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().
			Str("endpoint", path).
			Int("status", resp.StatusCode).
			Msg("OpenMart request error")
		return nil, &ResponseFailure{StatusCode: resp.StatusCode, Body: body}
	}

	return body, nil
}

func (c *Client) fail(span trace.Span, path string, e *Error) *Error {
	span.RecordError(e)
	span.SetStatus(codes.Error, e.Code)
	if e.StatusCode != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", e.StatusCode))
	}
	c.logger.Debug().
		Str("endpoint", path).
		Str("code", e.Code).
		Int("status", e.StatusCode).
		Str("error_class", string(e.Class())).
		Msg("Request failed")
	return e
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
