package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/openmart-client/pkg/cache"
	"github.com/Sternrassler/openmart-client/pkg/ratelimit"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, baseURL string, mutate func(*Config)) *Client {
	t.Helper()

	logger := zerolog.Nop()
	cfg := DefaultConfig("test-key")
	cfg.BaseURL = baseURL
	cfg.Logger = &logger
	if mutate != nil {
		mutate(&cfg)
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		errorMsg string
	}{
		{
			name:   "valid config",
			config: DefaultConfig("key"),
		},
		{
			name:   "default base url",
			config: Config{APIKey: "key"},
		},
		{
			name:     "missing api key",
			config:   DefaultConfig(""),
			errorMsg: "api key is required",
		},
		{
			name:     "negative timeout",
			config:   Config{APIKey: "key", Timeout: -time.Second},
			errorMsg: "timeout must be >= 0",
		},
		{
			name:     "negative retries",
			config:   Config{APIKey: "key", MaxRetries: -1},
			errorMsg: "max_retries must be >= 0",
		},
		{
			name:     "relative base url",
			config:   Config{APIKey: "key", BaseURL: "/api"},
			errorMsg: "invalid base url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.config)
			if tt.errorMsg == "" {
				if err != nil {
					t.Fatalf("New() unexpected error = %v", err)
				}
				if c.Settings().BaseURL == "" {
					t.Error("BaseURL not set")
				}
				return
			}
			if err == nil {
				t.Fatal("New() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.errorMsg)
			}
		})
	}
}

func TestPost_SendsJSONWithHeaders(t *testing.T) {
	var gotHeader http.Header
	var gotBody map[string]any
	var gotPath, gotMethod string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		gotPath = r.URL.Path
		gotMethod = r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL+"/", func(cfg *Config) {
		cfg.Headers = map[string]string{"X-Trace": "abc"}
	})

	raw, err := c.Post(context.Background(), "/api/v1/search", map[string]any{"query": "coffee", "limit": 10})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if string(raw) != "[]" {
		t.Errorf("body = %s, want []", raw)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotPath != "/api/v1/search" {
		t.Errorf("path = %s, want /api/v1/search", gotPath)
	}
	checks := map[string]string{
		"X-API-Key":    "test-key",
		"Content-Type": "application/json",
		"X-Trace":      "abc",
		"User-Agent":   "openmart-client-go/" + Version,
	}
	for k, want := range checks {
		if got := gotHeader.Get(k); got != want {
			t.Errorf("header %s = %q, want %q", k, got, want)
		}
	}
	if gotBody["query"] != "coffee" || gotBody["limit"] != float64(10) {
		t.Errorf("body = %v", gotBody)
	}
}

func TestUpdateAPIKey(t *testing.T) {
	var lastKey atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastKey.Store(r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.Headers = map[string]string{"X-Trace": "abc"}
	})
	ctx := context.Background()

	if _, err := c.Post(ctx, "/api/v1/search", struct{}{}); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if got := lastKey.Load(); got != "test-key" {
		t.Errorf("first key = %v, want test-key", got)
	}

	c.UpdateAPIKey("rotated")

	if _, err := c.Post(ctx, "/api/v1/search", struct{}{}); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if got := lastKey.Load(); got != "rotated" {
		t.Errorf("second key = %v, want rotated", got)
	}

	s := c.Settings()
	if s.APIKey != "rotated" || s.Headers["X-Trace"] != "abc" {
		t.Errorf("Settings() = %+v", s)
	}
}

func TestPost_ServerErrorIsClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"not found","code":"NOT_FOUND","details":{"field":"x"}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)

	_, err := c.Post(context.Background(), "/api/v1/search", struct{}{})
	e, ok := AsError(err)
	if !ok {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if e.Message != "not found" || e.Code != "NOT_FOUND" || e.StatusCode != http.StatusNotFound {
		t.Errorf("error = %+v", e)
	}
	if string(e.Details) != `{"field":"x"}` {
		t.Errorf("Details = %s", e.Details)
	}
	if e.Class() != ErrorClassClient {
		t.Errorf("Class() = %s, want client", e.Class())
	}
}

func TestPost_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := newTestClient(t, url, nil)

	_, err := c.Post(context.Background(), "/api/v1/search", struct{}{})
	e, ok := AsError(err)
	if !ok {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if e.Code != CodeNetwork || e.HasStatus() {
		t.Errorf("error = %+v, want NETWORK_ERROR without status", e)
	}
}

func TestPost_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.Timeout = 50 * time.Millisecond
	})

	_, err := c.Post(context.Background(), "/api/v1/search", struct{}{})
	e, ok := AsError(err)
	if !ok || e.Code != CodeNetwork {
		t.Fatalf("error = %v, want NETWORK_ERROR", err)
	}
}

func TestPost_UnencodableBody(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1", nil)

	_, err := c.Post(context.Background(), "/api/v1/search", make(chan int))
	e, ok := AsError(err)
	if !ok {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if e.Code != CodeRequest || e.HasStatus() {
		t.Errorf("error = %+v, want REQUEST_ERROR", e)
	}
}

func TestPost_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.MaxRetries = 2
		cfg.InitialBackoff = time.Millisecond
	})

	if _, err := c.Post(context.Background(), "/api/v1/search", struct{}{}); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestPost_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)

	_, err := c.Post(context.Background(), "/api/v1/search", struct{}{})
	e, ok := AsError(err)
	if !ok || e.StatusCode != http.StatusInternalServerError || e.Code != CodeUnknown {
		t.Fatalf("error = %v, want UNKNOWN_ERROR with status 500", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestPost_Cache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"echo":` + string(body) + `}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.Cache = cache.NewManager(rdb)
		cfg.CacheTTL = time.Minute
	})
	ctx := context.Background()

	first, err := c.Post(ctx, "/api/v1/search", map[string]int{"limit": 1})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	second, err := c.Post(ctx, "/api/v1/search", map[string]int{"limit": 1})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("cached body = %s, want %s", second, first)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls after identical requests = %d, want 1", got)
	}

	if _, err := c.Post(ctx, "/api/v1/search", map[string]int{"limit": 2}); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls after different body = %d, want 2", got)
	}
}

type countingTransport struct {
	calls atomic.Int32
	next  http.RoundTripper
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return c.next.RoundTrip(r)
}

func TestNew_CustomHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	transport := &countingTransport{next: http.DefaultTransport}
	c := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.HTTPClient = &http.Client{Transport: transport}
	})

	if _, err := c.Post(context.Background(), "/api/v1/search", map[string]int{"limit": 1}); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if got := transport.calls.Load(); got != 1 {
		t.Errorf("custom transport calls = %d, want 1", got)
	}
}

func TestPost_CacheScopedByAPIKey(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"key":"` + r.Header.Get("X-API-Key") + `"}`))
	}))
	defer server.Close()

	shared := cache.NewManager(rdb)
	withCache := func(cfg *Config) {
		cfg.Cache = shared
		cfg.CacheTTL = time.Minute
	}
	a := newTestClient(t, server.URL, withCache)
	b := newTestClient(t, server.URL, func(cfg *Config) {
		withCache(cfg)
		cfg.APIKey = "other-key"
	})
	ctx := context.Background()
	body := map[string]int{"limit": 1}

	if _, err := a.Post(ctx, "/api/v1/search", body); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	got, err := b.Post(ctx, "/api/v1/search", body)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if string(got) != `{"key":"other-key"}` {
		t.Errorf("second tenant got %s, want its own response", got)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}

	a.UpdateAPIKey("rotated-key")
	got, err = a.Post(ctx, "/api/v1/search", body)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if string(got) != `{"key":"rotated-key"}` {
		t.Errorf("after key update got %s, want a fresh response", got)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls after key update = %d, want 3", n)
	}
}

func TestPost_RateLimiterBlocks(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set(ratelimit.HeaderRemaining, "0")
		w.Header().Set(ratelimit.HeaderReset, "60")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	tracker := ratelimit.NewTracker(nil, zerolog.Nop())
	c := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.RateLimiter = tracker
	})
	ctx := context.Background()

	if _, err := c.Post(ctx, "/api/v1/search", struct{}{}); err != nil {
		t.Fatalf("first Post() error = %v", err)
	}

	_, err := c.Post(ctx, "/api/v1/search", struct{}{})
	e, ok := AsError(err)
	if !ok || e.Code != CodeRateLimited {
		t.Fatalf("error = %v, want RATE_LIMITED", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}
