// Package testutil provides a simulated OpenMart search service for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Search routes served by the mock.
const (
	PathSearch  = "/api/v1/search"
	PathOnlyIDs = "/api/v1/search/only_ids"
)

var recordNamespace = uuid.MustParse("6f1c1f54-6a43-4a6e-9d43-2b8f0c7e6a10")

// MockResponse defines a canned response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest is one request received by the mock.
type RecordedRequest struct {
	Path   string
	Header http.Header
	Body   []byte
}

// Decode unmarshals the request body into v.
func (r RecordedRequest) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// MockOpenMart serves a fixed, ordered result set over both search routes
// with cursor pagination. Record i has store id StoreID(i) and the cursor
// [i, "<store id>"].
type MockOpenMart struct {
	server *httptest.Server

	mu        sync.RWMutex
	records   int
	remaining int
	handlers  map[string]http.HandlerFunc
	failures  map[int]MockResponse
	requests  []RecordedRequest
}

// NewMockOpenMart starts a mock serving records results.
func NewMockOpenMart(records int) *MockOpenMart {
	mock := &MockOpenMart{
		records:   records,
		remaining: 1000,
		handlers:  make(map[string]http.HandlerFunc),
		failures:  make(map[int]MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mock.mu.Lock()
		mock.requests = append(mock.requests, RecordedRequest{
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		n := len(mock.requests)
		failure, fail := mock.failures[n]
		handler, custom := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if fail {
			writeResponse(w, failure)
			return
		}
		if custom {
			handler(w, r)
			return
		}
		mock.search(w, r, body)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockOpenMart) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockOpenMart) Close() {
	m.server.Close()
}

// Reset clears recorded requests and injected failures.
func (m *MockOpenMart) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.failures = make(map[int]MockResponse)
}

// SetRecords changes the size of the result set.
func (m *MockOpenMart) SetRecords(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = n
}

// SetRemaining sets the X-RateLimit-Remaining value sent with results.
func (m *MockOpenMart) SetRemaining(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remaining = n
}

// SetHandler overrides the handler for a path.
func (m *MockOpenMart) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse makes a path always answer with resp.
func (m *MockOpenMart) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// FailRequest makes the n-th request (1-based, counted from the last
// Reset) answer with resp.
func (m *MockOpenMart) FailRequest(n int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[n] = resp
}

// Requests returns a copy of the recorded requests.
func (m *MockOpenMart) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockOpenMart) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// StoreID is the store id of record i.
func StoreID(i int) uuid.UUID {
	return uuid.NewSHA1(recordNamespace, []byte(strconv.Itoa(i)))
}

type searchBody struct {
	Limit         *int            `json:"limit"`
	Cursor        json.RawMessage `json:"cursor"`
	EstimateTotal bool            `json:"estimate_total"`
}

func (m *MockOpenMart) search(w http.ResponseWriter, r *http.Request, body []byte) {
	if r.URL.Path != PathSearch && r.URL.Path != PathOnlyIDs {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "Method Not Allowed"})
		return
	}
	if r.Header.Get("X-API-Key") == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Missing API key", "code": "UNAUTHORIZED"})
		return
	}

	var req searchBody
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid body", "code": "INVALID_BODY"})
		return
	}
	limit := 50
	if req.Limit != nil {
		limit = *req.Limit
	}

	start := 0
	if len(req.Cursor) > 0 && string(req.Cursor) != "null" {
		var pos []json.RawMessage
		if err := json.Unmarshal(req.Cursor, &pos); err != nil || len(pos) != 2 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed cursor", "code": "INVALID_CURSOR"})
			return
		}
		i, err := strconv.Atoi(string(pos[0]))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed cursor", "code": "INVALID_CURSOR"})
			return
		}
		start = i + 1
	}

	m.mu.RLock()
	total, remaining := m.records, m.remaining
	m.mu.RUnlock()

	end := min(start+limit, total)
	items := make([]any, 0, max(end-start, 0))
	for i := start; i < end; i++ {
		if r.URL.Path == PathOnlyIDs {
			items = append(items, idResult(i))
		} else {
			items = append(items, match(i))
		}
	}

	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", "60")

	if req.EstimateTotal {
		writeJSON(w, http.StatusOK, map[string]any{"data": items, "total_count": total})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func cursor(i int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`[%d,%q]`, i, StoreID(i)))
}

func idResult(i int) map[string]any {
	return map[string]any{
		"id":          StoreID(i),
		"place_id":    fmt.Sprintf("place-%d", i),
		"match_score": 1 - float64(i)/1e6,
		"cursor":      cursor(i),
	}
}

// match builds record i. Even records carry staff and a business name;
// every third record has features.
func match(i int) map[string]any {
	content := map[string]any{
		"store_id":     StoreID(i),
		"store_name":   fmt.Sprintf("Store %d", i),
		"store_emails": []string{},
		"store_phones": []string{},
		"from_sources": map[string]any{},
		"tags":         []string{},
		"place_key":    fmt.Sprintf("pk-%d", i),
		"latitude":     37.77,
		"longitude":    -122.42,
		"city":         "San Francisco",
		"state":        "CA",
		"country":      "US",
	}
	if i%2 == 0 {
		content["business_name"] = fmt.Sprintf("Business %d", i)
		content["staffs"] = []map[string]string{{"name": fmt.Sprintf("Owner %d", i), "role": "owner"}}
	}
	if i%3 == 0 {
		content["features"] = map[string][]string{"wifi": {"free"}}
	}
	return map[string]any{
		"id":               StoreID(i).String(),
		"content":          content,
		"match_score":      1 - float64(i)/1e6,
		"match_highlights": []string{},
		"cursor":           cursor(i),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewErrorResponse creates an error response in the service's error format.
func NewErrorResponse(status int, detail, code string) MockResponse {
	body, _ := json.Marshal(map[string]string{"detail": detail, "code": code})
	return MockResponse{
		StatusCode: status,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse(retryAfter int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"detail": "Rate limit exceeded", "code": "RATE_LIMITED"}`,
		Headers: map[string]string{
			"Retry-After":  strconv.Itoa(retryAfter),
			"Content-Type": "application/json",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
