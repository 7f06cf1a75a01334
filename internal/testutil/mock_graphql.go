// Package testutil provides testing utilities for the whitelist tools.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines one canned response of the mock GraphQL endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// Edge is one transaction edge in a canned page.
type Edge struct {
	Cursor  string
	Address string
}

// RecordedRequest is what the mock saw for a single POST.
type RecordedRequest struct {
	Query  string
	After  *string
	Header http.Header
}

// MockGraphQL is a configurable mock GraphQL server. Responses are served
// in the order they were queued; once the queue is drained every request
// gets an empty page.
type MockGraphQL struct {
	server *httptest.Server
	mu     sync.RWMutex

	queue    []MockResponse
	handler  func(w http.ResponseWriter, r *http.Request)
	requests []RecordedRequest
}

// NewMockGraphQL creates a new mock GraphQL server.
func NewMockGraphQL() *MockGraphQL {
	mock := &MockGraphQL{}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.record(r)

		mock.mu.RLock()
		handler := mock.handler
		mock.mu.RUnlock()

		if handler != nil {
			handler(w, r)
			return
		}

		mock.serve(w, mock.next())
	}))

	return mock
}

// URL returns the GraphQL endpoint URL of the mock server.
func (m *MockGraphQL) URL() string {
	return m.server.URL + "/graphql"
}

// Close shuts down the mock server.
func (m *MockGraphQL) Close() {
	m.server.Close()
}

// Reset clears queued responses and recorded requests.
func (m *MockGraphQL) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = nil
	m.requests = nil
	m.handler = nil
}

// Enqueue appends responses to be served in order.
func (m *MockGraphQL) Enqueue(resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resps...)
}

// SetHandler replaces the queue with a custom handler.
func (m *MockGraphQL) SetHandler(handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGraphQL) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// GetRequests returns a copy of the recorded requests.
func (m *MockGraphQL) GetRequests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockGraphQL) record(r *http.Request) {
	var body struct {
		Query     string `json:"query"`
		Variables struct {
			After *string `json:"after"`
		} `json:"variables"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, RecordedRequest{
		Query:  body.Query,
		After:  body.Variables.After,
		Header: r.Header.Clone(),
	})
}

func (m *MockGraphQL) next() MockResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return NewPageResponse()
	}
	resp := m.queue[0]
	m.queue = m.queue[1:]
	return resp
}

func (m *MockGraphQL) serve(w http.ResponseWriter, resp MockResponse) {
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

// PageBody renders a transactions page in the gateway's response shape.
func PageBody(edges ...Edge) string {
	type owner struct {
		Address string `json:"address"`
	}
	type node struct {
		Owner owner `json:"owner"`
	}
	type edge struct {
		Cursor string `json:"cursor"`
		Node   node   `json:"node"`
	}

	out := make([]edge, 0, len(edges))
	for _, e := range edges {
		out = append(out, edge{Cursor: e.Cursor, Node: node{Owner: owner{Address: e.Address}}})
	}

	body, err := json.Marshal(map[string]any{
		"data": map[string]any{
			"transactions": map[string]any{
				"edges": out,
			},
		},
	})
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal page: %v", err))
	}
	return string(body)
}

// NewPageResponse creates a 200 OK response carrying the given edges.
func NewPageResponse(edges ...Edge) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       PageBody(edges...),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewErrorsResponse creates a 200 OK response with a GraphQL "errors" member.
func NewErrorsResponse(message string) MockResponse {
	body, _ := json.Marshal(map[string]any{
		"errors": []map[string]string{{"message": message}},
	})
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers: map[string]string{
			"Retry-After": "30",
		},
	}
}

// NewMalformedResponse creates a 200 OK response whose body is not JSON.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `<html>gateway error</html>`,
		Headers: map[string]string{
			"Content-Type": "text/html",
		},
	}
}
