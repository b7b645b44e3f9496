// Package testutil provides an httptest-backed fake of the EPİAŞ CAS and
// transparency endpoints.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// TicketPath mirrors auth.TicketPath; duplicated to keep testutil import-free.
const TicketPath = "/cas/v1/tickets"

// MockResponse defines a canned response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// RecordedRequest is a request observed by the mock.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// MockEPIAS serves the CAS ticket endpoint and configurable data endpoints
// from one httptest.Server. Handlers for a path may be queued to script
// a sequence of responses (e.g. 401 then 200).
type MockEPIAS struct {
	server *httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	queues   map[string][]MockResponse
	requests []RecordedRequest

	ticketCount int
	ticketSeq   int
	ticketResp  *MockResponse
	ticketDelay time.Duration
}

// NewMockEPIAS starts a mock server. The default ticket handler issues
// TGT-1, TGT-2, ... on each call.
func NewMockEPIAS() *MockEPIAS {
	m := &MockEPIAS{
		handlers: make(map[string]http.HandlerFunc),
		queues:   make(map[string][]MockResponse),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// URL returns the base URL, usable as both auth URL and API base URL.
func (m *MockEPIAS) URL() string {
	return m.server.URL
}

// Close shuts the server down.
func (m *MockEPIAS) Close() {
	m.server.Close()
}

// SetHandler installs a handler for a path.
func (m *MockEPIAS) SetHandler(path string, h http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = h
}

// SetResponse installs a fixed response for a path.
func (m *MockEPIAS) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// QueueResponses scripts responses for a path; they are consumed in order
// before falling back to the installed handler.
func (m *MockEPIAS) QueueResponses(path string, resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[path] = append(m.queues[path], resps...)
}

// SetTicketResponse replaces the default ticket issuance with a fixed response.
func (m *MockEPIAS) SetTicketResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketResp = &resp
}

// SetTicketDelay holds every ticket response for d before answering.
func (m *MockEPIAS) SetTicketDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketDelay = d
}

// TicketCount returns how many ticket requests were served.
func (m *MockEPIAS) TicketCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticketCount
}

// Requests returns the data requests observed so far (ticket calls excluded).
func (m *MockEPIAS) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns the number of data requests for a path.
func (m *MockEPIAS) RequestCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

func (m *MockEPIAS) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	if r.URL.Path == TicketPath {
		m.serveTicket(w, r, body)
		return
	}

	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	var queued *MockResponse
	if q := m.queues[r.URL.Path]; len(q) > 0 {
		queued = &q[0]
		m.queues[r.URL.Path] = q[1:]
	}
	handler := m.handlers[r.URL.Path]
	m.mu.Unlock()

	switch {
	case queued != nil:
		writeResponse(w, *queued)
	case handler != nil:
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		handler(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (m *MockEPIAS) serveTicket(w http.ResponseWriter, r *http.Request, body []byte) {
	m.mu.Lock()
	m.ticketCount++
	m.ticketSeq++
	seq := m.ticketSeq
	fixed := m.ticketResp
	delay := m.ticketDelay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if fixed != nil {
		writeResponse(w, *fixed)
		return
	}
	if r.Method != http.MethodPost || !strings.Contains(string(body), "username=") {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusCreated)
	fmt.Fprintf(w, "TGT-%d-mock-cas\n", seq)
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != "" {
		io.WriteString(w, resp.Body)
	}
}

// JSON builds a 200 response from any JSON-marshalable value.
func JSON(v any) MockResponse {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return MockResponse{StatusCode: http.StatusOK, Body: string(data)}
}

// Status builds an empty-bodied response with the given status.
func Status(code int) MockResponse {
	return MockResponse{StatusCode: code, Body: fmt.Sprintf(`{"resultCode":"%d","resultDescription":"%s"}`, code, http.StatusText(code))}
}

// PagedHandler serves items from the request's page descriptor in the
// EPİAŞ envelope shape {body:{content:[...], page:{number,size,total}}}.
// A request without a page descriptor receives every item in one page.
func PagedHandler(items []map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Page *struct {
				Number int `json:"number"`
				Size   int `json:"size"`
			} `json:"page"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if items == nil {
			items = []map[string]any{}
		}

		number, size := 1, len(items)
		if req.Page != nil {
			number, size = req.Page.Number, req.Page.Size
		}
		start := (number - 1) * size
		end := start + size
		if start > len(items) {
			start = len(items)
		}
		if end > len(items) {
			end = len(items)
		}

		writeResponse(w, JSON(map[string]any{
			"resultCode":        "0",
			"resultDescription": "success",
			"body": map[string]any{
				"content": items[start:end],
				"page": map[string]any{
					"number": number,
					"size":   size,
					"total":  len(items),
				},
			},
		}))
	}
}
