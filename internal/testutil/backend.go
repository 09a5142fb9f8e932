// Package testutil provides a recording fake of the simulation backend
// shared by the client, wizard, server and cmd tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Call is one request received by the fake backend.
type Call struct {
	Method        string
	Path          string
	ContentType   string
	Authorization string
	Body          []byte
}

// JSON decodes the request body into a generic map.
func (c Call) JSON(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(c.Body, &m); err != nil {
		t.Fatalf("request to %s is not a JSON object: %v (%s)", c.Path, err, c.Body)
	}
	return m
}

// Backend is an httptest.Server that routes by exact path and records calls.
// Unrouted paths answer 404 with a FastAPI-style detail.
type Backend struct {
	*httptest.Server

	mu     sync.Mutex
	calls  []Call
	routes map[string]http.HandlerFunc
}

// NewBackend starts a fake backend closed automatically at test end.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{routes: make(map[string]http.HandlerFunc)}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Close)
	return b
}

// Handle routes path to h.
func (b *Backend) Handle(path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[path] = h
}

// Reply routes path to a fixed JSON response.
func (b *Backend) Reply(path string, status int, body any) {
	b.Handle(path, func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, status, body)
	})
}

// Calls returns every request received so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Call, len(b.calls))
	copy(out, b.calls)
	return out
}

// CallsTo returns the requests received on path.
func (b *Backend) CallsTo(path string) []Call {
	var out []Call
	for _, c := range b.Calls() {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	b.mu.Lock()
	b.calls = append(b.calls, Call{
		Method:        r.Method,
		Path:          r.URL.Path,
		ContentType:   r.Header.Get("Content-Type"),
		Authorization: r.Header.Get("Authorization"),
		Body:          body,
	})
	h, ok := b.routes[r.URL.Path]
	b.mu.Unlock()

	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
		return
	}
	h(w, r)
}

// WriteJSON writes body as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Creds is a static client.Credentials.
type Creds struct {
	Token  string
	APIKey string
}

func (c Creds) AccessToken() string { return c.Token }
func (c Creds) ChatAPIKey() string  { return c.APIKey }

// SimulationReply is a minimal successful single-asset result.
func SimulationReply(data ...float64) map[string]any {
	if len(data) == 0 {
		data = []float64{0.01, 0.02, 0.03, -0.01, 0.00}
	}
	return map[string]any{
		"summary_stats": map[string]any{
			"mean":            0.01,
			"std_dev":         0.015,
			"min":             -0.01,
			"max":             0.03,
			"percentile_5th":  -0.008,
			"percentile_50th": 0.01,
			"percentile_95th": 0.028,
		},
		"simulation_data":   data,
		"ai_recommendation": "Hold.",
	}
}
