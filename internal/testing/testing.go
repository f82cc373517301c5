// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
)

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// ScriptedRoundTripper replays a fixed sequence of responses and records
// every request it sees, in order. Safe for concurrent use.
type ScriptedRoundTripper struct {
	mu        sync.Mutex
	responses []*http.Response
	errs      []error
	Requests  []*http.Request
}

func NewScriptedRoundTripper() *ScriptedRoundTripper {
	return &ScriptedRoundTripper{}
}

// Append queues one response (or error) for the next request.
func (s *ScriptedRoundTripper) Append(r *http.Response, err error) *ScriptedRoundTripper {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, r)
	s.errs = append(s.errs, err)
	return s
}

func (s *ScriptedRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, req)
	if len(s.responses) == 0 {
		return nil, errors.New("scripted round tripper exhausted")
	}

	resp, err := s.responses[0], s.errs[0]
	s.responses, s.errs = s.responses[1:], s.errs[1:]
	return resp, err
}

// JSONResponse builds an *http.Response with a JSON body for test doubles.
func JSONResponse(status int, payload any) *http.Response {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(data)),
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MustJSON marshals v or fails the test.
func MustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal %v: %v", v, err)
	}
	return data
}
