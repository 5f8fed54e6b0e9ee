// Package test holds fakes shared by the request, watch, and exec test
// suites: a scriptable HTTP transport and (in spdy_server.go) a real SPDY
// server for exec-channel tests, adapted from this corpus's httptest-based
// mock Kubernetes API server pattern.
package test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/kubecli/kubecli/pkg/request"
)

// FakeTransport records every outbound *http.Request it sees and
// delegates to a handler function for the response, implementing
// request.Transport so it can stand in for the transport boundary in
// tests.
type FakeTransport struct {
	mu       sync.Mutex
	Requests []*http.Request
	Handler  func(req *http.Request) (*http.Response, error)
}

var _ request.Transport = (*FakeTransport)(nil)

// NewFakeTransport returns a FakeTransport that always invokes handler.
func NewFakeTransport(handler func(req *http.Request) (*http.Response, error)) *FakeTransport {
	return &FakeTransport{Handler: handler}
}

// Send implements request.Transport.
func (t *FakeTransport) Send(_ context.Context, req *http.Request, _ request.CompletionMode) (*http.Response, error) {
	t.mu.Lock()
	t.Requests = append(t.Requests, req)
	t.mu.Unlock()
	return t.Handler(req)
}

// LastRequest returns the most recently observed request, or nil.
func (t *FakeTransport) LastRequest() *http.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.Requests) == 0 {
		return nil
	}
	return t.Requests[len(t.Requests)-1]
}

// Count returns the number of requests observed so far.
func (t *FakeTransport) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Requests)
}

// JSONResponse builds an *http.Response with a JSON body and no special
// headers beyond Content-Type, for use inside FakeTransport handlers.
func JSONResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}
