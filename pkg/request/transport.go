package request

import (
	"context"
	"net/http"
)

// CompletionMode selects how the transport boundary completes a call:
// headers-only (the caller will stream the body itself) or full-buffer
// (the transport may return once headers and body are both available).
// Mirrors spec.md §6's transport boundary contract.
type CompletionMode int

const (
	// CompletionHeadersOnly returns as soon as response headers arrive;
	// used for streamResponse and watch requests.
	CompletionHeadersOnly CompletionMode = iota
	// CompletionFullBuffer indicates the caller intends to buffer the
	// full body itself; Go's net/http already returns after headers in
	// both modes; the distinction only affects caller buffering, but is
	// kept as an explicit CompletionMode parameter to document intent at
	// the call site as the spec requires.
	CompletionFullBuffer
)

// Transport is the HTTP transport boundary: an opaque HTTP client that
// sends an already-built *http.Request and returns its response.
type Transport interface {
	Send(ctx context.Context, req *http.Request, mode CompletionMode) (*http.Response, error)
}

// HTTPTransport adapts a *http.Client to Transport.
type HTTPTransport struct {
	Client *http.Client
}

// NewHTTPTransport returns a Transport backed by client. A nil client
// uses http.DefaultClient.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{Client: client}
}

func (t *HTTPTransport) Send(ctx context.Context, req *http.Request, _ CompletionMode) (*http.Response, error) {
	return t.Client.Do(req.WithContext(ctx))
}
