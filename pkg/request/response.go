package request

import (
	"io"
	"net/http"
	"sync"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kubecli/kubecli/pkg/codec"
)

// Response is a lazy accessor over an HTTP response (spec.md §4.D). The
// caller owns disposal when the originating Request was configured to
// stream; otherwise Body (and Into/Status, which call it) closes it once
// the body has been read.
type Response struct {
	httpResp *http.Response
	stream   bool

	once    sync.Once
	body    []byte
	bodyErr error
}

func newResponse(httpResp *http.Response, stream bool) *Response {
	return &Response{httpResp: httpResp, stream: stream}
}

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int { return r.httpResp.StatusCode }

// IsError reports whether the status code is >= 400.
func (r *Response) IsError() bool { return r.StatusCode() >= 400 }

// IsNotFound reports whether the status code is 404.
func (r *Response) IsNotFound() bool { return r.StatusCode() == http.StatusNotFound }

// Header returns the response headers.
func (r *Response) Header() http.Header { return r.httpResp.Header }

// BodyStream returns the underlying body stream. It is consumable at
// most once; callers that also call Body/Into may not additionally read
// BodyStream (and vice versa) without getting EOF or stale cached bytes.
func (r *Response) BodyStream() io.ReadCloser { return r.httpResp.Body }

// Body buffers the full response body, caching it so repeated calls are
// free. Safe to call even on a streamResponse Response; the caller is
// then responsible for not also draining BodyStream.
func (r *Response) Body() ([]byte, error) {
	r.once.Do(func() {
		defer r.httpResp.Body.Close()
		r.body, r.bodyErr = io.ReadAll(r.httpResp.Body)
	})
	return r.body, r.bodyErr
}

// Into buffers the body and JSON-decodes it into v.
func (r *Response) Into(v any) error {
	data, err := r.Body()
	if err != nil {
		return &TransportError{Err: err}
	}
	if err := codec.JSON.Decode(data, v); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// Status decodes a metav1.Status from the body if present, or synthesizes
// one from the HTTP status code and reason phrase.
func (r *Response) Status() (*metav1.Status, error) {
	data, err := r.Body()
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	status := &metav1.Status{}
	if len(data) > 0 {
		if decodeErr := codec.JSON.Decode(data, status); decodeErr == nil && status.Kind == "Status" {
			return status, nil
		}
	}
	return synthesizeStatus(r.StatusCode()), nil
}

func synthesizeStatus(code int) *metav1.Status {
	status := metav1.StatusSuccess
	if code >= 400 {
		status = metav1.StatusFailure
	}
	return &metav1.Status{
		TypeMeta: metav1.TypeMeta{Kind: "Status", APIVersion: "v1"},
		Status:   status,
		Code:     int32(code),
		Message:  http.StatusText(code),
	}
}

// Close releases the underlying transport response. Buffered responses
// are closed automatically by Body/Into; streaming responses must be
// closed explicitly by the caller.
func (r *Response) Close() error {
	return r.httpResp.Body.Close()
}
