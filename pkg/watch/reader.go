package watch

import (
	"encoding/json"
	"io"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kubecli/kubecli/pkg/request"
)

// Reader parses a newline-delimited-JSON watch stream one frame at a
// time (spec.md §4.G). It is pull-based, finite, and bound to a single
// response body: once exhausted or closed it cannot be restarted.
type Reader[T Object] struct {
	dec    *json.Decoder
	closer io.Closer
}

// NewReader wraps body, taking ownership of it: Close closes body.
// Reaching EOF via Next does not close it.
func NewReader[T Object](body io.ReadCloser) *Reader[T] {
	return &Reader[T]{dec: json.NewDecoder(body), closer: body}
}

type wireFrame struct {
	Type   EventType       `json:"type"`
	Object json.RawMessage `json:"object"`
}

// Next decodes and returns the next frame. It returns io.EOF (wrapped
// by neither error type) when the stream is exhausted cleanly, and a
// *request.DecodeError for a malformed frame.
func (r *Reader[T]) Next() (*WatchEvent[T], error) {
	var frame wireFrame
	if err := r.dec.Decode(&frame); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &request.DecodeError{Err: err}
	}

	event := &WatchEvent[T]{Type: frame.Type}
	if frame.Type == Error {
		status := &metav1.Status{}
		if err := json.Unmarshal(frame.Object, status); err != nil {
			return nil, &request.DecodeError{Err: err}
		}
		event.Status = status
		return event, nil
	}
	var obj T
	if err := json.Unmarshal(frame.Object, &obj); err != nil {
		return nil, &request.DecodeError{Err: err}
	}
	event.Object = obj
	return event, nil
}

// Close releases the underlying body. Safe to call after Next has
// already returned io.EOF.
func (r *Reader[T]) Close() error {
	return r.closer.Close()
}
