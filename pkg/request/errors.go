package request

import (
	"errors"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ConfigError reports an invalid Request configuration discovered before
// any I/O is attempted: an illegal combination of rawURI and piecemeal
// components, a missing base URI, or a reserved header name.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "kubecli: config error: " + e.Msg }

// TransportError wraps a failure from the HTTP transport boundary.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("kubecli: transport error: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// HttpStatusError reports a non-success HTTP response. Status carries the
// server's decoded metav1.Status when the body could be parsed as one.
type HttpStatusError struct {
	StatusCode int
	Status     *metav1.Status
}

func (e *HttpStatusError) Error() string {
	if e.Status != nil && e.Status.Message != "" {
		return fmt.Sprintf("kubecli: server returned HTTP %d: %s", e.StatusCode, e.Status.Message)
	}
	return fmt.Sprintf("kubecli: server returned HTTP %d", e.StatusCode)
}

// NotFoundError is the distinguished 404 subtype of HttpStatusError.
type NotFoundError struct {
	HttpStatusError
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// DecodeError reports a JSON or watch-framing decode failure.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("kubecli: decode error: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// NewStatusError builds the appropriate error for an HTTP status code and
// its decoded Status body: a *NotFoundError for 404, a *HttpStatusError
// otherwise. Exposed for callers (such as pkg/replace) layered directly
// on Response rather than the Into/DoOrDie convenience methods.
func NewStatusError(statusCode int, status *metav1.Status) error {
	return newStatusError(statusCode, status)
}

func newStatusError(statusCode int, status *metav1.Status) error {
	base := HttpStatusError{StatusCode: statusCode, Status: status}
	if statusCode == 404 {
		return &NotFoundError{HttpStatusError: base}
	}
	return &base
}
