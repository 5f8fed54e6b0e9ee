// Package exec implements the Exec Channel (spec.md §4.I): running a
// command inside a container over a SPDY-upgraded HTTP connection, with
// ordered stream setup, concurrent stdout/stderr relay, and exit-status
// extraction across the v2/v3/v4 remote-command subprotocols.
package exec

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/kubecli/kubecli/internal/kubelog"
	"github.com/kubecli/kubecli/pkg/request"
)

var tracer = otel.Tracer("github.com/kubecli/kubecli/pkg/exec")

// TerminalSize is a single resize event sent down the optional resize
// stream while Tty is set (a feature this client adds beyond the plain
// exec call: spec.md leaves terminal resizing unspecified).
type TerminalSize struct {
	Width  uint16
	Height uint16
}

// Options configures one exec call.
type Options struct {
	Container string
	Command   []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// TTY requests a single combined stdout/stderr stream and allocates
	// a pseudo-terminal server-side; Resize, if non-nil, is read for the
	// lifetime of the call and forwarded as terminal-size updates.
	TTY    bool
	Resize <-chan TerminalSize

	// ThrowOnFailure makes Run return a *Failure for a non-zero exit or
	// a server-reported Failure status instead of a nil error.
	ThrowOnFailure bool
}

// Status is the terminal outcome of an exec call as reported by the
// server's exit status frame (spec.md §4.I point 4).
type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailure Status = "Failure"
)

// Result is the outcome of Run: the decoded exit status, code (0 when
// Status is Success and no code was reported), and message.
type Result struct {
	Status  Status
	Code    int
	Message string
}

// Run executes req (a Request built against .../exec with command,
// stdin/stdout/stderr, tty and container already set as query
// parameters) over dialer, relaying opts.Stdin/Stdout/Stderr and
// returning the decoded Result. req itself is never sent through its
// Transport: Run performs its own SPDY upgrade using the same URL,
// headers and credentials req would have produced.
func Run(ctx context.Context, req *request.Request, dialer Dialer, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "exec.Run", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	conn, protocol, err := upgrade(ctx, req, dialer)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer conn.Close()

	ch, err := newChannel(conn, protocol, opts)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer ch.Close()

	activeSessions.Inc()
	defer activeSessions.Dec()
	kubelog.V(kubelog.VLifecycle).Infof("exec session started, protocol=%s", protocol)
	defer kubelog.V(kubelog.VLifecycle).Infof("exec session closed")

	result, err := ch.run(ctx, opts)
	if err != nil {
		return nil, err
	}
	if opts.ThrowOnFailure && (result.Status == StatusFailure || result.Code != 0) {
		return result, &Failure{Result: result}
	}
	return result, nil
}
