package exec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/moby/spdystream"
	corev1 "k8s.io/api/core/v1"
)

// resizeStreamType is the stream header value for terminal-resize
// events. Not a k8s.io/api/core/v1 constant: only the error/stdin/
// stdout/stderr stream types are defined there, so this client defines
// its own for the resize stream it adds (SPEC_FULL.md §6).
const resizeStreamType = "resize"

const streamAckTimeout = 15 * time.Second

// channel holds the set of SPDY streams making up one exec session, in
// the creation order spec.md §4.I requires: error, stdin, stdout,
// stderr, then (if requested) resize. Streams for absent options
// (opts.Stdin == nil, TTY without stderr, ...) are left nil.
type channel struct {
	conn     *spdystream.Connection
	protocol string

	errorStream  *spdystream.Stream
	stdinStream  *spdystream.Stream
	stdoutStream *spdystream.Stream
	stderrStream *spdystream.Stream
	resizeStream *spdystream.Stream
}

func newChannel(conn net.Conn, protocol string, opts Options) (*channel, error) {
	spdyConn, err := spdystream.NewConnection(conn, false)
	if err != nil {
		return nil, &UpgradeError{Msg: "spdy connection: " + err.Error()}
	}
	go spdyConn.Serve(spdystream.NoOpStreamHandler)

	ch := &channel{conn: spdyConn, protocol: protocol}

	ch.errorStream, err = ch.createStream(corev1.StreamTypeError)
	if err != nil {
		return nil, err
	}

	if opts.Stdin != nil {
		ch.stdinStream, err = ch.createStream(corev1.StreamTypeStdin)
		if err != nil {
			return nil, err
		}
	}
	if opts.Stdout != nil {
		ch.stdoutStream, err = ch.createStream(corev1.StreamTypeStdout)
		if err != nil {
			return nil, err
		}
	}
	// A TTY session multiplexes stdout and stderr onto one stream
	// server-side; requesting a second stderr stream would hang
	// waiting for a reply that never comes.
	if opts.Stderr != nil && !opts.TTY {
		ch.stderrStream, err = ch.createStream(corev1.StreamTypeStderr)
		if err != nil {
			return nil, err
		}
	}
	if opts.TTY && opts.Resize != nil {
		ch.resizeStream, err = ch.createStream(resizeStreamType)
		if err != nil {
			return nil, err
		}
	}

	return ch, nil
}

// createStream opens a stream of the given type and blocks until the
// server acknowledges it (spec.md §4.I point 3, testable property 8):
// every stream must be acknowledged before any data — stdin above all —
// is sent, so the server side is fully wired before the command can
// produce or consume anything.
func (ch *channel) createStream(streamType string) (*spdystream.Stream, error) {
	headers := http.Header{}
	headers.Set(corev1.StreamType, streamType)
	stream, err := ch.conn.CreateStream(headers)
	if err != nil {
		return nil, &UpgradeError{Msg: fmt.Sprintf("create %s stream: %v", streamType, err)}
	}
	if err := stream.WaitTimeout(streamAckTimeout); err != nil {
		return nil, &UpgradeError{Msg: fmt.Sprintf("ack %s stream: %v", streamType, err)}
	}
	return stream, nil
}

// run relays opts.Stdin/Stdout/Stderr over the acknowledged streams and
// blocks until the error stream closes, returning the decoded Result.
func (ch *channel) run(ctx context.Context, opts Options) (*Result, error) {
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = ch.conn.Close()
		case <-watchDone:
		}
	}()

	var wg sync.WaitGroup

	if ch.stdoutStream != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = io.Copy(opts.Stdout, ch.stdoutStream)
		}()
	}
	if ch.stderrStream != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = io.Copy(opts.Stderr, ch.stderrStream)
		}()
	}
	if ch.resizeStream != nil {
		go ch.relayResize(ctx, opts.Resize)
	}
	if ch.stdinStream != nil {
		go func() {
			_, _ = io.Copy(ch.stdinStream, opts.Stdin)
			_ = ch.stdinStream.Close()
		}()
	}

	errBuf := &bytes.Buffer{}
	_, _ = io.Copy(errBuf, ch.errorStream)

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return parseExitStatus(ch.protocol, errBuf.Bytes())
}

func (ch *channel) relayResize(ctx context.Context, sizes <-chan TerminalSize) {
	for {
		select {
		case <-ctx.Done():
			return
		case sz, ok := <-sizes:
			if !ok {
				return
			}
			payload, err := json.Marshal(struct {
				Width  uint16 `json:"width"`
				Height uint16 `json:"height"`
			}{sz.Width, sz.Height})
			if err != nil {
				continue
			}
			if _, err := ch.resizeStream.Write(payload); err != nil {
				return
			}
		}
	}
}

func (ch *channel) Close() error {
	return ch.conn.Close()
}
