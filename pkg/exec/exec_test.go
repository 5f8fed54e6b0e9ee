package exec_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubecli/kubecli/internal/test"
	"github.com/kubecli/kubecli/pkg/exec"
	"github.com/kubecli/kubecli/pkg/request"
)

func execRequest(t *testing.T, serverURL string) *request.Request {
	t.Helper()
	return request.New(serverURL, nil, nil).
		Group("").Version("v1").Namespace("ns").Resource("pods").Name("p").Subresource("exec")
}

func plainDialer() *exec.NetDialer { return &exec.NetDialer{Timeout: 5 * time.Second} }

// Testable property 8: every stream is created and acknowledged, in
// order (error, stdin, stdout, stderr), before any stdin bytes reach the
// server.
func TestRun_CreatesStreamsInOrderAndWaitsForAcks(t *testing.T) {
	srv := test.NewSPDYServer([]string{"v4.channel.k8s.io"}, test.Expected{Stdin: true, Stdout: true, Stderr: true},
		func(session *test.Session) {
			buf := make([]byte, 5)
			n, _ := io.ReadFull(session.Stdin, buf)
			_, _ = session.Stdout.Write(buf[:n])
			_ = session.Stdout.Close()
			_ = session.Error.Close()
		})
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	result, err := exec.Run(context.Background(), execRequest(t, srv.URL), plainDialer(), exec.Options{
		Command: []string{"echo", "hi"},
		Stdin:   strings.NewReader("hello"),
		Stdout:  &stdout,
		Stderr:  &stderr,
	})
	require.NoError(t, err)
	assert.Equal(t, exec.StatusSuccess, result.Status)
	assert.Equal(t, 0, result.Code)
	assert.Equal(t, []string{"error", "stdin", "stdout", "stderr"}, srv.AcceptOrder())
	assert.Equal(t, "hello", stdout.String())
}

// End-to-end scenario E5: a successful command on the v4 protocol
// reports code 0 via an empty error-stream body.
func TestRun_SuccessfulCommandReportsZero(t *testing.T) {
	srv := test.NewSPDYServer([]string{"v4.channel.k8s.io"}, test.Expected{Stdout: true},
		func(session *test.Session) {
			_, _ = session.Stdout.Write([]byte("hi\n"))
		})
	defer srv.Close()

	var stdout bytes.Buffer
	result, err := exec.Run(context.Background(), execRequest(t, srv.URL), plainDialer(), exec.Options{
		Command: []string{"echo", "hi"},
		Stdout:  &stdout,
	})
	require.NoError(t, err)
	assert.Equal(t, exec.StatusSuccess, result.Status)
	assert.Equal(t, 0, result.Code)
	assert.Equal(t, "hi\n", stdout.String())
}

// End-to-end scenario E6: a non-zero exit surfaces through the v4
// error-stream Status/Details.Causes[ExitCode] encoding.
func TestRun_NonZeroExitCodeReportsCause(t *testing.T) {
	srv := test.NewSPDYServer([]string{"v4.channel.k8s.io"}, test.Expected{},
		func(session *test.Session) {
			_, _ = session.Error.Write([]byte(`{"kind":"Status","status":"Failure","reason":"NonZeroExitCode","message":"command terminated with non-zero exit code","details":{"causes":[{"reason":"ExitCode","message":"2"}]}}`))
		})
	defer srv.Close()

	result, err := exec.Run(context.Background(), execRequest(t, srv.URL), plainDialer(), exec.Options{
		Command: []string{"false"},
	})
	require.NoError(t, err)
	assert.Equal(t, exec.StatusFailure, result.Status)
	assert.Equal(t, 2, result.Code)
}

// ThrowOnFailure surfaces the non-zero exit as an error instead of a
// silent Result.
func TestRun_ThrowOnFailureRaisesForNonZeroExit(t *testing.T) {
	srv := test.NewSPDYServer([]string{"v4.channel.k8s.io"}, test.Expected{},
		func(session *test.Session) {
			_, _ = session.Error.Write([]byte(`{"kind":"Status","status":"Failure","reason":"NonZeroExitCode","details":{"causes":[{"reason":"ExitCode","message":"7"}]}}`))
		})
	defer srv.Close()

	_, err := exec.Run(context.Background(), execRequest(t, srv.URL), plainDialer(), exec.Options{
		Command:        []string{"false"},
		ThrowOnFailure: true,
	})
	require.Error(t, err)
	var failure *exec.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 7, failure.Result.Code)
}

// A TTY session must not create a separate stderr stream: stdout and
// stderr are multiplexed server-side onto the single stdout stream.
func TestRun_TTYDoesNotOpenStderrStream(t *testing.T) {
	srv := test.NewSPDYServer([]string{"v4.channel.k8s.io"}, test.Expected{Stdout: true},
		func(session *test.Session) {
			_, _ = session.Stdout.Write([]byte("combined output\n"))
		})
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	result, err := exec.Run(context.Background(), execRequest(t, srv.URL), plainDialer(), exec.Options{
		Command: []string{"sh"},
		TTY:     true,
		Stdout:  &stdout,
		Stderr:  &stderr,
	})
	require.NoError(t, err)
	assert.Equal(t, exec.StatusSuccess, result.Status)
	assert.Equal(t, "combined output\n", stdout.String())
	assert.NotContains(t, srv.AcceptOrder(), "stderr")
}

// Resize events are relayed over a dedicated stream for the lifetime of
// a TTY session.
func TestRun_RelaysResizeEvents(t *testing.T) {
	received := make(chan []byte, 1)
	srv := test.NewSPDYServer([]string{"v4.channel.k8s.io"}, test.Expected{Stdout: true, Resize: true},
		func(session *test.Session) {
			buf := make([]byte, 64)
			n, _ := session.Resize.Read(buf)
			received <- buf[:n]
			_, _ = session.Stdout.Write([]byte("ok"))
		})
	defer srv.Close()

	sizes := make(chan exec.TerminalSize, 1)
	sizes <- exec.TerminalSize{Width: 80, Height: 24}

	var stdout bytes.Buffer
	result, err := exec.Run(context.Background(), execRequest(t, srv.URL), plainDialer(), exec.Options{
		Command: []string{"sh"},
		TTY:     true,
		Stdout:  &stdout,
		Resize:  sizes,
	})
	require.NoError(t, err)
	assert.Equal(t, exec.StatusSuccess, result.Status)

	select {
	case payload := <-received:
		assert.Contains(t, string(payload), "80")
		assert.Contains(t, string(payload), "24")
	case <-time.After(2 * time.Second):
		t.Fatal("resize payload not received")
	}
}
