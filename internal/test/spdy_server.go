package test

import (
	"net/http"
	"net/http/httptest"
	"sync"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/httpstream"
	"k8s.io/apimachinery/pkg/util/httpstream/spdy"
)

// resizeStreamType mirrors pkg/exec's own resize stream type: not a
// k8s.io/api/core/v1 constant, just the header value the client and this
// test double agree on.
const resizeStreamType = "resize"

// Expected declares which exec streams a test case's client is expected
// to open, so SPDYServer knows how many accepts to wait for.
type Expected struct {
	Stdin  bool
	Stdout bool
	Stderr bool
	Resize bool
}

// Session is the set of accepted streams handed to an SPDYServer's
// Handle callback, keyed by stream type.
type Session struct {
	Error  httpstream.Stream
	Stdin  httpstream.Stream
	Stdout httpstream.Stream
	Stderr httpstream.Stream
	Resize httpstream.Stream
}

// SPDYServer is a real, SPDY-upgrading httptest.Server standing in for
// the kubelet exec endpoint: it performs the same server-side handshake
// and stream accept loop as the apiserver's exec proxy, adapted from a
// REST-API mock's exec helper into a standalone test double with an
// observable stream-accept order for testable-property assertions.
type SPDYServer struct {
	Server *httptest.Server
	URL    string

	mu          sync.Mutex
	acceptOrder []string
}

// NewSPDYServer starts a server that negotiates one of protocols, waits
// for exactly the streams named in expected, then calls handle with the
// accepted session. handle runs on the server's own goroutine per
// request; it is responsible for driving the exec session to completion
// (writing output, reading stdin, writing the final status) and should
// block until done.
func NewSPDYServer(protocols []string, expected Expected, handle func(*Session)) *SPDYServer {
	s := &SPDYServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		negotiated, err := httpstream.Handshake(req, w, protocols)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = negotiated

		upgrader := spdy.NewResponseUpgrader()
		type accepted struct {
			streamType string
			stream     httpstream.Stream
			replySent  <-chan struct{}
		}
		streamCh := make(chan accepted)
		conn := upgrader.UpgradeResponse(w, req, func(stream httpstream.Stream, replySent <-chan struct{}) error {
			streamCh <- accepted{streamType: stream.Headers().Get(corev1.StreamType), stream: stream, replySent: replySent}
			return nil
		})
		if conn == nil {
			return
		}
		defer conn.Close()

		want := 1
		if expected.Stdin {
			want++
		}
		if expected.Stdout {
			want++
		}
		if expected.Stderr {
			want++
		}
		if expected.Resize {
			want++
		}

		session := &Session{}
		for i := 0; i < want; i++ {
			a := <-streamCh
			s.record(a.streamType)
			switch a.streamType {
			case corev1.StreamTypeError:
				session.Error = a.stream
			case corev1.StreamTypeStdin:
				session.Stdin = a.stream
			case corev1.StreamTypeStdout:
				session.Stdout = a.stream
			case corev1.StreamTypeStderr:
				session.Stderr = a.stream
			case resizeStreamType:
				session.Resize = a.stream
			}
			<-a.replySent
		}

		handle(session)
	}))
	s.URL = s.Server.URL
	return s
}

func (s *SPDYServer) record(streamType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acceptOrder = append(s.acceptOrder, streamType)
}

// AcceptOrder returns the stream types in the order the server accepted
// them, for asserting the client opened them in the required sequence
// (error, stdin, stdout, stderr, resize).
func (s *SPDYServer) AcceptOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.acceptOrder))
	copy(out, s.acceptOrder)
	return out
}

func (s *SPDYServer) Close() {
	s.Server.Close()
}
