package exec

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/kubecli/kubecli/pkg/request"
)

// protocolV4 through protocolV2 are the remote-command subprotocols this
// client understands, offered most-preferred first, mirroring the
// version order the exit-status extraction in status.go depends on.
const (
	protocolV4 = "v4.channel.k8s.io"
	protocolV3 = "v3.channel.k8s.io"
	protocolV2 = "v2.channel.k8s.io"
)

var supportedProtocols = []string{protocolV4, protocolV3, protocolV2}

// Dialer opens the raw connection an exec call upgrades to SPDY over.
// Implementations are expected to honor ctx's deadline and, for an https
// URL, perform the TLS handshake themselves.
type Dialer interface {
	Dial(ctx context.Context, network, addr string) (net.Conn, error)
}

// NetDialer is a Dialer backed by net.Dialer. With a non-nil TLSConfig
// it performs the TLS handshake itself; with a nil TLSConfig it dials
// plain TCP, whatever the target URL's scheme.
type NetDialer struct {
	TLSConfig *tls.Config
	Timeout   time.Duration
}

func (d *NetDialer) Dial(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: d.Timeout}
	if d.TLSConfig == nil {
		return dialer.DialContext(ctx, network, addr)
	}
	tlsDialer := &tls.Dialer{NetDialer: dialer, Config: d.TLSConfig}
	return tlsDialer.DialContext(ctx, network, addr)
}

// bufferedConn replays bytes bufio.Reader read ahead of the 101 response
// headers before falling through to raw reads from conn, so SPDY frames
// the server sent immediately after switching protocols aren't lost.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (b *bufferedConn) Read(p []byte) (int, error) { return b.r.Read(p) }

// upgrade performs the HTTP/1.1 Upgrade handshake for req and returns the
// raw connection (with any read-ahead bytes preserved) plus the
// negotiated subprotocol.
func upgrade(ctx context.Context, req *request.Request, dialer Dialer) (net.Conn, string, error) {
	httpReq, err := req.BuildUpgradeRequest(ctx)
	if err != nil {
		return nil, "", err
	}

	target, err := url.Parse(httpReq.URL.String())
	if err != nil {
		return nil, "", &UpgradeError{Msg: err.Error()}
	}
	network := "tcp"
	addr := target.Host
	if target.Port() == "" {
		if target.Scheme == "https" {
			addr = net.JoinHostPort(target.Hostname(), "443")
		} else {
			addr = net.JoinHostPort(target.Hostname(), "80")
		}
	}

	conn, err := dialer.Dial(ctx, network, addr)
	if err != nil {
		return nil, "", &UpgradeError{Msg: fmt.Sprintf("dial %s: %v", addr, err)}
	}

	httpReq.Header.Set("Connection", "Upgrade")
	httpReq.Header.Set("Upgrade", "SPDY/3.1")
	for _, p := range supportedProtocols {
		httpReq.Header.Add("X-Stream-Protocol-Version", p)
	}
	httpReq.Proto = "HTTP/1.1"
	httpReq.ProtoMajor = 1
	httpReq.ProtoMinor = 1

	if err := httpReq.Write(conn); err != nil {
		conn.Close()
		return nil, "", &UpgradeError{Msg: fmt.Sprintf("write upgrade request: %v", err)}
	}

	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, httpReq)
	if err != nil {
		conn.Close()
		return nil, "", &UpgradeError{Msg: fmt.Sprintf("read upgrade response: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSwitchingProtocols {
		status, _ := decodeStatus(resp)
		conn.Close()
		return nil, "", &UpgradeError{StatusCode: resp.StatusCode, Status: status}
	}

	protocol := resp.Header.Get("X-Stream-Protocol-Version")
	if !supported(protocol) {
		conn.Close()
		return nil, "", &UpgradeError{Msg: fmt.Sprintf("unsupported or missing subprotocol %q", protocol)}
	}

	if br.Buffered() > 0 {
		return &bufferedConn{Conn: conn, r: br}, protocol, nil
	}
	return conn, protocol, nil
}

func supported(protocol string) bool {
	for _, p := range supportedProtocols {
		if p == protocol {
			return true
		}
	}
	return false
}
