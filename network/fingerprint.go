package network

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// FingerprintTransport sends requests over TLS connections that mimic Chrome 120's
// Client Hello. It tries HTTP/2 first and falls back to HTTP/1.1 for bodiless requests.
type FingerprintTransport struct {
	roots *x509.CertPool
	h2    *http2.Transport
	h1    *http.Transport
}

// NewFingerprintTransport returns a transport that verifies servers against roots, or the system pool when nil.
func NewFingerprintTransport(roots *x509.CertPool) *FingerprintTransport {
	t := &FingerprintTransport{roots: roots}
	t.h2 = &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return t.dial(ctx, network, addr, nil)
		},
	}
	t.h1 = &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return t.dial(ctx, network, addr, []string{"http/1.1"})
		},
	}
	return t
}

func (t *FingerprintTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return Client.Transport.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	if req.Body != nil && req.Body != http.NoBody {
		return nil, err
	}
	if req.Context().Err() != nil {
		return nil, req.Context().Err()
	}

	resp, h1err := t.h1.RoundTrip(req.Clone(req.Context()))
	if h1err != nil {
		return nil, fmt.Errorf("h2: %v; http/1.1: %w", err, h1err)
	}
	return resp, nil
}

// CloseIdleConnections releases pooled connections of both protocols.
func (t *FingerprintTransport) CloseIdleConnections() {
	t.h2.CloseIdleConnections()
	t.h1.CloseIdleConnections()
}

func (t *FingerprintTransport) dial(ctx context.Context, network, addr string, protos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: requestTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		RootCAs:    t.roots,
		MinVersion: tls.VersionTLS12,
		NextProtos: protos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
