package middleware

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"

	"wirehttp/application/http/h1"
	iolib "wirehttp/lib/io"

	"golang.org/x/net/idna"
)

// Base is the terminal layer of a chain. It handles every call by itself.
type Base struct{}

var _ Middleware = Base{}

func NewBase() Base { return Base{} }

func (Base) ConnectTCP(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (net.Conn, error) {
	host, err := normalizeHost(hostname)
	if err != nil {
		return nil, &TransportError{Op: "tcp connect", Host: hostname, Port: port, Err: err}
	}

	d := net.Dialer{Timeout: opts.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(int(port))))
	if err != nil {
		return nil, &TransportError{Op: "tcp connect", Host: hostname, Port: port, Err: err}
	}

	return conn, nil
}

// ConnectTLS opens TCP through root and runs a client handshake on it.
// The certificate is verified against hostname, which is also sent as SNI.
func (Base) ConnectTLS(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (net.Conn, error) {
	host, err := normalizeHost(hostname)
	if err != nil {
		return nil, &TransportError{Op: "tls connect", Host: hostname, Port: port, Err: err}
	}

	conn, err := root.ConnectTCP(ctx, hostname, port, opts)
	if err != nil {
		return nil, err
	}

	var cfg *tls.Config
	if opts.TLSConfig != nil {
		cfg = opts.TLSConfig.Clone()
	} else {
		cfg = &tls.Config{}
	}
	cfg.ServerName = host

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		// Both layers are released before returning.
		_ = tlsConn.Close()
		_ = conn.Close()
		return nil, &TransportError{Op: "tls handshake", Host: hostname, Port: port, Err: err}
	}

	return tlsConn, nil
}

func (Base) ConnectHTTP(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (*h1.Conn, error) {
	conn, err := root.ConnectTCP(ctx, hostname, port, opts)
	if err != nil {
		return nil, err
	}
	return h1.NewConn(iolib.NewConnStream(conn), opts.ConnOptions...), nil
}

func (Base) ConnectHTTPS(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (*h1.Conn, error) {
	conn, err := root.ConnectTLS(ctx, hostname, port, opts)
	if err != nil {
		return nil, err
	}
	return h1.NewConn(iolib.NewConnStream(conn), opts.ConnOptions...), nil
}

// normalizeHost converts an internationalized hostname to its ASCII form.
// IP literals are kept as is.
func normalizeHost(hostname string) (string, error) {
	if net.ParseIP(hostname) != nil {
		return hostname, nil
	}
	return idna.Lookup.ToASCII(hostname)
}
