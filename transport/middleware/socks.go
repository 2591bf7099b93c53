package middleware

import (
	"context"
	"net"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/net/proxy"
)

// SOCKS5 tunnels TCP connections through a SOCKS5 proxy.
// The connection to the proxy itself is made by the next node.
type SOCKS5 struct {
	PassThrough

	hostname string
	port     uint16
	auth     *proxy.Auth
}

// NewSOCKS5 returns a SOCKS5 middleware for the proxy at hostname:port.
// auth may be nil.
func NewSOCKS5(hostname string, port uint16, auth *proxy.Auth) *SOCKS5 {
	return &SOCKS5{hostname: hostname, port: port, auth: auth}
}

func (s *SOCKS5) ConnectTCP(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (net.Conn, error) {
	host, err := normalizeHost(hostname)
	if err != nil {
		return nil, &TransportError{Op: "socks5 connect", Host: hostname, Port: port, Err: err}
	}

	forward := &forwardDialer{next: next, opts: opts}
	proxyAddr := net.JoinHostPort(s.hostname, strconv.Itoa(int(s.port)))

	d, err := proxy.SOCKS5("tcp", proxyAddr, s.auth, forward)
	if err != nil {
		return nil, &TransportError{Op: "socks5 connect", Host: hostname, Port: port, Err: err}
	}

	conn, err := d.(proxy.ContextDialer).DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(int(port))))
	if err != nil {
		return nil, &TransportError{Op: "socks5 connect", Host: hostname, Port: port, Err: err}
	}

	return conn, nil
}

// forwardDialer dials the proxy through the rest of the chain.
type forwardDialer struct {
	next Connector
	opts Options
}

var _ proxy.ContextDialer = (*forwardDialer)(nil)

func (f *forwardDialer) Dial(network, addr string) (net.Conn, error) {
	return f.DialContext(context.Background(), network, addr)
}

func (f *forwardDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, rawPort, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, errors.Wrap(err, "splitting proxy address")
	}

	port, err := strconv.ParseUint(rawPort, 10, 16)
	if err != nil {
		return nil, errors.Wrap(err, "parsing proxy port")
	}

	return f.next.ConnectTCP(ctx, host, uint16(port), f.opts)
}
