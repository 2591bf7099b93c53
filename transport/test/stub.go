package test

import (
	"context"
	"net"
	"strconv"
	"sync"

	"wirehttp/transport/middleware"

	"github.com/pkg/errors"
)

var ErrNotStubbed = errors.New("connection is not stubbed")

// Stub is a middleware returning prepared connections instead of dialing.
// Each stubbed connection is handed out once.
// Calls without a matching stub fail with ErrNotStubbed, so no real network is touched.
type Stub struct {
	middleware.PassThrough

	mu  sync.Mutex
	tcp map[string][]net.Conn
	tls map[string][]net.Conn
}

var _ middleware.Middleware = (*Stub)(nil)

func NewStub() *Stub {
	return &Stub{
		tcp: make(map[string][]net.Conn),
		tls: make(map[string][]net.Conn),
	}
}

func stubKey(hostname string, port uint16) string {
	return net.JoinHostPort(hostname, strconv.Itoa(int(port)))
}

func (s *Stub) StubTCP(hostname string, port uint16, conn net.Conn) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stubKey(hostname, port)
	s.tcp[key] = append(s.tcp[key], conn)
	return s
}

func (s *Stub) StubTLS(hostname string, port uint16, conn net.Conn) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stubKey(hostname, port)
	s.tls[key] = append(s.tls[key], conn)
	return s
}

// Remaining returns the number of stubs not handed out yet.
func (s *Stub) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, conns := range s.tcp {
		n += len(conns)
	}
	for _, conns := range s.tls {
		n += len(conns)
	}
	return n
}

func (s *Stub) take(stubs map[string][]net.Conn, hostname string, port uint16) (net.Conn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := stubKey(hostname, port)
	conns := stubs[key]
	if len(conns) == 0 {
		return nil, false
	}

	stubs[key] = conns[1:]
	return conns[0], true
}

func (s *Stub) ConnectTCP(ctx context.Context, root, next middleware.Connector, hostname string, port uint16, opts middleware.Options) (net.Conn, error) {
	conn, ok := s.take(s.tcp, hostname, port)
	if !ok {
		return nil, &middleware.TransportError{Op: "tcp connect", Host: hostname, Port: port, Err: ErrNotStubbed}
	}
	return conn, nil
}

// ConnectTLS returns a stubbed TLS connection if any.
// Otherwise the call is forwarded, so that TLS runs over a stubbed TCP connection.
func (s *Stub) ConnectTLS(ctx context.Context, root, next middleware.Connector, hostname string, port uint16, opts middleware.Options) (net.Conn, error) {
	if conn, ok := s.take(s.tls, hostname, port); ok {
		return conn, nil
	}
	return next.ConnectTLS(ctx, hostname, port, opts)
}
