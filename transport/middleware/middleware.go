// Package middleware establishes connections through a chain of responsibility.
//
// A chain is built from an ordered list of [Middleware]. Every node either
// handles a connect call or forwards it to the next node. Each call also
// receives the root of the chain, so that a node can re-enter the chain from
// the top: [Base] opens the TCP connection of a TLS connection through root,
// which lets a middleware placed anywhere before it intercept that dial.
package middleware

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"wirehttp/application/http/h1"

	"github.com/pkg/errors"
)

var ErrEndOfChain = errors.New("call forwarded past the end of middleware chain")

type Options struct {
	// DialTimeout bounds establishing a TCP connection. Zero means no timeout.
	DialTimeout time.Duration
	// TLSConfig is cloned for every TLS connection.
	// ServerName is always overwritten with the dialed hostname.
	TLSConfig *tls.Config
	// ConnOptions are applied to every created [h1.Conn].
	ConnOptions []h1.Option
}

// Connector establishes connections of every supported layer.
type Connector interface {
	ConnectTCP(ctx context.Context, hostname string, port uint16, opts Options) (net.Conn, error)
	ConnectTLS(ctx context.Context, hostname string, port uint16, opts Options) (net.Conn, error)
	ConnectHTTP(ctx context.Context, hostname string, port uint16, opts Options) (*h1.Conn, error)
	ConnectHTTPS(ctx context.Context, hostname string, port uint16, opts Options) (*h1.Conn, error)
}

// Middleware is a node of a chain.
// root is the head of the chain and next is the node after this one.
type Middleware interface {
	ConnectTCP(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (net.Conn, error)
	ConnectTLS(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (net.Conn, error)
	ConnectHTTP(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (*h1.Conn, error)
	ConnectHTTPS(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (*h1.Conn, error)
}

// PassThrough forwards every call to next.
// Embed it to override only some of the calls.
type PassThrough struct{}

var _ Middleware = PassThrough{}

func (PassThrough) ConnectTCP(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (net.Conn, error) {
	return next.ConnectTCP(ctx, hostname, port, opts)
}

func (PassThrough) ConnectTLS(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (net.Conn, error) {
	return next.ConnectTLS(ctx, hostname, port, opts)
}

func (PassThrough) ConnectHTTP(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (*h1.Conn, error) {
	return next.ConnectHTTP(ctx, hostname, port, opts)
}

func (PassThrough) ConnectHTTPS(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (*h1.Conn, error) {
	return next.ConnectHTTPS(ctx, hostname, port, opts)
}

// TransportError is returned when establishing a connection fails.
type TransportError struct {
	Op   string
	Host string
	Port uint16
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port))), e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
