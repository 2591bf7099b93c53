package middleware

import (
	"context"
	"net"

	"wirehttp/application/http/h1"
)

// Chain is an immutable chain of middlewares. It is safe for concurrent use
// as long as its middlewares are.
type Chain struct {
	head Connector
}

var _ Connector = (*Chain)(nil)

type node struct {
	m    Middleware
	root *Chain
	next Connector
}

// Build links ms in order. The last one is the terminal layer,
// usually [Base], and must not forward any call.
func Build(ms ...Middleware) *Chain {
	chain := new(Chain)

	var next Connector = endOfChain{}
	for i := len(ms) - 1; i >= 0; i-- {
		next = &node{m: ms[i], root: chain, next: next}
	}
	chain.head = next

	return chain
}

func (c *Chain) ConnectTCP(ctx context.Context, hostname string, port uint16, opts Options) (net.Conn, error) {
	return c.head.ConnectTCP(ctx, hostname, port, opts)
}

func (c *Chain) ConnectTLS(ctx context.Context, hostname string, port uint16, opts Options) (net.Conn, error) {
	return c.head.ConnectTLS(ctx, hostname, port, opts)
}

func (c *Chain) ConnectHTTP(ctx context.Context, hostname string, port uint16, opts Options) (*h1.Conn, error) {
	return c.head.ConnectHTTP(ctx, hostname, port, opts)
}

func (c *Chain) ConnectHTTPS(ctx context.Context, hostname string, port uint16, opts Options) (*h1.Conn, error) {
	return c.head.ConnectHTTPS(ctx, hostname, port, opts)
}

func (n *node) ConnectTCP(ctx context.Context, hostname string, port uint16, opts Options) (net.Conn, error) {
	return n.m.ConnectTCP(ctx, n.root, n.next, hostname, port, opts)
}

func (n *node) ConnectTLS(ctx context.Context, hostname string, port uint16, opts Options) (net.Conn, error) {
	return n.m.ConnectTLS(ctx, n.root, n.next, hostname, port, opts)
}

func (n *node) ConnectHTTP(ctx context.Context, hostname string, port uint16, opts Options) (*h1.Conn, error) {
	return n.m.ConnectHTTP(ctx, n.root, n.next, hostname, port, opts)
}

func (n *node) ConnectHTTPS(ctx context.Context, hostname string, port uint16, opts Options) (*h1.Conn, error) {
	return n.m.ConnectHTTPS(ctx, n.root, n.next, hostname, port, opts)
}

type endOfChain struct{}

func (endOfChain) ConnectTCP(context.Context, string, uint16, Options) (net.Conn, error) {
	return nil, ErrEndOfChain
}

func (endOfChain) ConnectTLS(context.Context, string, uint16, Options) (net.Conn, error) {
	return nil, ErrEndOfChain
}

func (endOfChain) ConnectHTTP(context.Context, string, uint16, Options) (*h1.Conn, error) {
	return nil, ErrEndOfChain
}

func (endOfChain) ConnectHTTPS(context.Context, string, uint16, Options) (*h1.Conn, error) {
	return nil, ErrEndOfChain
}
