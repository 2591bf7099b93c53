package middleware

import (
	"context"
	"net"
	"time"

	"github.com/benbjohnson/clock"
)

// Deadline sets a deadline on every TCP connection established after it.
// TLS and HTTP connections are covered too, since they dial TCP through root.
type Deadline struct {
	PassThrough

	timeout time.Duration
	clock   clock.Clock
}

func NewDeadline(timeout time.Duration, clock clock.Clock) *Deadline {
	return &Deadline{timeout: timeout, clock: clock}
}

func (d *Deadline) ConnectTCP(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (net.Conn, error) {
	conn, err := next.ConnectTCP(ctx, hostname, port, opts)
	if err != nil {
		return nil, err
	}

	if err := conn.SetDeadline(d.clock.Now().Add(d.timeout)); err != nil {
		_ = conn.Close()
		return nil, &TransportError{Op: "set deadline", Host: hostname, Port: port, Err: err}
	}

	return conn, nil
}
