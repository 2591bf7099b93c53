// Package test provides test doubles for connections and middleware chains.
package test

import (
	"bytes"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var ErrUnexpectedWrite = errors.New("write doesn't match the script")

type stepKind uint8

const (
	// peer expects exactly these bytes.
	stepExpect stepKind = iota
	// peer accepts any bytes until the next reply.
	stepSwallow
	// peer sends these bytes.
	stepReply
)

type step struct {
	kind stepKind
	data []byte
}

// ScriptedConn is a [net.Conn] that plays a peer following a script.
// Once the script is exhausted, reads return io.EOF.
type ScriptedConn struct {
	mu sync.Mutex

	steps []step

	closed        bool
	readDeadline  time.Time
	writeDeadline time.Time
}

var _ net.Conn = (*ScriptedConn)(nil)

func NewScriptedConn() *ScriptedConn {
	return &ScriptedConn{}
}

// Expect makes the peer expect b to be written.
func (c *ScriptedConn) Expect(b string) *ScriptedConn {
	return c.push(stepExpect, b)
}

// Swallow makes the peer accept whatever is written until the next reply.
func (c *ScriptedConn) Swallow() *ScriptedConn {
	return c.push(stepSwallow, "")
}

// Reply makes the peer send b.
func (c *ScriptedConn) Reply(b string) *ScriptedConn {
	return c.push(stepReply, b)
}

func (c *ScriptedConn) push(kind stepKind, b string) *ScriptedConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, step{kind: kind, data: []byte(b)})
	return c
}

// Done reports whether every step of the script was played.
func (c *ScriptedConn) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.steps) == 0
}

func (c *ScriptedConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Deadlines returns the last read and write deadlines set.
func (c *ScriptedConn) Deadlines() (read, write time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readDeadline, c.writeDeadline
}

func (c *ScriptedConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, net.ErrClosed
	}

	// Swallow ends when the peer starts to reply.
	for len(c.steps) > 0 && c.steps[0].kind == stepSwallow {
		c.steps = c.steps[1:]
	}

	if len(c.steps) == 0 {
		return 0, io.EOF
	}

	cur := &c.steps[0]
	if cur.kind != stepReply {
		return 0, errors.Errorf("read while peer expects %q", cur.data)
	}

	n := copy(p, cur.data)
	if cur.data = cur.data[n:]; len(cur.data) == 0 {
		c.steps = c.steps[1:]
	}

	return n, nil
}

func (c *ScriptedConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, net.ErrClosed
	}

	written := 0
	for written < len(p) {
		if len(c.steps) == 0 {
			return written, errors.Wrapf(ErrUnexpectedWrite, "script is over, got %q", p[written:])
		}

		cur := &c.steps[0]
		switch cur.kind {
		case stepSwallow:
			return len(p), nil
		case stepReply:
			return written, errors.Wrapf(ErrUnexpectedWrite, "peer is replying, got %q", p[written:])
		}

		n := min(len(cur.data), len(p)-written)
		if !bytes.Equal(cur.data[:n], p[written:written+n]) {
			return written, errors.Wrapf(ErrUnexpectedWrite, "expected %q, got %q", cur.data, p[written:])
		}

		written += n
		if cur.data = cur.data[n:]; len(cur.data) == 0 {
			c.steps = c.steps[1:]
		}
	}

	return written, nil
}

func (c *ScriptedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return net.ErrClosed
	}
	c.closed = true
	return nil
}

func (c *ScriptedConn) LocalAddr() net.Addr  { return scriptedAddr("local") }
func (c *ScriptedConn) RemoteAddr() net.Addr { return scriptedAddr("remote") }

func (c *ScriptedConn) SetDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readDeadline, c.writeDeadline = t, t
	return nil
}

func (c *ScriptedConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readDeadline = t
	return nil
}

func (c *ScriptedConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeDeadline = t
	return nil
}

type scriptedAddr string

func (a scriptedAddr) Network() string { return "scripted" }
func (a scriptedAddr) String() string  { return string(a) }
