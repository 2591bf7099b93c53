package iolib

import (
	"bufio"
	"io"
	"net"
)

// Stream is a bidirectional byte stream a connection is built on.
type Stream interface {
	PartialReader
	io.Writer
	Flush() error
	io.Closer
}

// ConnStream is a [Stream] over a [net.Conn].
// Writes are buffered until Flush.
type ConnStream struct {
	*ReaderSource

	conn net.Conn
	bw   *bufio.Writer

	external, internal string
}

var (
	_ Stream  = (*ConnStream)(nil)
	_ Encoded = (*ConnStream)(nil)
)

func NewConnStream(conn net.Conn) *ConnStream {
	return &ConnStream{
		ReaderSource: NewReaderSource(conn),
		conn:         conn,
		bw:           bufio.NewWriter(conn),
	}
}

// SetEncodings configures text-mode decoding of lines read from the stream.
// Empty names keep the stream binary.
func (s *ConnStream) SetEncodings(external, internal string) {
	s.external, s.internal = external, internal
}

func (s *ConnStream) Encodings() (external, internal string) { return s.external, s.internal }

func (s *ConnStream) Write(p []byte) (int, error) { return s.bw.Write(p) }

func (s *ConnStream) Flush() error { return s.bw.Flush() }

func (s *ConnStream) Close() error { return s.conn.Close() }

// NetConn returns the underlying connection.
func (s *ConnStream) NetConn() net.Conn { return s.conn }
