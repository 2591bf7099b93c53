package h1

import (
	"wirehttp/application/http"
	iolib "wirehttp/lib/io"
)

// Stream is one exchange on a [Conn].
// It holds no state of its own; once a newer stream is opened
// on the same connection, every call fails with ErrProtocolState.
type Stream struct {
	conn *Conn
	id   uint64
}

func (s *Stream) ID() uint64 { return s.id }

func (s *Stream) Conn() *Conn { return s.conn }

// WriteHeaders writes the request line and fields.
// h must carry :method and :path. Host is written first if present.
func (s *Stream) WriteHeaders(h *http.Headers) error {
	return s.conn.writeHeaders(s.id, h)
}

func (s *Stream) Flush() error { return s.conn.Flush() }

// ReadHeaders reads a response header block. The status code is set as :status.
// For an informational response, ReadHeaders must be called again.
func (s *Stream) ReadHeaders() (*http.Headers, error) {
	return s.conn.readHeaders(s.id)
}

// ReadPartialBody reads up to maxlen bytes of the response body.
// io.EOF is returned at the end of the body. If the connection ends before
// a declared content-length is read, the error is io.ErrUnexpectedEOF instead.
func (s *Stream) ReadPartialBody(maxlen int) ([]byte, error) {
	return s.conn.readBody(s.id, maxlen)
}

// Body returns a reader over the response body. Reads are binary.
func (s *Stream) Body() *iolib.Adapter {
	return iolib.NewAdapter(bodyReader{s})
}

type bodyReader struct{ s *Stream }

var _ iolib.PartialReader = bodyReader{}

func (br bodyReader) ReadPartial(maxlen int) ([]byte, error) {
	return br.s.ReadPartialBody(maxlen)
}

func (br bodyReader) Unread(b []byte) {
	br.s.conn.unreadBody(br.s.id, b)
}
