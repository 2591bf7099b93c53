package h1

import (
	"bytes"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"wirehttp/application/http"
	"wirehttp/application/util/rule"
	iolib "wirehttp/lib/io"

	"github.com/pkg/errors"
)

var (
	ErrUnsupportedFraming   = errors.New("chunked transfer coding is not supported")
	ErrInvalidContentLength = errors.New("invalid content-length")
	ErrMissingPseudoHeader  = errors.New("missing :method or :path")
	ErrInvalidHeader        = errors.New("invalid header for request")

	// ErrConnNotReusable is returned when the previous response body
	// is delimited by connection close.
	ErrConnNotReusable = errors.Wrap(ErrProtocolState, "connection is not reusable")
)

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.6
var contentLengthPattern = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)

// Conn is a client side HTTP/1.1 connection over a byte stream.
// It runs one exchange at a time and is not safe for concurrent use.
type Conn struct {
	stream iolib.Stream
	r      *iolib.Adapter

	logger *slog.Logger

	write writeState
	read  readState

	length   int64 // declared body length. Used only for length-delimited.
	consumed int64

	method  string // of the request written in the current exchange.
	version http.Version
	status  int

	seq     uint64 // id of the stream owning the current exchange.
	pending []byte // body bytes pushed back by the caller.
}

type Option func(c *Conn)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Conn) { c.logger = logger }
}

// NewConn takes ownership of an already opened stream.
func NewConn(stream iolib.Stream, opts ...Option) *Conn {
	c := &Conn{
		stream: stream,
		r:      iolib.NewAdapter(stream),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stream returns the underlying byte stream.
func (c *Conn) Stream() iolib.Stream { return c.stream }

// Version returns the version of the last status line read.
func (c *Conn) Version() http.Version { return c.version }

// Status returns the status code of the last status line read.
// It is zero until a status line of the current exchange is read.
func (c *Conn) Status() int { return c.status }

// Reusable reports whether the current exchange is complete
// so that another stream can be opened.
func (c *Conn) Reusable() bool {
	return c.write == writeFin && c.read == readLengthDelimited && c.consumed == c.length
}

// OpenStream starts a new exchange.
// Streams opened before become stale.
//
// The connection is reused only if the previous exchange is complete,
// meaning the request was written and a length-delimited body was read to its end.
func (c *Conn) OpenStream() (*Stream, error) {
	if err := c.reset(); err != nil {
		return nil, err
	}

	c.seq++
	c.logger.Debug("opened stream", slog.Uint64("stream", c.seq))

	return &Stream{conn: c, id: c.seq}, nil
}

func (c *Conn) reset() error {
	if c.write == writeHeader && c.read == readHeader {
		// Nothing is on the wire yet.
		return nil
	}

	switch c.read {
	case readIndefinite, readChunked:
		return ErrConnNotReusable
	case readHeader:
		return errors.Wrap(ErrProtocolState, "response is not read yet")
	case readLengthDelimited:
		if c.consumed < c.length {
			return errors.Wrapf(ErrProtocolState, "%d bytes of body left unread", c.length-c.consumed)
		}
	}

	write, err := c.write.transition(writeHeader)
	if err != nil {
		return errors.Wrap(err, "resetting exchange")
	}
	read, err := c.read.transition(readHeader)
	if err != nil {
		return errors.Wrap(err, "resetting exchange")
	}

	c.write, c.read = write, read
	c.length, c.consumed = 0, 0
	c.pending = nil
	c.method, c.version, c.status = "", http.Version{}, 0

	return nil
}

func (c *Conn) checkStream(id uint64) error {
	if id != c.seq {
		return errors.Wrapf(ErrProtocolState, "stream %d is stale", id)
	}
	return nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3
func (c *Conn) writeHeaders(id uint64, h *http.Headers) error {
	if err := c.checkStream(id); err != nil {
		return err
	}

	next, err := c.write.transition(writeFin)
	if err != nil {
		return errors.Wrap(err, "writing headers")
	}

	method, ok := h.Get(http.PseudoMethod)
	if !ok {
		return ErrMissingPseudoHeader
	}
	path, ok := h.Get(http.PseudoPath)
	if !ok {
		return ErrMissingPseudoHeader
	}

	if !rule.IsValidToken(method) {
		return errors.Wrapf(ErrInvalidHeader, "method %q", method)
	}
	if path == "" || strings.ContainsFunc(path, func(r rune) bool { return r <= ' ' || r == rune(rule.DEL) }) {
		return errors.Wrapf(ErrInvalidHeader, "path %q", path)
	}

	var buf bytes.Buffer
	buf.WriteString(method)
	buf.WriteByte(rule.SP)
	buf.WriteString(path)
	buf.WriteByte(rule.SP)
	buf.Write(http.Version11.Text())
	buf.Write(rule.CRLF)

	// Host goes first.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-7.2-6
	if host, ok := h.Get(http.FieldHost); ok {
		if err := writeField(&buf, http.FieldHost, host); err != nil {
			return err
		}
	}

	for _, field := range h.Fields() {
		name, value := field[0], field[1]
		if http.IsPseudo(name) || name == http.FieldHost {
			continue
		}
		if err := writeField(&buf, name, value); err != nil {
			return err
		}
	}

	buf.Write(rule.CRLF)

	if _, err := iolib.WriteFull(c.stream, buf.Bytes()); err != nil {
		return errors.Wrap(err, "writing request header")
	}

	c.write, c.method = next, method
	c.logger.Debug("wrote request header",
		slog.Uint64("stream", id),
		slog.String("method", method),
		slog.String("path", path),
	)

	return nil
}

func writeField(buf *bytes.Buffer, name, value string) error {
	if !rule.IsValidToken(name) {
		return errors.Wrapf(ErrInvalidHeader, "field name %q", name)
	}
	if !rule.IsValidFieldValue([]byte(value)) {
		return errors.Wrapf(ErrInvalidHeader, "field value for %q", name)
	}

	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.Write(rule.CRLF)
	return nil
}

func (c *Conn) readHeaders(id uint64) (*http.Headers, error) {
	if err := c.checkStream(id); err != nil {
		return nil, err
	}

	if c.read != readHeader {
		return nil, errors.Wrapf(ErrProtocolState, "reading headers in %s state", c.read)
	}

	line, err := c.r.ReadLine(rule.CRLF)
	if err != nil {
		return nil, errors.Wrap(err, "reading status line")
	}
	line, err = http.StripLine(line)
	if err != nil {
		return nil, errors.Wrap(err, "reading status line")
	}

	version, status, err := http.ParseStatusLine(line)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing status line %q", line)
	}
	c.version, c.status = version, status

	headers := http.NewHeaders()
	headers.Set(http.PseudoStatus, strconv.Itoa(status))

	err = http.ParseFieldLines(NewLineReader(c.r), func(name, value string) error {
		headers.Add(name, value)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading fields")
	}

	if err := c.determineFraming(headers); err != nil {
		return nil, err
	}

	c.logger.Debug("read response header",
		slog.Uint64("stream", id),
		slog.Int("status", status),
		slog.String("framing", c.read.String()),
	)

	return headers, nil
}

// determineFraming decides how the body ends and moves into the matching state.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3
func (c *Conn) determineFraming(headers *http.Headers) error {
	var (
		next   readState
		length int64
	)

	switch {
	case c.status >= 100 && c.status <= 199:
		// Another header block follows.
		next = readHeader

	case c.method == "HEAD", c.status == 204 || c.status == 304:
		// No body, whatever the fields say.
		next = readLengthDelimited

	case headers.Has(http.FieldTransferEncoding):
		te, _ := headers.Get(http.FieldTransferEncoding)

		// Transfer-Encoding overrides Content-Length and is connection-specific.
		headers.Del(http.FieldTransferEncoding)
		headers.Del(http.FieldContentLength)

		next = readIndefinite
		codings := http.SplitList(te)
		if len(codings) > 0 && strings.EqualFold(codings[len(codings)-1], "chunked") {
			next = readChunked
		}

	case headers.Has(http.FieldContentLength):
		cl, _ := headers.Get(http.FieldContentLength)
		if !contentLengthPattern.MatchString(cl) {
			return errors.Wrapf(ErrInvalidContentLength, "%q", cl)
		}

		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil {
			return errors.Wrapf(ErrInvalidContentLength, "%q", cl)
		}

		next, length = readLengthDelimited, n

	default:
		next = readIndefinite
	}

	read, err := c.read.transition(next)
	if err != nil {
		return err
	}

	c.read = read
	c.length, c.consumed = length, 0

	if read == readChunked {
		return ErrUnsupportedFraming
	}

	return nil
}

func (c *Conn) readPartialBody(id uint64, maxlen int) ([]byte, error) {
	if err := c.checkStream(id); err != nil {
		return nil, err
	}

	switch c.read {
	case readLengthDelimited:
		if maxlen <= 0 {
			return []byte{}, nil
		}

		remaining := c.length - c.consumed
		if remaining == 0 {
			return nil, io.EOF
		}

		b, err := c.stream.ReadPartial(int(min(int64(maxlen), remaining)))
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, errors.Wrapf(err, "reading body with %d bytes remaining", remaining)
		}

		c.consumed += int64(len(b))
		return b, nil

	case readChunked:
		return nil, ErrUnsupportedFraming

	case readIndefinite:
		// The body ends when the connection closes.
		return c.stream.ReadPartial(maxlen)
	}

	return nil, errors.Wrapf(ErrProtocolState, "reading body in %s state", c.read)
}

func (c *Conn) readBody(id uint64, maxlen int) ([]byte, error) {
	if len(c.pending) > 0 && maxlen > 0 {
		if err := c.checkStream(id); err != nil {
			return nil, err
		}

		n := min(maxlen, len(c.pending))
		b := bytes.Clone(c.pending[:n])
		c.pending = c.pending[n:]
		return b, nil
	}

	return c.readPartialBody(id, maxlen)
}

func (c *Conn) unreadBody(id uint64, b []byte) {
	if id != c.seq || len(b) == 0 {
		return
	}
	c.pending = append(bytes.Clone(b), c.pending...)
}

// Flush sends buffered bytes of the stream.
func (c *Conn) Flush() error {
	if err := c.stream.Flush(); err != nil {
		return errors.Wrap(err, "flushing stream")
	}
	return nil
}

// Close releases the underlying stream.
func (c *Conn) Close() error {
	c.logger.Debug("closing connection")
	return c.stream.Close()
}
