package iolib

import (
	"bytes"
	"io"
)

// PartialReader is the primitive every byte source provides.
//
// ReadPartial blocks until at least one byte is available and returns
// between 1 and maxlen bytes. It returns io.EOF only when no byte remains.
// The returned slice is owned by the caller.
//
// Unread pushes b back so that it is returned by following reads
// before anything else.
type PartialReader interface {
	ReadPartial(maxlen int) ([]byte, error)
	Unread(b []byte)
}

// Encoded is implemented by sources carrying text encodings.
// Text-mode reads transcode from external to internal when both are set.
// Sources that don't implement it are binary.
type Encoded interface {
	Encodings() (external, internal string)
}

// ReaderSource turns an [io.Reader] into a [PartialReader].
type ReaderSource struct {
	r io.Reader

	buf *bytes.Buffer // bytes pushed back by Unread.
	err error         // error held back while returning bytes.
}

var _ PartialReader = (*ReaderSource)(nil)

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r, buf: bytes.NewBuffer(nil)}
}

func (rs *ReaderSource) ReadPartial(maxlen int) ([]byte, error) {
	if maxlen <= 0 {
		return []byte{}, nil
	}

	if rs.buf.Len() > 0 {
		// If buffer has remaining bytes, serve them first.
		return bytes.Clone(rs.buf.Next(maxlen)), nil
	}

	if rs.err != nil {
		err := rs.err
		rs.err = nil
		return nil, err
	}

	p := make([]byte, maxlen)
	for {
		n, err := rs.r.Read(p)
		if n > 0 {
			// Report the error on the next call.
			rs.err = err
			return p[:n], nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (rs *ReaderSource) Unread(b []byte) {
	if len(b) == 0 {
		return
	}

	rest := bytes.Clone(rs.buf.Bytes())
	rs.buf.Reset()
	rs.buf.Write(b)
	rs.buf.Write(rest)
}

// Buffered returns the number of bytes waiting to be replayed.
func (rs *ReaderSource) Buffered() int { return rs.buf.Len() }
