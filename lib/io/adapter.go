package iolib

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// PartialLen is the chunk size used when the caller doesn't bound a read.
const PartialLen = 4096

var (
	ErrZeroLenDelim         = errors.New("delim has zero length")
	ErrLineLimitUnsupported = errors.New("line length limit is not supported")
)

// Adapter builds line reads, full reads and [io.Reader] on top of a [PartialReader].
type Adapter struct {
	src PartialReader
}

var _ io.Reader = (*Adapter)(nil)

func NewAdapter(src PartialReader) *Adapter {
	return &Adapter{src: src}
}

// Source returns the underlying [PartialReader].
func (a *Adapter) Source() PartialReader { return a.src }

func (a *Adapter) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	b, err := a.src.ReadPartial(len(p))
	return copy(p, b), err
}

// ReadLine reads until sep and returns the line including sep.
// Bytes read past sep are pushed back to the source.
//
// io.EOF is returned when the source ends before any byte,
// io.ErrUnexpectedEOF when it ends in the middle of a line.
func (a *Adapter) ReadLine(sep []byte) ([]byte, error) {
	if len(sep) == 0 {
		return nil, ErrZeroLenDelim
	}

	buf, err := a.src.ReadPartial(PartialLen)
	if err != nil {
		return nil, err
	}

	last := 0
	for {
		if idx := bytes.Index(buf[last:], sep); idx >= 0 {
			pos := last + idx + len(sep)
			if pos < len(buf) {
				a.src.Unread(buf[pos:])
			}
			return decodeText(a.src, buf[:pos])
		}

		// sep may straddle the boundary of the next read.
		last = max(len(buf)-len(sep)+1, 0)

		more, err := a.src.ReadPartial(PartialLen)
		if err != nil {
			if err == io.EOF {
				return buf, io.ErrUnexpectedEOF
			}
			return buf, err
		}
		buf = append(buf, more...)
	}
}

// ReadLineLimit is not supported.
func (a *Adapter) ReadLineLimit(sep []byte, limit int) ([]byte, error) {
	return nil, ErrLineLimitUnsupported
}

// ReadAll reads in text mode until the source ends.
// It returns io.EOF only if the source produced no byte at all.
func (a *Adapter) ReadAll() ([]byte, error) {
	var out []byte
	for {
		b, err := a.src.ReadPartial(PartialLen)
		out = append(out, b...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}
	}

	if len(out) == 0 {
		return nil, io.EOF
	}

	return decodeText(a.src, out)
}

// ReadExact reads n bytes in binary mode. Fewer bytes are returned
// only if the source ends. io.EOF is returned only on immediate end.
// n <= 0 returns an empty slice without reading.
func (a *Adapter) ReadExact(n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}

	out := make([]byte, 0, n)
	for len(out) < n {
		b, err := a.src.ReadPartial(n - len(out))
		out = append(out, b...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}
	}

	if len(out) == 0 {
		return nil, io.EOF
	}

	return out, nil
}
