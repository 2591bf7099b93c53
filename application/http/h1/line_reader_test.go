package h1

import (
	"bytes"
	"io"
	"testing"

	"wirehttp/application/http"
	iolib "wirehttp/lib/io"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(s string) (*iolib.Adapter, *iolib.ReaderSource) {
	src := iolib.NewReaderSource(bytes.NewReader([]byte(s)))
	return iolib.NewAdapter(src), src
}

func TestLineReader(t *testing.T) {
	a, src := newTestAdapter("Host: example.com\r\nAccept: */*\r\n\r\nbody")
	lr := NewLineReader(a)

	line, err := lr.NextLine()
	require.NoError(t, err)
	assert.Equal(t, "Host: example.com", string(line))

	line, err = lr.NextLine()
	require.NoError(t, err)
	assert.Equal(t, "Accept: */*", string(line))

	_, err = lr.NextLine()
	assert.ErrorIs(t, err, io.EOF)

	// Stays at its end and doesn't touch the rest.
	_, err = lr.NextLine()
	assert.ErrorIs(t, err, io.EOF)

	rest, err := a.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "body", string(rest))
	assert.Zero(t, src.Buffered())
}

func TestLineReaderErrors(t *testing.T) {
	testcases := []struct {
		desc    string
		input   string
		wantErr error
	}{
		{desc: "ends without empty line", input: "Host: example.com\r\n", wantErr: io.ErrUnexpectedEOF},
		{desc: "ends in the middle of a line", input: "Host: exa", wantErr: io.ErrUnexpectedEOF},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			a, _ := newTestAdapter(tc.input)
			lr := NewLineReader(a)

			var err error
			for err == nil {
				_, err = lr.NextLine()
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestLineReaderBareLF(t *testing.T) {
	// A bare LF doesn't end a line, so it ends up in the field value.
	a, _ := newTestAdapter("Host: example.com\nAccept: */*\r\n\r\n")

	err := http.ParseFieldLines(NewLineReader(a), func(name, value string) error { return nil })
	assert.ErrorIs(t, err, http.ErrMalformedFieldLine)
}

func TestLineReaderWithFieldLines(t *testing.T) {
	a, _ := newTestAdapter("Field1: foo\r\n\tbar \r\n baz\r\nField2: x\r\n\r\n")

	var fields [][2]string
	err := http.ParseFieldLines(NewLineReader(a), func(name, value string) error {
		fields = append(fields, [2]string{name, value})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"field1", "foo bar baz"}, {"field2", "x"}}, fields)
}
