package h1

import (
	"io"

	"wirehttp/application/http"
	"wirehttp/application/util/rule"

	"github.com/pkg/errors"
)

type lineReader interface {
	ReadLine(sep []byte) ([]byte, error)
}

// LineReader yields the stripped lines of one header block.
// The sequence ends at the first empty line, which is consumed.
// It is not restartable: a new LineReader is needed for every block.
type LineReader struct {
	r    lineReader
	done bool
}

var _ http.LineSource = (*LineReader)(nil)

func NewLineReader(r lineReader) *LineReader {
	return &LineReader{r: r}
}

func (lr *LineReader) NextLine() ([]byte, error) {
	if lr.done {
		return nil, io.EOF
	}

	line, err := lr.r.ReadLine(rule.CRLF)
	if err != nil {
		if err == io.EOF {
			// The block must end with an empty line.
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.Wrap(err, "reading line")
	}

	stripped, err := http.StripLine(line)
	if err != nil {
		return nil, err
	}

	if len(stripped) == 0 {
		lr.done = true
		return nil, io.EOF
	}

	return stripped, nil
}
