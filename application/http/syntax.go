package http

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"wirehttp/application/util/rule"

	"github.com/pkg/errors"
)

var (
	ErrMalformedLine       = errors.New("line is not terminated with CRLF")
	ErrMalformedStatusLine = errors.New("status line is malformed")
	ErrMalformedFieldLine  = errors.New("field line is malformed")
)

// StripLine removes the CRLF terminating line.
// A sole LF is not recognized as a line terminator.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
func StripLine(line []byte) ([]byte, error) {
	if !bytes.HasSuffix(line, rule.CRLF) {
		return nil, ErrMalformedLine
	}
	return line[:len(line)-len(rule.CRLF)], nil
}

// ParseStatusLine parses a stripped status line.
// The reason phrase is validated but dropped, since a client SHOULD ignore it.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-4
func ParseStatusLine(line []byte) (Version, int, error) {
	// "HTTP/" DIGIT "." DIGIT SP 3DIGIT SP
	const prefixLen = len("HTTP/1.1 200 ")

	if len(line) < prefixLen {
		return Version{}, 0, ErrMalformedStatusLine
	}

	ver, err := parseVersion(line[:8])
	if err != nil {
		return Version{}, 0, ErrMalformedStatusLine
	}

	if line[8] != rule.SP || line[12] != rule.SP {
		return Version{}, 0, ErrMalformedStatusLine
	}

	code := line[9:12]
	if code[0] < '1' || code[0] > '5' || !rule.IsDigit(code[1]) || !rule.IsDigit(code[2]) {
		return Version{}, 0, ErrMalformedStatusLine
	}

	// reason-phrase = 1*( HTAB / SP / VCHAR / obs-text ), but may be empty.
	if !rule.IsValidFieldValue(line[prefixLen:]) {
		return Version{}, 0, ErrMalformedStatusLine
	}

	status, _ := strconv.Atoi(string(code))

	return ver, status, nil
}

// parseVersion parses exactly "HTTP/" DIGIT "." DIGIT.
// HTTP-name is case-sensitive.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.3
func parseVersion(b []byte) (Version, error) {
	if len(b) != 8 || !bytes.HasPrefix(b, []byte("HTTP/")) {
		return Version{}, errors.Errorf("invalid http version: %q", b)
	}
	if !rule.IsDigit(b[5]) || b[6] != '.' || !rule.IsDigit(b[7]) {
		return Version{}, errors.Errorf("invalid http version: %q", b)
	}
	return Version{uint(b[5] - '0'), uint(b[7] - '0')}, nil
}

// SplitList splits a comma-separated list, trimming each element.
// Empty elements are dropped.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.1
func SplitList(text string) []string {
	parts := strings.Split(text, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		part = string(rule.TrimOWS([]byte(part)))
		if part == "" {
			continue
		}
		list = append(list, part)
	}
	return list
}

// ParseFieldLine parses a single stripped field line.
// The name is lowercased. The value has its surrounding OWS removed.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5
func ParseFieldLine(line []byte) (name, value string, err error) {
	rawName, rawValue, found := bytes.Cut(line, []byte{':'})
	if !found {
		return "", "", errors.Wrap(ErrMalformedFieldLine, "colon seperator not found")
	}

	// No whitespace is allowed between field name and colon.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.1-2
	if !rule.IsValidToken(string(rawName)) {
		return "", "", errors.Wrapf(ErrMalformedFieldLine, "invalid field name %q", rawName)
	}

	if !rule.IsValidFieldValue(rawValue) {
		return "", "", errors.Wrapf(ErrMalformedFieldLine, "invalid field value for %q", rawName)
	}

	return strings.ToLower(string(rawName)), string(rule.TrimOWS(rawValue)), nil
}

// LineSource yields stripped lines one by one. io.EOF ends the sequence.
type LineSource interface {
	NextLine() ([]byte, error)
}

type sliceLines struct{ lines [][]byte }

// SliceLines adapts already-split lines into a [LineSource].
func SliceLines[T ~string | ~[]byte](lines ...T) LineSource {
	sl := &sliceLines{lines: make([][]byte, 0, len(lines))}
	for _, line := range lines {
		sl.lines = append(sl.lines, []byte(line))
	}
	return sl
}

func (sl *sliceLines) NextLine() ([]byte, error) {
	if len(sl.lines) == 0 {
		return nil, io.EOF
	}
	line := sl.lines[0]
	sl.lines = sl.lines[1:]
	return line, nil
}

// ParseFieldLines parses a field section, unfolding obs-fold continuations.
// Each continuation line contributes exactly one SP followed by its trimmed text.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.2
func ParseFieldLines(lines LineSource, emit func(name, value string) error) error {
	var (
		name    string
		value   []byte
		pending bool
	)

	flush := func() error {
		if !pending {
			return nil
		}
		pending = false
		return emit(name, string(value))
	}

	for {
		line, err := lines.NextLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "reading field line")
		}

		if len(line) > 0 && rule.IsOWS(line[0]) {
			if !pending {
				return errors.Wrap(ErrMalformedFieldLine, "obs-fold on the first field line")
			}

			folded := rule.TrimOWS(line)
			if !rule.IsValidFieldValue(folded) {
				return errors.Wrapf(ErrMalformedFieldLine, "invalid folded value for %q", name)
			}

			value = append(value, rule.SP)
			value = append(value, folded...)
			continue
		}

		if err := flush(); err != nil {
			return err
		}

		n, v, err := ParseFieldLine(line)
		if err != nil {
			return err
		}
		name, value, pending = n, []byte(v), true
	}

	return flush()
}
