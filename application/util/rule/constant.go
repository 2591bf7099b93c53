package rule

const (
	CR   byte = '\r'
	LF   byte = '\n'
	SP   byte = ' '
	HTAB byte = '\t'
	DEL  byte = 0x7F
)

var (
	OWS  = []byte{SP, HTAB}
	CRLF = []byte{CR, LF}
)

func IsOWS(c byte) bool   { return c == SP || c == HTAB }
func IsAlpha(c byte) bool { return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') }
func IsDigit(c byte) bool { return '0' <= c && c <= '9' }

// TrimOWS strips leading and trailing SP/HTAB.
func TrimOWS(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && IsOWS(b[start]) {
		start++
	}
	for end > start && IsOWS(b[end-1]) {
		end--
	}
	return b[start:end]
}
