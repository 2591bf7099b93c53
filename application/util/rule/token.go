package rule

// IsTokenChar reports whether c is a tchar.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.2-2
func IsTokenChar(c byte) bool {
	if IsAlpha(c) || IsDigit(c) {
		return true
	}

	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+',
		'-', '.', '^', '_', '`', '|', '~':
		return true
	}

	return false
}

func IsValidToken(s string) bool {
	if len(s) == 0 {
		return false
	}
	for idx := 0; idx < len(s); idx++ {
		if !IsTokenChar(s[idx]) {
			return false
		}
	}

	return true
}

// IsFieldValueChar reports whether c may appear in a field value.
// That is HTAB, SP, VCHAR and obs-text (%x80-FF).
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.5-2
func IsFieldValueChar(c byte) bool {
	switch {
	case c == HTAB:
		return true
	case c < SP, c == DEL:
		return false
	}
	return true
}

func IsValidFieldValue(b []byte) bool {
	for _, c := range b {
		if !IsFieldValueChar(c) {
			return false
		}
	}
	return true
}
