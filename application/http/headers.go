package http

import (
	"strings"
)

const (
	PseudoMethod = ":method"
	PseudoPath   = ":path"
	PseudoStatus = ":status"

	FieldHost             = "host"
	FieldSetCookie        = "set-cookie"
	FieldContentLength    = "content-length"
	FieldTransferEncoding = "transfer-encoding"
)

// IsPseudo reports whether name is a synthetic pseudo-header such as ":status".
// Pseudo-headers are never emitted as field lines.
func IsPseudo(name string) bool { return strings.HasPrefix(name, ":") }

// Headers is an ordered field map keyed by lowercased field name.
//
// Set-Cookie keeps every value, since it cannot be combined.
// Any other repeated field is combined into a single comma-separated value
// at the position it was first seen.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.3
type Headers struct {
	names      []string
	underlying map[string][]string
}

func NewHeaders() *Headers {
	return &Headers{underlying: make(map[string][]string)}
}

// HeadersFrom builds headers from name-value pairs, applying [Headers.Add] on each.
func HeadersFrom(fields ...[2]string) *Headers {
	h := NewHeaders()
	for _, f := range fields {
		h.Add(f[0], f[1])
	}
	return h
}

// Add appends value to the field, combining it if the field already exists.
func (h *Headers) Add(name, value string) {
	name = strings.ToLower(name)

	values, ok := h.underlying[name]
	switch {
	case !ok:
		h.names = append(h.names, name)
		h.underlying[name] = []string{value}
	case name == FieldSetCookie:
		h.underlying[name] = append(values, value)
	default:
		values[0] = values[0] + ", " + value
	}
}

// Set replaces the field, keeping its position if it already exists.
func (h *Headers) Set(name, value string) {
	name = strings.ToLower(name)
	if _, ok := h.underlying[name]; !ok {
		h.names = append(h.names, name)
	}
	h.underlying[name] = []string{value}
}

// Get returns the first value of the field.
func (h *Headers) Get(name string) (value string, ok bool) {
	values, ok := h.underlying[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return values[0], true
}

// Values returns all values of the field. Only Set-Cookie may have more than one.
func (h *Headers) Values(name string) []string {
	values := h.underlying[strings.ToLower(name)]
	return append([]string(nil), values...)
}

func (h *Headers) Has(name string) bool {
	_, ok := h.underlying[strings.ToLower(name)]
	return ok
}

func (h *Headers) Del(name string) {
	name = strings.ToLower(name)
	if _, ok := h.underlying[name]; !ok {
		return
	}
	delete(h.underlying, name)
	for idx, n := range h.names {
		if n == name {
			h.names = append(h.names[:idx], h.names[idx+1:]...)
			break
		}
	}
}

// Len returns the number of distinct field names, pseudo-headers included.
func (h *Headers) Len() int { return len(h.names) }

// Fields returns fields in insertion order.
// Each Set-Cookie value is returned as its own entry.
// fields = [name, value]
func (h *Headers) Fields() (fields [][2]string) {
	fields = make([][2]string, 0, len(h.names))
	for _, name := range h.names {
		for _, v := range h.underlying[name] {
			fields = append(fields, [2]string{name, v})
		}
	}
	return fields
}

// Clone returns a deep copy.
func (h *Headers) Clone() *Headers {
	clone := &Headers{
		names:      append([]string(nil), h.names...),
		underlying: make(map[string][]string, len(h.underlying)),
	}
	for k, v := range h.underlying {
		clone.underlying[k] = append([]string(nil), v...)
	}
	return clone
}
