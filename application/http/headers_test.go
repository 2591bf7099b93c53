package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadersAdd(t *testing.T) {
	h := NewHeaders()
	h.Add(PseudoStatus, "200")
	h.Add("Content-Type", "text/html")
	h.Add("Set-Cookie", "a=1")
	h.Add("Vary", "Accept")
	h.Add("set-cookie", "b=2")
	h.Add("vary", "Origin")

	assert.Equal(t, [][2]string{
		{":status", "200"},
		{"content-type", "text/html"},
		{"set-cookie", "a=1"},
		{"set-cookie", "b=2"},
		{"vary", "Accept, Origin"},
	}, h.Fields())

	assert.Equal(t, []string{"a=1", "b=2"}, h.Values("Set-Cookie"))
	assert.Equal(t, 4, h.Len())

	v, ok := h.Get("VARY")
	assert.True(t, ok)
	assert.Equal(t, "Accept, Origin", v)
}

func TestHeadersSetDel(t *testing.T) {
	h := HeadersFrom(
		[2]string{"a", "1"},
		[2]string{"b", "2"},
		[2]string{"c", "3"},
	)

	h.Set("B", "two")
	h.Del("a")
	h.Del("missing")

	assert.Equal(t, [][2]string{{"b", "two"}, {"c", "3"}}, h.Fields())
	assert.False(t, h.Has("a"))

	_, ok := h.Get("a")
	assert.False(t, ok)
}

func TestHeadersClone(t *testing.T) {
	h := HeadersFrom([2]string{"set-cookie", "a=1"})
	clone := h.Clone()
	clone.Add("set-cookie", "b=2")

	assert.Equal(t, []string{"a=1"}, h.Values("set-cookie"))
	assert.Equal(t, []string{"a=1", "b=2"}, clone.Values("set-cookie"))
}

func TestIsPseudo(t *testing.T) {
	assert.True(t, IsPseudo(PseudoMethod))
	assert.True(t, IsPseudo(PseudoStatus))
	assert.False(t, IsPseudo(FieldHost))
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "1.1", Version11.Number())
	assert.Equal(t, "HTTP/1.1", Version11.String())
	assert.Equal(t, []byte("HTTP/1.0"), Version{1, 0}.Text())
}
