package headers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetCaseInsensitive(t *testing.T) {
	h := New()
	h.Set("content-type", "text/plain")
	h.Set("CONTENT-TYPE", "application/json")

	v, ok := h.Get("Content-Type")
	require.True(t, ok)
	require.Equal(t, "application/json", v)
}

func TestCustomHeaderCaseInsensitive(t *testing.T) {
	h := New()
	h.Set("X-Request-Id", "abc")
	h.Set("x-request-id", "def")

	v, ok := h.Get("X-REQUEST-ID")
	require.True(t, ok)
	require.Equal(t, "def", v)
	require.Equal(t, 1, h.Len())
}

func TestIterOrderStandardBeforeCustom(t *testing.T) {
	h := New()
	h.Set("X-Custom", "1")
	h.Set("Content-Length", "2")
	h.Set("Host", "example.com")

	var order []string
	h.Iter(func(p Pair) bool {
		order = append(order, p.Name)
		return true
	})

	require.Equal(t, []string{"Content-Length", "Host", "X-Custom"}, order)
}

func TestDeleteAndReset(t *testing.T) {
	h := New()
	h.Set("Host", "x")
	h.Set("X-A", "1")

	h.Delete("Host")
	require.False(t, h.Has("Host"))

	h.Delete("x-a")
	require.False(t, h.Has("X-A"))
	require.Equal(t, 0, h.Len())

	h.Set("Host", "y")
	h.Reset()
	require.Equal(t, 0, h.Len())
}

func TestLookupStandardFold(t *testing.T) {
	s, ok := LookupStandard("tRaNsFeR-EnCoDiNg")
	require.True(t, ok)
	require.Equal(t, TransferEncoding, s)
	require.Equal(t, "Transfer-Encoding", s.String())
}
