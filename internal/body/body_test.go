package body

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/kayros-web/kayros/config"
	"github.com/stretchr/testify/require"
)

// pipeConn wires an in-process net.Pipe so the receive paths can be exercised
// against a real net.Conn without opening a socket.
func pipeConn(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })
	return a, b
}

func testRetry() config.Retry {
	return config.Retry{MaxCount: 3, BaseBackoff: time.Millisecond}
}

func TestMemoryReceiveByLength(t *testing.T) {
	server, client := pipeConn(t)

	go func() {
		_, _ = client.Write([]byte("hello world"))
	}()

	m := NewMemory()
	err := m.ReceiveByLength(server, nil, 11, testRetry(), 1<<20)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(m.data))
}

func TestMemoryReceiveByLengthWithCarryover(t *testing.T) {
	server, client := pipeConn(t)

	go func() {
		_, _ = client.Write([]byte("world"))
	}()

	m := NewMemory()
	err := m.ReceiveByLength(server, []byte("hello "), 11, testRetry(), 1<<20)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(m.data))
}

func TestMemoryReceiveByLengthOversizedCarryoverFails(t *testing.T) {
	server, _ := pipeConn(t)

	m := NewMemory()
	err := m.ReceiveByLength(server, []byte("too much data"), 4, testRetry(), 1<<20)
	require.Error(t, err)
}

func TestMemoryReceiveChunked(t *testing.T) {
	server, client := pipeConn(t)

	go func() {
		_, _ = client.Write([]byte("5\r\nhello\r\n6\r\n world\r\n0\r\n\r\nEXTRA"))
	}()

	m := NewMemory()
	extra, err := m.ReceiveChunked(server, nil, testRetry(), 1<<20)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(m.data))
	require.Equal(t, "EXTRA", string(extra))
}

func TestMemoryReceiveChunkedSizeMismatch(t *testing.T) {
	server, client := pipeConn(t)

	go func() {
		_, _ = client.Write([]byte("5\r\nhelloXX\r\n0\r\n\r\n"))
	}()

	m := NewMemory()
	_, err := m.ReceiveChunked(server, nil, testRetry(), 1<<20)
	require.Error(t, err)
}

func TestMemoryReceiveChunkedTooLarge(t *testing.T) {
	server, client := pipeConn(t)

	go func() {
		_, _ = client.Write([]byte("a\r\n0123456789\r\n0\r\n\r\n"))
	}()

	m := NewMemory()
	_, err := m.ReceiveChunked(server, nil, testRetry(), 5)
	require.Error(t, err)
}

func TestMemoryReceiveChunkedOversizedHexTokenIsRejected(t *testing.T) {
	server, client := pipeConn(t)

	go func() {
		// 16 hex digits: parses to a value that would overflow int64 if not
		// rejected outright, rather than merely exceeding maxBodySize.
		_, _ = client.Write([]byte("ffffffffffffffff\r\n"))
	}()

	m := NewMemory()
	_, err := m.ReceiveChunked(server, nil, testRetry(), 1<<20)
	require.Error(t, err)
}

func TestFileBodyAppendAndRead(t *testing.T) {
	f, err := NewFile(t.TempDir(), "scratch.bin")
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.Append([]byte("hello ")))
	require.NoError(t, f.Append([]byte("world")))
	require.Equal(t, int64(11), f.Size())

	out, err := f.Read(6, 5)
	require.NoError(t, err)
	require.Equal(t, "world", string(out))
}

func TestFileBodyReceiveByLength(t *testing.T) {
	server, client := pipeConn(t)

	payload := make([]byte, 3000)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}

	go func() {
		_, _ = client.Write(payload)
	}()

	f, err := NewFile(t.TempDir(), "scratch.bin")
	require.NoError(t, err)
	defer f.Close()

	err = f.ReceiveByLength(server, nil, int64(len(payload)), testRetry(), 1<<20)
	require.NoError(t, err)
	require.Equal(t, int64(len(payload)), f.Size())

	out, err := f.Read(0, int64(len(payload)))
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestFileBodySendByLength(t *testing.T) {
	server, client := pipeConn(t)

	f, err := NewFile(t.TempDir(), "scratch.bin")
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.Append([]byte("streamed response body")))

	done := make(chan []byte, 1)
	go func() {
		buf, _ := io.ReadAll(io.LimitReader(client, int64(f.Size())))
		done <- buf
	}()

	require.NoError(t, f.SendByLength(server, testRetry()))
	require.Equal(t, "streamed response body", string(<-done))
}
