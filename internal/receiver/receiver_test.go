package receiver

import (
	"net"
	"testing"

	"github.com/kayros-web/kayros/config"
	"github.com/kayros-web/kayros/internal/headers"
	"github.com/kayros-web/kayros/internal/message"
	"github.com/stretchr/testify/require"
)

func pipeConn(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })
	return a, b
}

func TestReceiveSimpleGet(t *testing.T) {
	server, client := pipeConn(t)
	cfg := config.Default()

	go func() {
		_, _ = client.Write([]byte("GET /users?id=5 HTTP/1.1\r\nHost: example.com\r\nX-A: 1\r\n\r\n"))
	}()

	res, err := Receive(server, nil, cfg)
	require.NoError(t, err)
	require.Equal(t, message.Get, res.Message.Method)
	require.Equal(t, "/users", res.Message.Path)
	require.Equal(t, "id=5", res.Message.Query)
	require.Equal(t, TransferNone, res.Transfer)

	host, ok := res.Message.Headers.GetStandard(headers.Host)
	require.True(t, ok)
	require.Equal(t, "example.com", host)
	require.Equal(t, "1", res.Message.Headers.Value("X-A"))
}

func TestReceiveContentLength(t *testing.T) {
	server, client := pipeConn(t)
	cfg := config.Default()

	go func() {
		_, _ = client.Write([]byte("POST /submit HTTP/1.1\r\nContent-Length: 11\r\n\r\nhello world"))
	}()

	res, err := Receive(server, nil, cfg)
	require.NoError(t, err)
	require.Equal(t, TransferByLength, res.Transfer)
	require.Equal(t, int64(11), res.ContentLength)
	require.Equal(t, "hello world", string(res.Leftover))
}

func TestReceiveChunkedTransfer(t *testing.T) {
	server, client := pipeConn(t)
	cfg := config.Default()

	go func() {
		_, _ = client.Write([]byte("POST /submit HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n"))
	}()

	res, err := Receive(server, nil, cfg)
	require.NoError(t, err)
	require.Equal(t, TransferChunked, res.Transfer)
}

func TestReceiveUnsupportedEncodingRejected(t *testing.T) {
	server, client := pipeConn(t)
	cfg := config.Default()

	go func() {
		_, _ = client.Write([]byte("POST /submit HTTP/1.1\r\nTransfer-Encoding: gzip\r\n\r\n"))
	}()

	_, err := Receive(server, nil, cfg)
	require.Error(t, err)
}

func TestReceiveUnknownMethodRejected(t *testing.T) {
	server, client := pipeConn(t)
	cfg := config.Default()

	go func() {
		_, _ = client.Write([]byte("FROB /x HTTP/1.1\r\nHost: x\r\n\r\n"))
	}()

	_, err := Receive(server, nil, cfg)
	require.Error(t, err)
}

func TestReceiveFoldedHeaderValue(t *testing.T) {
	server, client := pipeConn(t)
	cfg := config.Default()

	go func() {
		_, _ = client.Write([]byte("GET / HTTP/1.1\r\nX-Long: part-one\r\n part-two\r\n\r\n"))
	}()

	res, err := Receive(server, nil, cfg)
	require.NoError(t, err)
	require.Equal(t, "part-one part-two", res.Message.Headers.Value("X-Long"))
}

func TestReceiveResponseStatusLine(t *testing.T) {
	server, client := pipeConn(t)
	cfg := config.Default()

	go func() {
		_, _ = client.Write([]byte("HTTP/1.1 404 Not Found\r\nContent-Length: 0\r\n\r\n"))
	}()

	res, err := Receive(server, nil, cfg)
	require.NoError(t, err)
	require.Equal(t, message.KindResponse, res.Message.Kind)
	require.Equal(t, 404, res.Message.Status)
	require.Equal(t, "Not Found", res.Message.Reason)
}

func TestReceiveBadHeaderNameRejected(t *testing.T) {
	server, client := pipeConn(t)
	cfg := config.Default()

	go func() {
		_, _ = client.Write([]byte("GET / HTTP/1.1\r\nBad Name: x\r\n\r\n"))
	}()

	_, err := Receive(server, nil, cfg)
	require.Error(t, err)
}
