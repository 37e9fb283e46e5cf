package session

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/kayros-web/kayros/config"
	kerrors "github.com/kayros-web/kayros/errors"
	"github.com/kayros-web/kayros/internal/body"
	"github.com/kayros-web/kayros/internal/headers"
	"github.com/kayros-web/kayros/internal/message"
	"github.com/kayros-web/kayros/internal/receiver"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.NET.IdleTimeout = 200 * time.Millisecond
	cfg.NET.ReceiveTimeout = 200 * time.Millisecond
	return cfg
}

func memoryChooser(msg *message.Message, transfer receiver.TransferMethod, contentLength int64) (body.Store, error) {
	return body.NewMemory(), nil
}

func echoHandler(msg *message.Message) *message.Message {
	resp := message.NewResponse(message.StatusOK)
	resp.Headers.SetStandard(headers.ContentType, "text/plain")
	return resp
}

func TestSessionClosesWithoutKeepAlive(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	s := New(server, testConfig(), memoryChooser, echoHandler)

	done := make(chan Stats, 1)
	go func() { done <- s.Run() }()

	_, err := client.Write([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(client)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "200")

	stats := <-done
	require.Equal(t, 1, stats.Iterations)
	require.Equal(t, Done, s.State)
}

func TestSessionLoopsOnKeepAlive(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	calls := 0
	handler := func(msg *message.Message) *message.Message {
		calls++
		resp := message.NewResponse(message.StatusOK)
		return resp
	}

	s := New(server, testConfig(), memoryChooser, handler)

	done := make(chan Stats, 1)
	go func() { done <- s.Run() }()

	reader := bufio.NewReader(client)

	_, err := client.Write([]byte("GET / HTTP/1.1\r\nHost: x\r\nConnection: keep-alive\r\n\r\n"))
	require.NoError(t, err)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "200")
	// The first response carries no headers, so its head ends with a bare CRLF.
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "\r\n", line)

	_, err = client.Write([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n"))
	require.NoError(t, err)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "200")

	stats := <-done
	require.Equal(t, 2, stats.Iterations)
	require.Equal(t, 2, calls)
}

func TestSessionRecoversFromHandlerPanic(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	panicHandler := func(msg *message.Message) *message.Message {
		panic("boom")
	}

	s := New(server, testConfig(), memoryChooser, panicHandler)

	done := make(chan Stats, 1)
	go func() { done <- s.Run() }()

	_, err := client.Write([]byte("GET / HTTP/1.1\r\nHost: x\r\nConnection: keep-alive\r\n\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(client)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "500")

	stats := <-done
	require.ErrorIs(t, stats.Err, kerrors.ErrHandlerPanic)
	require.Equal(t, Done, s.State)
}
