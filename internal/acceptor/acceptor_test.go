package acceptor

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/kayros-web/kayros/config"
	"github.com/kayros-web/kayros/internal/dispatcher"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testNET() config.NET {
	return config.NET{ReceiveTimeout: time.Second, IdleTimeout: time.Second, ListenBacklog: 16}
}

func testDispatcher() *dispatcher.Dispatcher {
	return dispatcher.New(config.Dispatcher{WorkerPoolSize: 2, DrainInterval: 5 * time.Millisecond})
}

func TestListenBindsAddress(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	require.NotEmpty(t, ln.Addr().String())
}

func TestAsyncAcceptDeliversConnection(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	disp := testDispatcher()
	go disp.Run()
	defer disp.Stop()

	a := New(ln, disp, testNET(), zap.NewNop())
	// Deferred after disp.Stop so it runs first: Stop waits for the re-posted
	// accept task, which only returns once the acceptor is closed.
	defer a.Close()

	var mu sync.Mutex
	var accepted net.Conn
	connected := make(chan struct{}, 1)

	a.AsyncAccept(func(conn net.Conn) {
		mu.Lock()
		accepted = conn
		mu.Unlock()
		connected <- struct{}{}
	})

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	select {
	case <-connected:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for accepted connection")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, accepted)
	_ = accepted.Close()
}

func TestCloseStopsFutureAccepts(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)

	disp := testDispatcher()
	go disp.Run()
	defer disp.Stop()

	a := New(ln, disp, testNET(), zap.NewNop())
	require.NoError(t, a.Close())

	called := make(chan struct{}, 1)
	a.AsyncAccept(func(conn net.Conn) { called <- struct{}{} })

	select {
	case <-called:
		t.Fatal("onConnect should not run after Close")
	case <-time.After(100 * time.Millisecond):
	}
}
