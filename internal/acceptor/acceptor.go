// Package acceptor owns the listening socket, grounded on the original C++
// core's Acceptor (original_source/Acceptor.h, Acceptor.cpp): a single
// in-flight accept, re-posted to the dispatcher on every success or failure,
// with the accepted connection configured and handed to the dispatcher's
// accept-completion queue.
package acceptor

import (
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/kayros-web/kayros/config"
	kerrors "github.com/kayros-web/kayros/errors"
	"github.com/kayros-web/kayros/internal/dispatcher"
	"go.uber.org/zap"
)

// OnConnect is invoked (on the event thread, via an accept-completion) for
// every accepted connection.
type OnConnect func(net.Conn)

// Acceptor drives asyncAccept over a net.Listener.
type Acceptor struct {
	ln   net.Listener
	disp *dispatcher.Dispatcher
	cfg  config.NET
	log  *zap.Logger

	closed bool
}

// New wraps an already-bound listener (see Listen for constructing one).
func New(ln net.Listener, disp *dispatcher.Dispatcher, cfg config.NET, log *zap.Logger) *Acceptor {
	return &Acceptor{ln: ln, disp: disp, cfg: cfg, log: log}
}

// Listen binds a TCP listener at addr. Go's net package doesn't expose a
// listen-backlog knob directly (unlike the original core's raw ::listen
// call); cfg.ListenBacklog is recorded for the caller to report but isn't
// otherwise enforced, a platform-portability trade the Go standard library
// makes for us.
//
// Bind failures are classified per spec.md §7's Listener-fatal group: a
// clash with an already-bound address maps to ErrAddressInUse, and any other
// bind/listen-stage OpError (bad address syntax, unresolvable host, and so
// on) maps to ErrInvalidArgument. Anything else propagates unclassified.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && (opErr.Op == "listen" || opErr.Op == "resolve") {
			if errors.Is(opErr.Err, syscall.EADDRINUSE) {
				return nil, kerrors.ErrAddressInUse
			}
			return nil, kerrors.ErrInvalidArgument
		}
		return nil, err
	}
	return ln, nil
}

// AsyncAccept posts the first accept task to the worker pool. The task
// re-posts itself after every attempt, successful or not, keeping exactly one
// in-flight accept at a time — the acceptor is single-threaded by
// construction, not by locking.
func (a *Acceptor) AsyncAccept(onConnect OnConnect) {
	a.disp.Post(func() { a.acceptOnce(onConnect) })
}

func (a *Acceptor) acceptOnce(onConnect OnConnect) {
	if a.closed {
		return
	}

	conn, err := a.ln.Accept()
	if err != nil {
		if a.closed {
			return
		}
		a.log.Warn("accept failed, retrying", zap.Error(err))
		a.disp.Post(func() { a.acceptOnce(onConnect) })
		return
	}

	if err := conn.SetReadDeadline(time.Now().Add(a.cfg.ReceiveTimeout)); err != nil {
		a.log.Warn("failed to configure accepted connection", zap.Error(err))
		_ = conn.Close()
		a.disp.Post(func() { a.acceptOnce(onConnect) })
		return
	}

	a.disp.PostAccept(func() { onConnect(conn) })
	a.disp.Post(func() { a.acceptOnce(onConnect) })
}

// Close stops future accepts and closes the listening socket. In-flight
// connections are unaffected; they close themselves once their session ends.
func (a *Acceptor) Close() error {
	a.closed = true
	return a.ln.Close()
}
