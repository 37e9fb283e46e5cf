// Package netio implements retry-bounded read/write loops, grounded on the
// original C++ core's Socket::receiveLoop / Socket::sendLoop (a
// callback-driven loop that keeps
// feeding a growable buffer until the callback says to stop). Go exposes
// blocking sockets with deadline-based timeouts rather than POSIX
// EINTR/EWOULDBLOCK, so "retryable" here means "hit our own deadline slice
// without making progress, try again with back-off" instead of a raw errno
// check — the externally observable behaviour (bounded retries, exponential
// back-off, promotion to a fatal error) is identical.
package netio

import (
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	kerrors "github.com/kayros-web/kayros/errors"
)

// Handler is invoked after each successful read/write of a ReceiveLoop or
// SendLoop iteration. It receives the number of bytes transferred this
// iteration and the running total, and returns whether the loop should keep
// going — mirroring the original Socket::receiveLoop's
// `std::function<bool(char*&, size_t&, size_t, size_t&)>` callback, minus the
// buffer-growth mutation, which in the Go port is the caller's job before the
// next call (see internal/receiver for the geometric-growth caller).
type Handler func(bytesThisRound int, total int) (more bool, err error)

// Classify maps a raw net/os error into one of the closed error kinds in the
// errors package, so callers never have to branch on OS-specific types.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		return kerrors.ErrDisconnected
	}
	if errors.Is(err, syscall.EINTR) {
		return kerrors.ErrInterrupted
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return kerrors.ErrWouldBlock
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return kerrors.ErrConnectionReset
	}
	if errors.Is(err, syscall.ECONNABORTED) {
		return kerrors.ErrConnectionAborted
	}
	if errors.Is(err, syscall.ENETUNREACH) {
		return kerrors.ErrNetworkUnreachable
	}

	return err
}

// ReceiveLoop reads into buf (starting at offset `total`) until handler
// returns more=false, a fatal error occurs, or MaxRetryCount back-off retries
// are exhausted on transient errors. It returns the total number of bytes
// read across every successful call (including whatever `total` started at).
//
// The caller is responsible for growing buf between Handler invocations if
// more data is expected than currently fits — ReceiveLoop only ever reads
// into buf[total:].
func ReceiveLoop(conn net.Conn, buf []byte, total int, maxRetry int, baseBackoff time.Duration, handler Handler) (int, error) {
	retries := 0

	for {
		if total >= len(buf) {
			return total, kerrors.ErrProtocolError
		}

		n, err := conn.Read(buf[total:])
		if n > 0 {
			retries = 0
			total += n

			more, herr := handler(n, total)
			if herr != nil {
				return total, herr
			}
			if !more {
				return total, nil
			}
			continue
		}

		if err == nil {
			continue
		}

		kind := Classify(err)
		if kerrors.IsRetryable(kind) {
			retries++
			if retries > maxRetry {
				return total, kerrors.ErrTimedOut
			}

			time.Sleep(backoffDelay(baseBackoff, retries))
			continue
		}

		if errors.Is(kind, kerrors.ErrDisconnected) {
			return total, kerrors.ErrDisconnected
		}

		return total, kind
	}
}

// SendLoop writes buf[:length] to conn, retrying short writes and transient
// errors the same way ReceiveLoop does. It returns the number of bytes
// written.
func SendLoop(conn net.Conn, buf []byte, length int, maxRetry int, baseBackoff time.Duration) (int, error) {
	retries := 0
	sent := 0

	for sent < length {
		n, err := conn.Write(buf[sent:length])
		if n > 0 {
			retries = 0
			sent += n
			continue
		}

		if n == 0 && err == nil {
			return sent, kerrors.ErrDisconnected
		}

		kind := Classify(err)
		if kerrors.IsRetryable(kind) {
			retries++
			if retries > maxRetry {
				return sent, kerrors.ErrTimedOut
			}

			time.Sleep(backoffDelay(baseBackoff, retries))
			continue
		}

		return sent, kind
	}

	return sent, nil
}

// backoffDelay implements the exponential back-off from spec.md §4.3:
// delay = base * 2^(attempt-1).
func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<uint(attempt-1))
}
