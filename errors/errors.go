// Package errors defines the closed set of error values the core reports to its
// callers. Errors the core recognizes are reported as one of these values (or
// wrap one via fmt.Errorf("...: %w", ...)); an error netio.Classify does not
// recognize, a deadline-setting failure, or a file-system error from a
// file-backed body is returned as is.
package errors

import "errors"

// Transport-transient: retried with exponential back-off up to MAX_RETRY_COUNT,
// then promoted to a transport-fatal error by the caller.
var (
	ErrInterrupted = errors.New("operation interrupted")
	ErrWouldBlock  = errors.New("operation would block")
)

// Transport-fatal: abort the current session, log, close the socket.
var (
	ErrConnectionReset   = errors.New("connection reset by peer")
	ErrConnectionAborted = errors.New("connection aborted")
	ErrDisconnected      = errors.New("peer disconnected")
	ErrTimedOut          = errors.New("operation timed out")
	ErrNetworkUnreachable = errors.New("network unreachable")
)

// Listener-fatal: propagated to the caller of acceptor.Listen (and App.Listen).
var (
	ErrAddressInUse    = errors.New("address already in use")
	ErrInvalidArgument = errors.New("invalid listener argument")
)

// Protocol: malformed or over-limit wire data.
var (
	ErrProtocolError       = errors.New("protocol error")
	ErrHeaderTooLarge      = errors.New("header section too large")
	ErrBodyTooLarge        = errors.New("body too large")
	ErrUnsupportedEncoding = errors.New("unsupported transfer-encoding")
	ErrChunkSizeMismatch   = errors.New("chunk size does not match declared size")
	ErrUnknownMethod       = errors.New("unknown request method")
	ErrUnknownStatusCode   = errors.New("unknown status code")
	ErrBadVersion          = errors.New("unsupported HTTP version")
)

// Application: handler-side faults, caught at the session boundary.
var ErrHandlerPanic = errors.New("handler panic")

// Programmer: configuration mistakes that must fail loudly at init time.
var (
	ErrNilMessage        = errors.New("attempted to send a nil message")
	ErrDuplicateEndpoint = errors.New("endpoint already registered for this method")
)

// ErrGracefulShutdown and ErrShutdown are sentinel values App.Serve returns
// once App.GracefulStop or App.Stop, respectively, unblocks it, so a caller
// blocked on Serve can tell which stop path ended the run.
var (
	ErrGracefulShutdown = errors.New("graceful shutdown requested")
	ErrShutdown         = errors.New("shutdown requested")
)

// IsRetryable reports whether err is one of the transport-transient kinds that
// the retry-bounded sender/receiver should back off and retry on.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrInterrupted) || errors.Is(err, ErrWouldBlock)
}

// IsTransportFatal reports whether err should abort the current session.
func IsTransportFatal(err error) bool {
	switch {
	case errors.Is(err, ErrConnectionReset),
		errors.Is(err, ErrConnectionAborted),
		errors.Is(err, ErrDisconnected),
		errors.Is(err, ErrTimedOut),
		errors.Is(err, ErrNetworkUnreachable):
		return true
	default:
		return false
	}
}
