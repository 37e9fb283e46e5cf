// Package session implements the per-connection state machine, grounded on
// the original C++ core's Session (original_source/Session.h, Session.cpp).
package session

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/kayros-web/kayros/config"
	kerrors "github.com/kayros-web/kayros/errors"
	"github.com/kayros-web/kayros/internal/body"
	"github.com/kayros-web/kayros/internal/headers"
	"github.com/kayros-web/kayros/internal/message"
	"github.com/kayros-web/kayros/internal/receiver"
	"github.com/kayros-web/kayros/internal/sender"
)

// State mirrors spec.md §4.6's {IDLE → RECEIVING → HANDLING → SENDING → IDLE | DONE}.
type State int

const (
	Idle State = iota
	Receiving
	Handling
	Sending
	Done
)

// ChooseBody picks a body.Store for an inbound message given its declared
// transfer method and length — installed by the server core (spec.md §4.7's
// body type chooser).
type ChooseBody func(msg *message.Message, transfer receiver.TransferMethod, contentLength int64) (body.Store, error)

// Handler synchronously turns a received message into the response to send
// back — the server's dispatch into the router, or the response-handler for
// inbound response messages.
type Handler func(msg *message.Message) *message.Message

// Stats accumulates per-session totals, folded into the server's running
// totals by a session-completion posted to the dispatcher (spec.md §4.6).
// LastMethod/LastPath/LastStatus describe the most recently completed
// exchange on this connection, carried alongside the totals so the
// session-completion access-log line (SPEC_FULL.md §4.7) can report both in
// one place.
type Stats struct {
	Iterations    int
	BytesReceived int64
	BytesSent     int64
	LastMethod    string
	LastPath      string
	LastStatus    int
	// Err is the failure that ended the loop, if any (nil when the loop ends
	// after a request without "Connection: keep-alive"). An idle timeout
	// ends the loop with errors.ErrTimedOut, and a peer that closes the
	// connection with errors.ErrDisconnected. The server core classifies it
	// with errors.IsTransportFatal to pick a log level.
	Err error
}

// Session drives one accepted connection's request/response loop.
type Session struct {
	conn       net.Conn
	cfg        *config.Config
	chooseBody ChooseBody
	handler    Handler

	State State
}

// New constructs a Session bound to conn, ready to Run.
func New(conn net.Conn, cfg *config.Config, chooseBody ChooseBody, handler Handler) *Session {
	return &Session{conn: conn, cfg: cfg, chooseBody: chooseBody, handler: handler, State: Idle}
}

// Run drives the loop to completion (spec.md §4.6, steps 1-5), returning
// accumulated stats. It never returns an error: every failure transitions the
// session to Done and ends the loop, matching "transitions on successful
// step, to DONE on any receive/send failure".
func (s *Session) Run() Stats {
	var stats Stats
	var leftover []byte

	for {
		s.State = Receiving
		if err := s.conn.SetReadDeadline(time.Now().Add(s.cfg.NET.IdleTimeout)); err != nil {
			stats.Err = err
			s.State = Done
			return stats
		}

		res, err := receiver.Receive(s.conn, leftover, s.cfg)
		if err != nil {
			stats.Err = err
			s.State = Done
			return stats
		}
		stats.Iterations++

		if err := s.conn.SetReadDeadline(time.Now().Add(s.cfg.NET.ReceiveTimeout)); err != nil {
			stats.Err = err
			s.State = Done
			return stats
		}

		leftover, err = s.receiveBody(res)
		if err != nil {
			stats.Err = err
			s.State = Done
			return stats
		}
		stats.BytesReceived += bodySize(res.Message.Body)

		s.State = Handling
		resp, panicked := s.invokeHandler(res.Message)
		if panicked {
			stats.Err = kerrors.ErrHandlerPanic
		}

		stats.LastMethod = res.Message.Method.String()
		stats.LastPath = res.Message.Path
		stats.LastStatus = resp.Status

		s.State = Sending
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.NET.ReceiveTimeout)); err != nil {
			if stats.Err == nil {
				stats.Err = err
			}
			s.State = Done
			return stats
		}
		if err := sender.Send(s.conn, resp, s.cfg); err != nil {
			if stats.Err == nil {
				stats.Err = err
			}
			s.State = Done
			return stats
		}
		stats.BytesSent += bodySize(resp.Body)

		if panicked || !keepAlive(res.Message) {
			s.State = Done
			return stats
		}
		s.State = Idle
	}
}

// invokeHandler calls the session's handler, recovering from any panic per
// spec.md §4.9/§7's "every handler exception surfaces as an empty response
// from the session, which closes the connection" and "synthesize 500 with
// JSON body describing the failure". The second return value tells the
// caller to force the connection closed regardless of the request's
// Connection header, since a panicking handler leaves the handler-owned
// state (and the message it was given) in an unknown condition.
func (s *Session) invokeHandler(msg *message.Message) (resp *message.Message, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			resp = panicResponse(r)
			panicked = true
		}
	}()
	return s.handler(msg), false
}

var sessionJSON = jsoniter.ConfigCompatibleWithStandardLibrary

type panicBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// panicResponse synthesizes the 500 spec.md §7's Application error group
// calls for, describing the recovered value without leaking a raw Go stack
// trace to the client.
func panicResponse(recovered any) *message.Message {
	resp := message.NewResponse(message.StatusInternalServerError)
	resp.KeepAlive = false

	payload, err := sessionJSON.Marshal(panicBody{
		Code:    message.StatusInternalServerError,
		Message: fmt.Sprintf("handler panic: %v", recovered),
	})
	if err != nil {
		payload = []byte(`{"code":500,"message":"handler panic"}`)
	}

	mem := body.NewMemory()
	_ = mem.Append(payload)
	resp.Body = mem
	resp.Headers.SetStandard(headers.ContentType, "application/json")
	resp.Headers.SetStandard(headers.ContentLength, strconv.Itoa(len(payload)))
	return resp
}

// receiveBody chooses a body store and drives its receive method according to
// the transfer method the receiver detected, returning whatever bytes are
// left over for the next iteration (pipelined request bytes, for the
// no-body and chunked cases).
func (s *Session) receiveBody(res receiver.Result) ([]byte, error) {
	if res.Transfer == receiver.TransferNone {
		return res.Leftover, nil
	}

	store, err := s.chooseBody(res.Message, res.Transfer, res.ContentLength)
	if err != nil {
		return nil, err
	}
	res.Message.Body = store

	switch res.Transfer {
	case receiver.TransferByLength:
		if err := store.ReceiveByLength(s.conn, res.Leftover, res.ContentLength, s.cfg.Retry, s.cfg.Body.MaxSize); err != nil {
			return nil, err
		}
		return nil, nil
	case receiver.TransferChunked:
		return store.ReceiveChunked(s.conn, res.Leftover, s.cfg.Retry, s.cfg.Body.MaxSize)
	default:
		return res.Leftover, nil
	}
}

// keepAlive implements spec.md §4.6 step 5: absent or non-"keep-alive"
// Connection values end the loop.
func keepAlive(msg *message.Message) bool {
	v, ok := msg.Headers.GetStandard(headers.Connection)
	return ok && strings.EqualFold(v, "keep-alive")
}

func bodySize(b body.Store) int64 {
	if b == nil {
		return 0
	}
	return b.Size()
}
