// Package server wires the accept callback chain, the body type chooser,
// the default per-method handler table, and the response-handler for
// inbound response messages, plus structured access logging through
// go.uber.org/zap.
package server

import (
	"net"
	"strconv"

	"github.com/dchest/uniuri"
	jsoniter "github.com/json-iterator/go"
	"github.com/kayros-web/kayros/config"
	kerrors "github.com/kayros-web/kayros/errors"
	"github.com/kayros-web/kayros/internal/acceptor"
	"github.com/kayros-web/kayros/internal/body"
	"github.com/kayros-web/kayros/internal/dispatcher"
	"github.com/kayros-web/kayros/internal/headers"
	"github.com/kayros-web/kayros/internal/message"
	"github.com/kayros-web/kayros/internal/session"
	"github.com/kayros-web/kayros/router"
	"go.uber.org/zap"
)

// RequestHandler answers one request with its response.
type RequestHandler func(req *message.Message) *message.Message

// Totals accumulates the running statistics spec.md §5 says are written only
// from the event thread.
type Totals struct {
	Iterations     int64
	BytesReceived  int64
	BytesSent      int64
	ActiveSessions int64
}

// Server wires the acceptor, dispatcher and router together.
type Server struct {
	cfg    *config.Config
	log    *zap.Logger
	disp   *dispatcher.Dispatcher
	router *router.Router

	defaults [message.MethodCount]RequestHandler

	Totals Totals
}

// New builds a Server. Pass a nil router to rely solely on the default
// per-method handler table (SetDefaultHandler).
func New(cfg *config.Config, log *zap.Logger, disp *dispatcher.Dispatcher, r *router.Router) *Server {
	s := &Server{cfg: cfg, log: log, disp: disp, router: r}
	for m := message.Method(0); m < message.MethodCount; m++ {
		s.defaults[m] = s.notImplementedHandler
	}
	return s
}

// SetDefaultHandler installs the handler used for method when no router is
// configured. With a router configured every request goes to the router,
// unmatched ones included, and the default table is not consulted.
func (s *Server) SetDefaultHandler(m message.Method, h RequestHandler) {
	s.defaults[m] = h
}

// Router returns the server's router, or nil if none was configured.
func (s *Server) Router() *router.Router { return s.router }

// Start begins accepting connections on ln and returns the Acceptor so the
// caller can Close it during shutdown.
func (s *Server) Start(ln net.Listener) *acceptor.Acceptor {
	a := acceptor.New(ln, s.disp, s.cfg.NET, s.log)
	a.AsyncAccept(s.onAccept)
	return a
}

// onAccept runs on the event thread (it's posted as an accept-completion):
// bump the active-session count, then hand the blocking session loop to the
// worker pool.
func (s *Server) onAccept(conn net.Conn) {
	s.Totals.ActiveSessions++
	s.log.Debug("connection accepted", zap.String("remote", conn.RemoteAddr().String()))

	s.disp.Post(func() {
		sess := session.New(conn, s.cfg, s.ChooseBody, s.Handle)
		stats := sess.Run()
		_ = conn.Close()

		s.disp.PostSession(func() { s.foldStats(stats) })
	})
}

// foldStats runs on the event thread, so no synchronization is needed beyond
// what the completion queue already provides (spec.md §5). It emits the
// single structured access-log line SPEC_FULL.md §4.7 asks for per completed
// session: method, path, and status of the session's last exchange, plus the
// totals Run accumulated across every iteration of that connection.
func (s *Server) foldStats(stats session.Stats) {
	s.Totals.Iterations += int64(stats.Iterations)
	s.Totals.BytesReceived += stats.BytesReceived
	s.Totals.BytesSent += stats.BytesSent
	s.Totals.ActiveSessions--

	fields := []zap.Field{
		zap.String("method", stats.LastMethod),
		zap.String("path", stats.LastPath),
		zap.Int("status", stats.LastStatus),
		zap.Int("iterations", stats.Iterations),
		zap.Int64("bytesReceived", stats.BytesReceived),
		zap.Int64("bytesSent", stats.BytesSent),
		zap.Int64("activeSessions", s.Totals.ActiveSessions),
	}

	switch {
	case stats.Err == nil:
		s.log.Info("session completed", fields...)
	case kerrors.IsTransportFatal(stats.Err):
		s.log.Warn("session ended with a transport-fatal error", append(fields, zap.Error(stats.Err))...)
	default:
		s.log.Debug("session ended", append(fields, zap.Error(stats.Err))...)
	}
}

// Handle is the session's message handler: dispatches requests through the
// router (or the default table), turns inbound responses into a 400, and
// stamps every outgoing message with the Server header.
func (s *Server) Handle(msg *message.Message) *message.Message {
	var resp *message.Message
	if msg.Kind == message.KindResponse {
		resp = s.responseHandler(msg)
	} else {
		resp = s.dispatchRequest(msg)
	}

	resp.Headers.SetStandard(headers.Server, s.cfg.ServerName)
	return resp
}

func (s *Server) dispatchRequest(req *message.Message) *message.Message {
	if s.router != nil {
		return s.router.Route(req)
	}

	handler := s.defaults[req.Method]
	if handler == nil {
		handler = s.notImplementedHandler
	}
	return handler(req)
}

// notImplementedHandler is the table's initial value for every method.
func (s *Server) notImplementedHandler(req *message.Message) *message.Message {
	return jsonError(message.StatusNotImplemented, "no handler registered for this method")
}

// responseHandler turns an inbound response message (a protocol misuse — the
// receiver only ever expects the connection's peer to send requests) into a
// 400 describing the situation, per spec.md §4.7.
func (s *Server) responseHandler(msg *message.Message) *message.Message {
	s.log.Warn("received a response message on the request channel", zap.Int("status", msg.Status))
	return jsonError(message.StatusBadRequest, "unexpected response message received on request channel")
}

type errorBody struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

// jsonError builds a JSON error response carrying a short correlation ID a
// caller can quote back when reporting the failure.
func jsonError(status int, msg string) *message.Message {
	resp := message.NewResponse(status)
	payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(errorBody{
		Code:      status,
		Message:   msg,
		RequestID: uniuri.NewLen(12),
	})
	if err != nil {
		payload = []byte(`{"code":500,"message":"internal error"}`)
	}

	mem := body.NewMemory()
	_ = mem.Append(payload)
	resp.Body = mem
	resp.Headers.SetStandard(headers.ContentType, "application/json")
	resp.Headers.SetStandard(headers.ContentLength, strconv.Itoa(len(payload)))
	return resp
}
