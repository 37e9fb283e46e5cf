package server

import (
	"testing"

	"github.com/kayros-web/kayros/config"
	"github.com/kayros-web/kayros/internal/body"
	"github.com/kayros-web/kayros/internal/dispatcher"
	"github.com/kayros-web/kayros/internal/headers"
	"github.com/kayros-web/kayros/internal/message"
	"github.com/kayros-web/kayros/internal/receiver"
	"github.com/kayros-web/kayros/router"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testServer(r *router.Router) *Server {
	cfg := config.Default()
	disp := dispatcher.New(cfg.Dispatcher)
	return New(cfg, zap.NewNop(), disp, r)
}

func TestDefaultHandlerNotImplemented(t *testing.T) {
	s := testServer(nil)

	req := message.NewRequest()
	req.Method = message.Get
	req.Path = "/"

	resp := s.Handle(req)
	require.Equal(t, message.StatusNotImplemented, resp.Status)
}

func TestCustomDefaultHandler(t *testing.T) {
	s := testServer(nil)
	s.SetDefaultHandler(message.Get, func(req *message.Message) *message.Message {
		return message.NewResponse(message.StatusOK)
	})

	req := message.NewRequest()
	req.Method = message.Get
	req.Path = "/"

	resp := s.Handle(req)
	require.Equal(t, message.StatusOK, resp.Status)
	require.Equal(t, "kayros", resp.Headers.Value("Server"))
}

func TestResponseMessageBecomesBadRequest(t *testing.T) {
	s := testServer(nil)

	inbound := message.NewResponse(message.StatusOK)

	resp := s.Handle(inbound)
	require.Equal(t, message.StatusBadRequest, resp.Status)
}

func TestRouterTakesPrecedence(t *testing.T) {
	r := router.New(router.CORSPolicy{AllowedOrigins: "*"})
	require.NoError(t, r.AddEndpoint("/ping", message.Get, func(req *message.Message, captures []string) *message.Message {
		return message.NewResponse(message.StatusOK)
	}))
	s := testServer(r)

	req := message.NewRequest()
	req.Method = message.Get
	req.Path = "/ping"

	resp := s.Handle(req)
	require.Equal(t, message.StatusOK, resp.Status)
}

func TestChooseBodyChunkedGoesFileBacked(t *testing.T) {
	s := testServer(nil)
	s.cfg.Body.ScratchDir = t.TempDir()

	req := message.NewRequest()
	store, err := s.ChooseBody(req, receiver.TransferChunked, 0)
	require.NoError(t, err)
	require.Equal(t, body.File, store.Type())
}

func TestChooseBodyTextPlainStaysInMemory(t *testing.T) {
	s := testServer(nil)

	req := message.NewRequest()
	req.Headers.SetStandard(headers.ContentType, "text/plain")
	store, err := s.ChooseBody(req, receiver.TransferByLength, 2*1024*1024)
	require.NoError(t, err)
	require.Equal(t, body.Memory, store.Type())
}

func TestChooseBodyLargeJSONGoesFileBacked(t *testing.T) {
	s := testServer(nil)
	s.cfg.Body.ScratchDir = t.TempDir()

	req := message.NewRequest()
	req.Headers.SetStandard(headers.ContentType, "application/json")
	store, err := s.ChooseBody(req, receiver.TransferByLength, s.cfg.Body.FileBackedThreshold+1)
	require.NoError(t, err)
	require.Equal(t, body.File, store.Type())
}

func TestChooseBodyLargeUnrecognizedTypeStaysInMemory(t *testing.T) {
	s := testServer(nil)

	req := message.NewRequest()
	req.Headers.SetStandard(headers.ContentType, "application/x-made-up-type")
	store, err := s.ChooseBody(req, receiver.TransferByLength, s.cfg.Body.FileBackedThreshold+1)
	require.NoError(t, err)
	require.Equal(t, body.Memory, store.Type())
}
