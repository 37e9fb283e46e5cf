// Package message holds the wire-facing Request/Response types shared by the
// receiver, sender, router and server, grounded on the original C++ core's
// Message hierarchy (original_source/Message.h) — a single struct that is
// either a request or a response, unified behind one first-line kind rather
// than two separate types.
package message

import (
	"fmt"
	"strconv"

	"github.com/kayros-web/kayros/internal/body"
	"github.com/kayros-web/kayros/internal/headers"
)

// Kind discriminates which first-line shape a Message carries.
type Kind int

const (
	KindRequest Kind = iota
	KindResponse
)

// Message is spec.md §3's unit of exchange: a first line (request or
// response), a header set, and a body store.
type Message struct {
	Kind Kind

	// Request first line.
	Method Method
	Path   string
	Query  string

	// Response first line.
	Status int
	Reason string

	Headers *headers.Headers
	Body    body.Store

	// KeepAlive is true on every new or Reset message; the session's 500
	// panic response sets it to false. The receiver does not set it and the
	// session does not read it: the session decides keep-alive from the
	// request's Connection header (spec.md §4.6).
	KeepAlive bool
}

// NewRequest returns an empty request-shaped Message with fresh headers.
func NewRequest() *Message {
	return &Message{Kind: KindRequest, Headers: headers.New(), KeepAlive: true}
}

// NewResponse returns a response-shaped Message with fresh headers and the
// given status code, defaulting the reason phrase from the status table when
// recognized.
func NewResponse(status int) *Message {
	m := &Message{Kind: KindResponse, Headers: headers.New(), Status: status, KeepAlive: true}
	if reason, ok := StatusText(status); ok {
		m.Reason = reason
	}
	return m
}

// Reset clears m back to an empty request so one Message can be reused. The
// session does not call it: the receiver builds a fresh Message per request.
func (m *Message) Reset() {
	m.Kind = KindRequest
	m.Method = 0
	m.Path = ""
	m.Query = ""
	m.Status = 0
	m.Reason = ""
	m.KeepAlive = true
	if m.Headers != nil {
		m.Headers.Reset()
	} else {
		m.Headers = headers.New()
	}
	m.Body = nil
}

// RequestLine renders "METHOD path?query HTTP/1.1".
func (m *Message) RequestLine() string {
	path := m.Path
	if m.Query != "" {
		path = path + "?" + m.Query
	}
	return fmt.Sprintf("%s %s HTTP/1.1", m.Method, path)
}

// StatusLine renders "HTTP/1.1 status reason".
func (m *Message) StatusLine() string {
	if m.Reason == "" {
		return "HTTP/1.1 " + strconv.Itoa(m.Status)
	}
	return "HTTP/1.1 " + strconv.Itoa(m.Status) + " " + m.Reason
}

// FirstLine renders whichever first line matches m.Kind.
func (m *Message) FirstLine() string {
	if m.Kind == KindResponse {
		return m.StatusLine()
	}
	return m.RequestLine()
}
