// Package sender implements the retry-bounded response/request writer,
// grounded on the original C++ core's Sender (original_source/Sender.h,
// Sender.cpp).
package sender

import (
	"net"
	"strconv"

	"github.com/kayros-web/kayros/config"
	kerrors "github.com/kayros-web/kayros/errors"
	"github.com/kayros-web/kayros/internal/headers"
	"github.com/kayros-web/kayros/internal/message"
	"github.com/kayros-web/kayros/internal/netio"
)

// Send emits msg's first line, headers, and body onto conn. The body is
// committed via its own send-by-length or send-chunked method, chosen by
// whichever transfer header msg carries; a non-nil body with neither header
// set is a programmer error surfaced as ErrProtocolError.
func Send(conn net.Conn, msg *message.Message, cfg *config.Config) error {
	if msg == nil {
		return kerrors.ErrNilMessage
	}

	head := renderHead(msg)
	if _, err := netio.SendLoop(conn, []byte(head), len(head), cfg.Retry.MaxCount, cfg.Retry.BaseBackoff); err != nil {
		return err
	}

	if msg.Body == nil {
		return nil
	}

	if te, ok := msg.Headers.GetStandard(headers.TransferEncoding); ok && te != "" {
		return msg.Body.SendChunked(conn, cfg.Retry)
	}
	if cl, ok := msg.Headers.GetStandard(headers.ContentLength); ok && cl != "" && cl != "0" {
		return msg.Body.SendByLength(conn, cfg.Retry)
	}

	return kerrors.ErrProtocolError
}

// renderHead builds the first line, every header as "Name: value\r\n", and
// the terminating blank line.
func renderHead(msg *message.Message) string {
	var b []byte
	b = append(b, msg.FirstLine()...)
	b = append(b, '\r', '\n')

	msg.Headers.Iter(func(p headers.Pair) bool {
		b = append(b, p.Name...)
		b = append(b, ':', ' ')
		b = append(b, p.Value...)
		b = append(b, '\r', '\n')
		return true
	})

	b = append(b, '\r', '\n')
	return string(b)
}

// PrepareContentLength sets the Content-Length header from the body's
// current size — a convenience for callers that built a body before calling
// Send, since framing-header bookkeeping is otherwise left to the caller.
func PrepareContentLength(msg *message.Message) {
	if msg.Body == nil {
		return
	}
	msg.Headers.SetStandard(headers.ContentLength, strconv.FormatInt(msg.Body.Size(), 10))
}
