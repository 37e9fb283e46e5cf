package receiver

import (
	"net"
	"strconv"
	"strings"

	"github.com/kayros-web/kayros/config"
	kerrors "github.com/kayros-web/kayros/errors"
	"github.com/kayros-web/kayros/internal/headers"
	"github.com/kayros-web/kayros/internal/message"
	"github.com/kayros-web/kayros/internal/netio"
)

// TransferMethod is the result of inspecting Transfer-Encoding and
// Content-Length, per spec.md §4.2's "Transfer method selection".
type TransferMethod int

const (
	TransferNone TransferMethod = iota
	TransferByLength
	TransferChunked
)

// Result is what Receive hands back to its caller: the parsed message, the
// chosen transfer method and declared length (for TransferByLength), and
// whatever bytes were read past the header terminator — the body prefix, or
// the start of the next pipelined message.
type Result struct {
	Message       *message.Message
	Transfer      TransferMethod
	ContentLength int64
	Leftover      []byte
}

// Receive reads and parses one message's start line and header section off
// conn, preloaded with carryover (unconsumed bytes from a previous call on
// the same connection). Parse failures are always one of the errors package's
// Protocol kinds; per spec.md §4.2's error model, the caller is responsible
// for closing the connection and logging on any error.
func Receive(conn net.Conn, carryover []byte, cfg *config.Config) (Result, error) {
	buf := make([]byte, max(cfg.Header.InitialBufferSize, len(carryover)))
	filled := copy(buf, carryover)

	headerEnd := indexHeaderEnd(buf[:filled])
	for headerEnd == -1 {
		if filled >= cfg.Header.MaxSectionSize {
			return Result{}, kerrors.ErrHeaderTooLarge
		}
		if len(buf)-filled < len(buf)/4 {
			grown := make([]byte, len(buf)*2)
			copy(grown, buf[:filled])
			buf = grown
		}

		n, err := netio.ReceiveLoop(conn, buf, filled, cfg.Retry.MaxCount, cfg.Retry.BaseBackoff, func(_, total int) (bool, error) {
			return false, nil
		})
		filled = n
		if err != nil {
			return Result{}, err
		}

		headerEnd = indexHeaderEnd(buf[:filled])
	}

	if headerEnd > cfg.Header.MaxSectionSize {
		return Result{}, kerrors.ErrHeaderTooLarge
	}

	section := string(buf[:headerEnd])
	leftover := append([]byte(nil), buf[headerEnd+4:filled]...)

	lines := strings.Split(section, "\r\n")
	m := message.NewRequest()
	if err := parseFirstLine(m, lines[0]); err != nil {
		return Result{}, err
	}

	if err := parseHeaders(m.Headers, lines[1:], cfg.Header); err != nil {
		return Result{}, err
	}

	transfer, length, err := determineTransferMethod(m.Headers)
	if err != nil {
		return Result{}, err
	}

	return Result{Message: m, Transfer: transfer, ContentLength: length, Leftover: leftover}, nil
}

// indexHeaderEnd returns the offset of the "\r\n\r\n" terminator in buf, or -1.
func indexHeaderEnd(buf []byte) int {
	for i := 0; i+4 <= len(buf); i++ {
		if buf[i] == '\r' && buf[i+1] == '\n' && buf[i+2] == '\r' && buf[i+3] == '\n' {
			return i
		}
	}
	return -1
}

// parseHeaders parses each CRLF-terminated line (folding continuations into
// the previous value) per spec.md §4.2 step 3.
func parseHeaders(h *headers.Headers, lines []string, cfg config.Header) error {
	var (
		curName  string
		curValue string
		have     bool
	)

	flush := func() error {
		if !have {
			return nil
		}
		h.Set(curName, curValue)
		have = false
		return nil
	}

	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			if !have {
				return kerrors.ErrProtocolError
			}
			curValue = curValue + " " + strings.TrimLeft(line, " \t")
			if len(curValue) > cfg.MaxValueLength {
				return kerrors.ErrHeaderTooLarge
			}
			continue
		}

		if err := flush(); err != nil {
			return err
		}

		idx := strings.IndexByte(line, ':')
		if idx == -1 {
			return kerrors.ErrProtocolError
		}

		name := line[:idx]
		if err := validateHeaderName(name, cfg.MaxNameLength); err != nil {
			return err
		}

		value := strings.TrimLeft(line[idx+1:], " \t")
		if len(value) > cfg.MaxValueLength {
			return kerrors.ErrHeaderTooLarge
		}

		curName, curValue, have = name, value, true
	}

	return flush()
}

// validateHeaderName rejects names outside (0x20, 0x7F), containing ':', or
// longer than maxLen.
func validateHeaderName(name string, maxLen int) error {
	if name == "" || len(name) > maxLen {
		return kerrors.ErrProtocolError
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == ':' || c <= 0x20 || c >= 0x7F {
			return kerrors.ErrProtocolError
		}
	}
	return nil
}

// determineTransferMethod inspects Transfer-Encoding then Content-Length, per
// spec.md §4.2's "Transfer method selection".
func determineTransferMethod(h *headers.Headers) (TransferMethod, int64, error) {
	if te, ok := h.GetStandard(headers.TransferEncoding); ok && te != "" {
		if strings.EqualFold(te, "chunked") {
			return TransferChunked, 0, nil
		}
		return TransferNone, 0, kerrors.ErrUnsupportedEncoding
	}

	cl, ok := h.GetStandard(headers.ContentLength)
	if !ok || cl == "" || cl == "0" {
		return TransferNone, 0, nil
	}

	n, err := strconv.ParseInt(cl, 10, 64)
	if err != nil || n < 0 {
		return TransferNone, 0, kerrors.ErrProtocolError
	}
	if n == 0 {
		return TransferNone, 0, nil
	}
	return TransferByLength, n, nil
}
