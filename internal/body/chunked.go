package body

import (
	"bytes"
	"io"
	"net"
	"time"

	"github.com/kayros-web/kayros/config"
	kerrors "github.com/kayros-web/kayros/errors"
	"github.com/kayros-web/kayros/internal/netio"
)

// chunkedReader is a growable read-ahead window over conn, seeded with
// whatever the receiver already had in hand. It grows geometrically once free
// room drops under a 256-byte low-water mark and compacts consumed bytes to
// the front on every advance, mirroring the buffer discipline of the original
// C++ core's StringBody::readChunked/FileBody::readChunked — ported as a
// straight read-ahead-and-compact window rather than the original's in-place
// cursor/displacement arithmetic, which doesn't translate cleanly to Go's
// slice model. The externally observable framing rules (geometric growth,
// 256-byte low water mark, chunk-size verification, no trailers) are
// preserved.
type chunkedReader struct {
	conn    net.Conn
	buf     []byte
	filled  int
	retries int
	cfg     config.Retry
}

const chunkedLowWater = 256

func newChunkedReader(conn net.Conn, carryover []byte, cfg config.Retry) *chunkedReader {
	size := 1024
	for size < len(carryover)+chunkedLowWater {
		size *= 2
	}
	r := &chunkedReader{conn: conn, buf: make([]byte, size), cfg: cfg}
	r.filled = copy(r.buf, carryover)
	return r
}

// fill reads more data from the connection, growing the window first if free
// room has dropped below the low-water mark, and retries transient errors
// with the same exponential back-off as netio.ReceiveLoop.
func (r *chunkedReader) fill() error {
	if len(r.buf)-r.filled < chunkedLowWater {
		grown := make([]byte, len(r.buf)*2)
		copy(grown, r.buf[:r.filled])
		r.buf = grown
	}

	for {
		n, err := r.conn.Read(r.buf[r.filled:])
		if n > 0 {
			r.retries = 0
			r.filled += n
			return nil
		}

		kind := netio.Classify(err)
		if kerrors.IsRetryable(kind) {
			r.retries++
			if r.retries > r.cfg.MaxCount {
				return kerrors.ErrTimedOut
			}
			time.Sleep(r.cfg.BaseBackoff * time.Duration(1<<uint(r.retries-1)))
			continue
		}
		return kind
	}
}

// need blocks until at least n bytes are available in the window.
func (r *chunkedReader) need(n int) error {
	for r.filled < n {
		if err := r.fill(); err != nil {
			return err
		}
	}
	return nil
}

// consume drops the first n bytes of the window, compacting the tail forward.
func (r *chunkedReader) consume(n int) {
	copy(r.buf, r.buf[n:r.filled])
	r.filled -= n
}

// maxChunkSizeDigits bounds the hex-size token so that v*16+d below can never
// overflow int64 before the explicit overflow check below even has a chance
// to trip: 15 hex digits is the largest count whose maximum value (0xfff...f,
// 15 f's) still fits comfortably under 1<<63-1.
const maxChunkSizeDigits = 15

func parseHexSize(line []byte) (int64, bool) {
	if semi := bytes.IndexByte(line, ';'); semi != -1 {
		line = line[:semi]
	}
	line = bytes.TrimRight(line, " \t")
	if len(line) == 0 || len(line) > maxChunkSizeDigits {
		return 0, false
	}
	var v int64
	for _, c := range line {
		var d int64
		switch {
		case c >= '0' && c <= '9':
			d = int64(c - '0')
		case c >= 'a' && c <= 'f':
			d = int64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = int64(c-'A') + 10
		default:
			return 0, false
		}
		v = v*16 + d
		if v < 0 {
			return 0, false
		}
	}
	return v, true
}

// decodeChunked drives RFC 7230 chunked framing off conn into sink, returning
// any bytes read past the terminating CRLF (the start of the next pipelined
// message). Trailer sections are rejected outright.
func decodeChunked(conn net.Conn, carryover []byte, cfg config.Retry, maxBodySize int64, sink io.Writer) ([]byte, error) {
	r := newChunkedReader(conn, carryover, cfg)
	var total int64

	for {
		idx := -1
		for {
			if i := bytes.Index(r.buf[:r.filled], []byte("\r\n")); i != -1 {
				idx = i
				break
			}
			if err := r.fill(); err != nil {
				return nil, err
			}
		}

		size, ok := parseHexSize(r.buf[:idx])
		if !ok {
			return nil, kerrors.ErrProtocolError
		}
		r.consume(idx + 2)

		if size == 0 {
			if err := r.need(2); err != nil {
				return nil, err
			}
			if r.buf[0] != '\r' || r.buf[1] != '\n' {
				return nil, kerrors.ErrProtocolError
			}
			r.consume(2)
			extra := make([]byte, r.filled)
			copy(extra, r.buf[:r.filled])
			return extra, nil
		}

		// Bound size against maxBodySize directly before accumulating: a
		// single malformed chunk claiming close to the max int64 must not be
		// allowed to overflow total (which would wrap negative and slip past
		// the "total > maxBodySize" check below).
		if size < 0 || size > maxBodySize || total > maxBodySize-size {
			return nil, kerrors.ErrBodyTooLarge
		}
		total += size

		if err := r.need(int(size) + 2); err != nil {
			return nil, err
		}
		if r.buf[size] != '\r' || r.buf[size+1] != '\n' {
			return nil, kerrors.ErrChunkSizeMismatch
		}
		if _, err := sink.Write(r.buf[:size]); err != nil {
			return nil, err
		}
		r.consume(int(size) + 2)
	}
}
