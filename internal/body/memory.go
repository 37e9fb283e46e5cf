package body

import (
	"bytes"
	"net"

	"github.com/kayros-web/kayros/config"
	kerrors "github.com/kayros-web/kayros/errors"
	"github.com/kayros-web/kayros/internal/netio"
)

// MemoryBody is the in-memory Store, grounded on the original C++ core's
// StringBody (original_source/Body.h, Body.cpp): a single growable byte
// buffer, chosen by the server core for non-chunked bodies unless a
// recognized Content-Type declares a length over
// config.Body.FileBackedThreshold.
type MemoryBody struct {
	data []byte
}

// NewMemory returns an empty in-memory body store.
func NewMemory() *MemoryBody {
	return &MemoryBody{}
}

func (b *MemoryBody) Type() Type    { return Memory }
func (b *MemoryBody) Size() int64   { return int64(len(b.data)) }
func (b *MemoryBody) Close() error  { b.data = nil; return nil }
func (b *MemoryBody) Append(p []byte) error {
	b.data = append(b.data, p...)
	return nil
}

func (b *MemoryBody) Read(offset, length int64) ([]byte, error) {
	if offset < 0 || offset > int64(len(b.data)) {
		return nil, kerrors.ErrProtocolError
	}
	end := offset + length
	if end > int64(len(b.data)) {
		end = int64(len(b.data))
	}
	return b.data[offset:end], nil
}

func (b *MemoryBody) ReceiveByLength(conn net.Conn, carryover []byte, size int64, cfg config.Retry, maxBodySize int64) error {
	if size > maxBodySize {
		return kerrors.ErrBodyTooLarge
	}
	if int64(len(carryover)) > size {
		return kerrors.ErrProtocolError
	}

	buf := make([]byte, size)
	copied := copy(buf, carryover)
	if int64(copied) == size {
		b.data = buf
		return nil
	}

	total, err := netio.ReceiveLoop(conn, buf, copied, cfg.MaxCount, cfg.BaseBackoff, func(_, total int) (bool, error) {
		return total < len(buf), nil
	})
	if err != nil {
		return err
	}
	b.data = buf[:total]
	return nil
}

func (b *MemoryBody) ReceiveChunked(conn net.Conn, carryover []byte, cfg config.Retry, maxBodySize int64) ([]byte, error) {
	var sink bytes.Buffer
	extra, err := decodeChunked(conn, carryover, cfg, maxBodySize, &sink)
	if err != nil {
		return nil, err
	}
	b.data = sink.Bytes()
	return extra, nil
}

func (b *MemoryBody) SendByLength(conn net.Conn, cfg config.Retry) error {
	_, err := netio.SendLoop(conn, b.data, len(b.data), cfg.MaxCount, cfg.BaseBackoff)
	return err
}

// SendChunked is unimplemented: outbound chunked encoding is left to a
// future revision, matching the original core's StringBody::sendChunked,
// which was never wired to anything either.
func (b *MemoryBody) SendChunked(net.Conn, config.Retry) error {
	return kerrors.ErrUnsupportedEncoding
}
