// Package body implements a polymorphic message body store: an in-memory
// implementation and a file-backed one sharing one capability set, grounded
// on the original C++ core's StringBody/FileBody pair (original_source/Body.h,
// Body.cpp).
package body

import (
	"net"

	"github.com/kayros-web/kayros/config"
)

// Type distinguishes the two Store implementations (spec.md §3, Body).
type Type int

const (
	Memory Type = iota
	File
)

// Store is the capability set shared by both body implementations.
type Store interface {
	// Read returns the clamped slice [offset, offset+length) of the body.
	Read(offset, length int64) ([]byte, error)
	// Append extends the body with data.
	Append(data []byte) error
	// Size reports the number of bytes currently stored.
	Size() int64
	// Type reports which implementation this is.
	Type() Type

	// ReceiveByLength preloads carryover, then reads from conn until exactly
	// size bytes of body are present.
	ReceiveByLength(conn net.Conn, carryover []byte, size int64, cfg config.Retry, maxBodySize int64) error
	// ReceiveChunked parses RFC 7230 chunked framing from conn (preloaded with
	// carryover), returning any bytes read past the terminator (the start of
	// the next pipelined message, or keep-alive leftovers).
	ReceiveChunked(conn net.Conn, carryover []byte, cfg config.Retry, maxBodySize int64) (extra []byte, err error)

	// SendByLength commits the entire body to conn.
	SendByLength(conn net.Conn, cfg config.Retry) error
	// SendChunked is optional; outbound chunked encoding is currently
	// unimplemented on both Store implementations.
	SendChunked(conn net.Conn, cfg config.Retry) error

	// Close releases any resources the body owns (a scratch file, for File).
	Close() error
}
