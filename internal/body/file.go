package body

import (
	"io"
	"net"
	"os"
	"path/filepath"

	"github.com/kayros-web/kayros/config"
	kerrors "github.com/kayros-web/kayros/errors"
	"github.com/kayros-web/kayros/internal/netio"
)

// FileBody is the file-backed Store, grounded on the original C++ core's
// FileBody (original_source/Body.h, Body.cpp). The server core's body-type
// chooser picks it for every chunked body, and for a body of a recognized
// Content-Type whose declared length exceeds config.Body.FileBackedThreshold;
// bodies of other Content-Types stay in memory whatever their length.
type FileBody struct {
	file *os.File
	size int64
}

// NewFile creates a scratch file at filepath.Join(dir, name). The server core
// names it "Temporary<N>-<token>.bin" off a monotonic counter (see
// internal/server's newFileBody); NewFile itself is naming-agnostic.
func NewFile(dir, name string) (*FileBody, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	// Remove immediately: the descriptor stays valid for the life of the
	// body, and the scratch file never needs a second look once closed.
	_ = os.Remove(path)
	return &FileBody{file: f}, nil
}

func (b *FileBody) Type() Type  { return File }
func (b *FileBody) Size() int64 { return b.size }

func (b *FileBody) Close() error {
	if b.file == nil {
		return nil
	}
	err := b.file.Close()
	b.file = nil
	return err
}

func (b *FileBody) Append(p []byte) error {
	n, err := b.file.WriteAt(p, b.size)
	b.size += int64(n)
	return err
}

func (b *FileBody) Read(offset, length int64) ([]byte, error) {
	if offset < 0 || offset > b.size {
		return nil, kerrors.ErrProtocolError
	}
	end := offset + length
	if end > b.size {
		end = b.size
	}
	out := make([]byte, end-offset)
	if _, err := b.file.ReadAt(out, offset); err != nil && err != io.EOF {
		return nil, err
	}
	return out, nil
}

func (b *FileBody) ReceiveByLength(conn net.Conn, carryover []byte, size int64, cfg config.Retry, maxBodySize int64) error {
	if size > maxBodySize {
		return kerrors.ErrBodyTooLarge
	}
	if int64(len(carryover)) > size {
		return kerrors.ErrProtocolError
	}
	if len(carryover) > 0 {
		if err := b.Append(carryover); err != nil {
			return err
		}
	}

	// 1KiB streaming window, matching the original core's FileBody::readTransferSize.
	window := make([]byte, 1024)
	remaining := size - int64(len(carryover))

	for remaining > 0 {
		want := window
		if remaining < int64(len(window)) {
			want = window[:remaining]
		}

		total, err := netio.ReceiveLoop(conn, want, 0, cfg.MaxCount, cfg.BaseBackoff, func(_, total int) (bool, error) {
			return total < len(want), nil
		})
		if total > 0 {
			if werr := b.Append(want[:total]); werr != nil {
				return werr
			}
			remaining -= int64(total)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *FileBody) ReceiveChunked(conn net.Conn, carryover []byte, cfg config.Retry, maxBodySize int64) ([]byte, error) {
	extra, err := decodeChunked(conn, carryover, cfg, maxBodySize, fileSink{b})
	if err != nil {
		return nil, err
	}
	return extra, nil
}

// fileSink adapts FileBody.Append to io.Writer for decodeChunked, keeping
// b.size in sync as chunks land.
type fileSink struct{ b *FileBody }

func (s fileSink) Write(p []byte) (int, error) {
	if err := s.b.Append(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (b *FileBody) SendByLength(conn net.Conn, cfg config.Retry) error {
	window := make([]byte, 1024)
	var offset int64

	for offset < b.size {
		n, err := b.file.ReadAt(window, offset)
		if n > 0 {
			if _, serr := netio.SendLoop(conn, window, n, cfg.MaxCount, cfg.BaseBackoff); serr != nil {
				return serr
			}
			offset += int64(n)
		}
		if err != nil && err != io.EOF {
			return err
		}
		if err == io.EOF {
			break
		}
	}
	return nil
}

func (b *FileBody) SendChunked(net.Conn, config.Retry) error {
	return kerrors.ErrUnsupportedEncoding
}
