package server

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/dchest/uniuri"
	"github.com/kayros-web/kayros/config"
	"github.com/kayros-web/kayros/internal/body"
	"github.com/kayros-web/kayros/internal/headers"
	"github.com/kayros-web/kayros/internal/message"
	"github.com/kayros-web/kayros/internal/receiver"
)

// scratchCounter is the monotonic, atomically-incremented counter behind
// every scratch file name's numeric component.
var scratchCounter atomic.Uint64

// sizeCheckedContentTypes are the Content-Type values spec.md §4.7 treats as
// "recognized" — the only ones subject to the FileBackedThreshold check.
// Grounded on original_source/src/Server.cpp's chooseBodyType, whose
// recognized-type branch names exactly these four (application/json,
// application/x-www-form-urlencoded, multipart/form-data, and
// application/octet-stream); everything else, including text/plain, falls
// through to that function's "default to string body" branch, which
// spec.md §4.7 generalizes to "text/plain or unrecognized -> in-memory".
var sizeCheckedContentTypes = []string{
	"application/json",
	"application/x-www-form-urlencoded",
	"multipart/form-data",
	"application/octet-stream",
}

func isSizeChecked(contentType string) bool {
	for _, ct := range sizeCheckedContentTypes {
		if strings.HasPrefix(contentType, ct) {
			return true
		}
	}
	return false
}

// ChooseBody implements spec.md §4.7's body type chooser: Transfer-Encoding
// "chunked" always goes file-backed (length unknown up front); otherwise a
// text/plain or unrecognized Content-Type stays in memory; otherwise
// (a recognized Content-Type) a declared length over the configured
// threshold spills to a file.
func (s *Server) ChooseBody(msg *message.Message, transfer receiver.TransferMethod, contentLength int64) (body.Store, error) {
	if transfer == receiver.TransferChunked {
		return s.newFileBody()
	}

	contentType := msg.Headers.Value(headers.ContentType.String())
	if !isSizeChecked(contentType) {
		return body.NewMemory(), nil
	}

	if contentLength > s.cfg.Body.FileBackedThreshold {
		return s.newFileBody()
	}
	return body.NewMemory(), nil
}

// newFileBody names the scratch file "Temporary<N>-<token>.bin": the counter
// is the primary uniqueness source under concurrent sessions, the uniuri
// token guards against a restarted process's counter colliding with a
// leftover file from a crash that was never cleaned up.
func (s *Server) newFileBody() (body.Store, error) {
	n := scratchCounter.Add(1)
	name := fmt.Sprintf("Temporary%d-%s.bin", n, uniuri.New())
	return body.NewFile(scratchDir(s.cfg.Body), name)
}

func scratchDir(cfg config.Body) string {
	return filepath.Clean(cfg.ScratchDir)
}
