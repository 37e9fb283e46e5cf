// Package receiver implements a purely functional request/response parser,
// grounded on the original C++ core's Parser (original_source/Parser.h,
// Parser.cpp): parseFirstLine, parseHeaders (with RFC 7230 line folding) and
// determineTransferMethod.
package receiver

import (
	"strconv"
	"strings"

	kerrors "github.com/kayros-web/kayros/errors"
	"github.com/kayros-web/kayros/internal/message"
)

// parseFirstLine dispatches to the request or response variant depending on
// whether the first token looks like an HTTP version.
func parseFirstLine(m *message.Message, line string) error {
	line = strings.TrimSuffix(line, "\r")

	first, rest, ok := cutToken(line)
	if !ok {
		return kerrors.ErrProtocolError
	}

	if strings.HasPrefix(first, "HTTP/") {
		return parseStatusLine(m, first, rest)
	}
	return parseRequestLine(m, first, rest)
}

func parseRequestLine(m *message.Message, methodTok, rest string) error {
	method, ok := message.LookupMethod(methodTok)
	if !ok {
		return kerrors.ErrUnknownMethod
	}

	uri, rest, ok := cutToken(rest)
	if !ok || uri == "" {
		return kerrors.ErrProtocolError
	}

	version, _, ok := cutToken(rest)
	if !ok {
		return kerrors.ErrProtocolError
	}
	if err := validateVersion(version); err != nil {
		return err
	}

	m.Kind = message.KindRequest
	m.Method = method
	if path, query, found := strings.Cut(uri, "?"); found {
		m.Path = path
		m.Query = query
	} else {
		m.Path = uri
		m.Query = ""
	}
	return nil
}

func parseStatusLine(m *message.Message, version, rest string) error {
	if err := validateVersion(version); err != nil {
		return err
	}

	codeTok, reason, ok := cutToken(rest)
	if !ok {
		return kerrors.ErrProtocolError
	}
	code, err := strconv.Atoi(codeTok)
	if err != nil {
		return kerrors.ErrProtocolError
	}
	if _, known := message.StatusText(code); !known {
		return kerrors.ErrUnknownStatusCode
	}

	reason = strings.TrimSuffix(reason, "\r")
	if reason == "" {
		return kerrors.ErrProtocolError
	}

	m.Kind = message.KindResponse
	m.Status = code
	m.Reason = reason
	return nil
}

// validateVersion requires exactly "HTTP/1.0" or "HTTP/1.1" — 8 characters,
// the first 7 fixed, per spec.md §4.2.
func validateVersion(v string) error {
	if len(v) != 8 || !strings.HasPrefix(v, "HTTP/1.") {
		return kerrors.ErrBadVersion
	}
	if v[7] != '0' && v[7] != '1' {
		return kerrors.ErrBadVersion
	}
	return nil
}

// cutToken strips leading spaces from s and splits it at the next space,
// returning the token, the remainder after that single space, and whether a
// token was found at all (false only for an empty/all-space s).
func cutToken(s string) (token, rest string, ok bool) {
	s = strings.TrimLeft(s, " ")
	if s == "" {
		return "", "", false
	}
	if idx := strings.IndexByte(s, ' '); idx != -1 {
		return s[:idx], s[idx+1:], true
	}
	return s, "", true
}
