// Package router implements a REST trie: a path-segment trie with a
// literal-child map and a single parameter child per node, built over whole
// `/`-delimited segments rather than compressed byte runs.
package router

import (
	"strings"

	kerrors "github.com/kayros-web/kayros/errors"
	"github.com/kayros-web/kayros/internal/message"
)

// Handler receives a request and its positional segment captures, returning
// the response to send.
type Handler func(req *message.Message, captures []string) *message.Message

// node is one trie level. literal is keyed by exact segment text; param, if
// non-nil, matches any single non-empty segment and records it as a capture.
type node struct {
	literal map[string]*node
	param   *node

	handlers [message.MethodCount]Handler
}

func newNode() *node {
	return &node{literal: make(map[string]*node)}
}

// Router is the immutable-after-construction trie plus its CORS policy.
type Router struct {
	root *node
	cors CORSPolicy
}

// New returns an empty Router configured with the given CORS policy.
func New(cors CORSPolicy) *Router {
	return &Router{root: newNode(), cors: cors}
}

func isParam(segment string) (string, bool) {
	if len(segment) >= 2 && segment[0] == '{' && segment[len(segment)-1] == '}' {
		return segment[1 : len(segment)-1], true
	}
	if len(segment) >= 2 && segment[0] == ':' {
		return segment[1:], true
	}
	return "", false
}

func splitSegments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// AddEndpoint registers handler for method at path, per spec.md §4.8 steps
// 1-3. Registering the same (path, method) twice is a programmer error.
func (r *Router) AddEndpoint(path string, method message.Method, handler Handler) error {
	segments := splitSegments(path)

	n := r.root
	for _, seg := range segments {
		if _, ok := isParam(seg); ok {
			if n.param == nil {
				n.param = newNode()
			}
			n = n.param
			continue
		}

		child, ok := n.literal[seg]
		if !ok {
			child = newNode()
			n.literal[seg] = child
		}
		n = child
	}

	if n.handlers[method] != nil {
		return kerrors.ErrDuplicateEndpoint
	}
	n.handlers[method] = handler
	return nil
}

// Route dispatches an inbound request through the trie, injecting the CORS
// headers on whatever response comes back (spec.md §4.8's "every response
// injected by the router also carries those three headers").
func (r *Router) Route(req *message.Message) *message.Message {
	if req.Method == message.Options {
		if resp, matched := r.tryMatch(req); matched {
			return r.withCORS(resp)
		}
		return r.withCORS(r.preflightResponse())
	}

	resp, matched := r.tryMatch(req)
	if !matched {
		return r.withCORS(notFound(req))
	}
	return r.withCORS(resp)
}

func (r *Router) tryMatch(req *message.Message) (*message.Message, bool) {
	segments := splitSegments(req.Path)

	n := r.root
	captures := make([]string, 0, len(segments))
	for _, seg := range segments {
		if child, ok := n.literal[seg]; ok {
			n = child
			continue
		}
		if n.param != nil && seg != "" {
			n = n.param
			captures = append(captures, seg)
			continue
		}
		return nil, false
	}

	handler := n.handlers[req.Method]
	if handler == nil {
		return nil, false
	}
	return handler(req, captures), true
}

func (r *Router) withCORS(resp *message.Message) *message.Message {
	resp.Headers.SetStandard(corsOriginHeader, r.cors.AllowedOrigins)
	resp.Headers.SetStandard(corsMethodsHeader, r.cors.AllowedMethods)
	resp.Headers.SetStandard(corsHeadersHeader, r.cors.AllowedHeaders)
	return resp
}
