package router

import (
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/kayros-web/kayros/internal/body"
	"github.com/kayros-web/kayros/internal/headers"
	"github.com/kayros-web/kayros/internal/message"
)

// CORSPolicy is the router-wide {allowedOrigins, allowedMethods,
// allowedHeaders} triple of spec.md §4.8.
type CORSPolicy struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

const (
	corsOriginHeader  = headers.AccessControlAllowOrigin
	corsMethodsHeader = headers.AccessControlAllowMethods
	corsHeadersHeader = headers.AccessControlAllowHeaders
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// preflightResponse answers an OPTIONS request that doesn't match a
// registered endpoint with an empty 200, per spec.md §4.8.
func (r *Router) preflightResponse() *message.Message {
	resp := message.NewResponse(message.StatusOK)
	resp.Headers.SetStandard(headers.ContentLength, "0")
	return resp
}

// notFoundBody is the JSON shape synthesized for an unmatched route.
type notFoundBody struct {
	Path      string `json:"path"`
	Method    string `json:"method"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// notFound synthesizes the 404 JSON payload described in spec.md §4.8.
func notFound(req *message.Message) *message.Message {
	resp := message.NewResponse(message.StatusNotFound)

	payload, err := json.Marshal(notFoundBody{
		Path:      req.Path,
		Method:    req.Method.String(),
		Code:      message.StatusNotFound,
		Message:   "no handler registered for this path and method",
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		payload = []byte(`{"code":404,"message":"not found"}`)
	}

	mem := body.NewMemory()
	_ = mem.Append(payload)
	resp.Body = mem
	resp.Headers.SetStandard(headers.ContentType, "application/json")
	resp.Headers.SetStandard(headers.ContentLength, strconv.Itoa(len(payload)))
	return resp
}
