package message

// statusText is the closed table of known status codes and their canonical
// reason phrases. The receiver rejects any response status line whose code
// isn't in this table.
var statusText = map[int]string{
	200: "OK",
	201: "Created",
	202: "Accepted",
	204: "No Content",
	206: "Partial Content",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	307: "Temporary Redirect",
	308: "Permanent Redirect",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	408: "Request Timeout",
	409: "Conflict",
	411: "Length Required",
	413: "Request Entity Too Large",
	414: "Request URI Too Long",
	415: "Unsupported Media Type",
	416: "Range Not Satisfiable",
	417: "Expectation Failed",
	426: "Upgrade Required",
	431: "Request Header Fields Too Large",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
}

// StatusText returns the canonical reason phrase for code, and whether code is
// recognized at all.
func StatusText(code int) (string, bool) {
	t, ok := statusText[code]
	return t, ok
}

// Common status codes referenced by the router and server's default handlers.
const (
	StatusOK                  = 200
	StatusNoContent           = 204
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusRequestTimeout      = 408
	StatusRequestEntityTooBig = 413
	StatusURITooLong          = 414
	StatusUnsupportedMedia    = 415
	StatusHeaderFieldsTooBig  = 431
	StatusInternalServerError = 500
	StatusNotImplemented      = 501
)
