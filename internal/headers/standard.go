package headers

// Standard enumerates the closed set of standard header names the message
// model recognizes (spec.md §3, Data model). Each enum value has exactly one
// slot in a Headers' standard map; setting a name that folds to one of these
// always routes to that slot regardless of the casing it arrived in.
type Standard int

const (
	Accept Standard = iota
	AcceptCharset
	AcceptEncoding
	AcceptLanguage
	Authorization
	CacheControl
	Connection
	ContentLength
	ContentType
	Cookie
	Date
	Host
	IfMatch
	IfModifiedSince
	IfNoneMatch
	IfRange
	IfUnmodifiedSince
	Location
	MaxForwards
	Pragma
	ProxyAuthorization
	Range
	Referer
	Server
	TE
	TransferEncoding
	Upgrade
	UserAgent
	Via
	Warning
	AccessControlAllowOrigin
	AccessControlAllowMethods
	AccessControlAllowHeaders

	standardCount
)

// names is the enum-to-string table, used both for canonical serialization
// and to build the string-to-enum lookup map below.
var names = [standardCount]string{
	Accept:                    "Accept",
	AcceptCharset:             "Accept-Charset",
	AcceptEncoding:            "Accept-Encoding",
	AcceptLanguage:            "Accept-Language",
	Authorization:             "Authorization",
	CacheControl:              "Cache-Control",
	Connection:                "Connection",
	ContentLength:             "Content-Length",
	ContentType:               "Content-Type",
	Cookie:                    "Cookie",
	Date:                      "Date",
	Host:                      "Host",
	IfMatch:                   "If-Match",
	IfModifiedSince:           "If-Modified-Since",
	IfNoneMatch:               "If-None-Match",
	IfRange:                   "If-Range",
	IfUnmodifiedSince:         "If-Unmodified-Since",
	Location:                  "Location",
	MaxForwards:               "Max-Forwards",
	Pragma:                    "Pragma",
	ProxyAuthorization:        "Proxy-Authorization",
	Range:                     "Range",
	Referer:                   "Referer",
	Server:                    "Server",
	TE:                        "TE",
	TransferEncoding:          "Transfer-Encoding",
	Upgrade:                   "Upgrade",
	UserAgent:                 "User-Agent",
	Via:                       "Via",
	Warning:                   "Warning",
	AccessControlAllowOrigin:  "Access-Control-Allow-Origin",
	AccessControlAllowMethods: "Access-Control-Allow-Methods",
	AccessControlAllowHeaders: "Access-Control-Allow-Headers",
}

// byFoldedName maps the ASCII-folded spelling of each standard name to its
// enum value, built once at init time.
var byFoldedName = func() map[string]Standard {
	m := make(map[string]Standard, standardCount)
	for s, name := range names {
		m[foldASCII(name)] = Standard(s)
	}
	return m
}()

// String returns the canonical spelling of s.
func (s Standard) String() string {
	if s < 0 || s >= standardCount {
		return ""
	}
	return names[s]
}

// LookupStandard reports whether name folds (case-insensitively) to one of
// the standard enum values, and which one.
func LookupStandard(name string) (Standard, bool) {
	s, ok := byFoldedName[foldASCII(name)]
	return s, ok
}
