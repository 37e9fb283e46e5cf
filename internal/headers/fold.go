package headers

import (
	"golang.org/x/text/cases"
)

// asciiFolder performs the Unicode-safe case fold used to normalize custom
// (non-standard) header names before they're used as map keys. Header names
// are constrained to the printable ASCII range by the receiver (spec.md §4.2),
// but folding through golang.org/x/text keeps the comparator correct for any
// bytes that slip through verbatim header pass-through on custom values.
var asciiFolder = cases.Fold()

// foldASCII is the fast path used for the closed standard-header enum lookup,
// where names are known to be plain ASCII identifiers.
func foldASCII(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c |= 0x20
		}
		b[i] = c
	}
	return string(b)
}

// fold normalizes a custom header name for case-insensitive storage/lookup.
func fold(s string) string {
	return asciiFolder.String(s)
}
