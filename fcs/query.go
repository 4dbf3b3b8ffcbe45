package fcs

import (
	"net/url"
	"strings"
)

// withQuery appends the name/value pairs to p as a query string, in the given order.
// Values are query-escaped; empty values are kept.
func withQuery(p string, pairs ...string) string {
	var b strings.Builder
	b.WriteString(p)
	for i := 0; i+1 < len(pairs); i += 2 {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(pairs[i])
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(pairs[i+1]))
	}
	return b.String()
}

func pathEscape(segment string) string {
	return url.PathEscape(segment)
}
