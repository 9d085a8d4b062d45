// Package origin holds the allow-list of front-end origins permitted to
// submit the contact form.
package origin

import (
	"net/http"
	"strings"
)

// DefaultOrigins is the compiled-in allow-list used when no origins are
// configured.
var DefaultOrigins = []string{
	"http://localhost:3000",
	"https://www.jennypreswick.com",
	"https://www.brianholt.ca",
}

// HeaderName is the canonical request header carrying the origin.
const HeaderName = "Origin"

// AllowList is an immutable set of permitted origins. Matching is exact:
// a trailing slash, a different scheme or different letter case all
// count as a different origin.
type AllowList struct {
	origins map[string]struct{}
	ordered []string
}

// NewAllowList builds an allow-list from the given origins. Blank
// entries are ignored and duplicates collapse.
func NewAllowList(origins []string) *AllowList {
	l := &AllowList{origins: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if _, ok := l.origins[o]; ok {
			continue
		}
		l.origins[o] = struct{}{}
		l.ordered = append(l.ordered, o)
	}
	return l
}

// Allowed reports whether o is a member of the list. The empty origin is
// never allowed.
func (l *AllowList) Allowed(o string) bool {
	if o == "" {
		return false
	}
	_, ok := l.origins[o]
	return ok
}

// Origins returns a copy of the configured origins in insertion order.
func (l *AllowList) Origins() []string {
	out := make([]string, len(l.ordered))
	copy(out, l.ordered)
	return out
}

// Len returns the number of distinct origins.
func (l *AllowList) Len() int {
	return len(l.ordered)
}

// FromHeaders looks up the Origin header in a flat header map, ignoring
// the case of the header name. API Gateway forwards names as the client
// sent them, so "Origin" and "origin" both occur.
func FromHeaders(headers map[string]string) string {
	if v, ok := headers[HeaderName]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, HeaderName) {
			return v
		}
	}
	return ""
}

// FromHTTPHeader returns the Origin header from a net/http header set.
func FromHTTPHeader(h http.Header) string {
	return h.Get(HeaderName)
}
