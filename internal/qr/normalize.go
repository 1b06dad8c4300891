// Package qr canonicalizes scanned or typed QR input into code keys.
package qr

import (
	"net/url"
	"strings"
)

// queryParams are the recognized query parameter names carrying a code,
// in priority order.
var queryParams = []string{"code", "qr", "codeId", "qrCodeId"}

// Normalize turns arbitrary scanned input into the canonical code key:
// uppercase ASCII alphanumerics, no separators. Accepted shapes are a bare
// code, a web URL (.../qr/<code>), a deep link (stckr://qr/<code>), or a
// code carried in a ?code= style query parameter.
//
// Normalize never fails. Input with no alphanumeric content yields the
// empty string, which downstream lookups treat as "not found", never as a
// wildcard. The function is pure: a sticker scanned by camera (bare code)
// and tapped as a deep link (URL) must resolve identically.
func Normalize(raw string) string {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return ""
	}

	if u, err := url.Parse(candidate); err == nil {
		if v := codeFromQuery(u.Query()); v != "" {
			candidate = v
		} else if seg := lastPathSegment(u.Path); seg != "" {
			candidate = seg
		}
	}

	// Drop any query or fragment tail that survived parsing.
	if i := strings.IndexAny(candidate, "?#"); i >= 0 {
		candidate = candidate[:i]
	}

	return sanitize(candidate)
}

func codeFromQuery(values url.Values) string {
	for _, name := range queryParams {
		if v := values.Get(name); v != "" {
			return v
		}
	}
	return ""
}

func lastPathSegment(path string) string {
	segments := strings.Split(path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
