package urlcodec

import (
	"net/url"
	"strings"
)

// URL is a parsed URL: a path and its query parameters.
type URL struct {
	// Path is everything before the first "?".
	Path string

	// Query holds the decoded query parameters in insertion order.
	Query *Query
}

// New returns a URL with the given path and an empty query.
func New(path string) *URL {
	return &URL{Path: path, Query: NewQuery()}
}

// Parse splits s into a URL object.
//
// The path is everything before the first "?". The query is split on "&";
// each non-empty pair is split on its first "=" (a missing "=" means an
// empty value) and both halves are percent-decoded. Later duplicates
// overwrite earlier ones. Parse never fails: escapes that cannot be
// decoded are kept verbatim.
func Parse(s string) *URL {
	path, query, _ := strings.Cut(s, "?")
	u := New(path)

	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		u.Query.Set(UnescapeComponent(key), UnescapeComponent(value))
	}

	return u
}

// Serialize turns a URL object back into a string.
//
// Query entries are emitted in insertion order as "key" when the value is
// empty and "key=value" otherwise. The "?" is only added when at least one
// entry exists.
func Serialize(u *URL) string {
	if u == nil {
		return ""
	}
	if u.Query.Len() == 0 {
		return u.Path
	}

	var b strings.Builder
	b.WriteString(u.Path)
	b.WriteByte('?')
	for i, key := range u.Query.Keys() {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(EscapeComponent(key))
		if value := u.Query.Get(key); value != "" {
			b.WriteByte('=')
			b.WriteString(EscapeComponent(value))
		}
	}
	return b.String()
}

// String implements fmt.Stringer.
func (u *URL) String() string {
	return Serialize(u)
}

const upperhex = "0123456789ABCDEF"

// EscapeComponent percent-encodes s the way encodeURIComponent does:
// everything except ASCII letters, digits and -_.!~*'() is escaped as
// UTF-8 bytes.
func EscapeComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !isUnreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	buf := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			buf = append(buf, c)
			continue
		}
		buf = append(buf, '%', upperhex[c>>4], upperhex[c&15])
	}
	return string(buf)
}

// UnescapeComponent decodes percent-escapes in s. A "+" stays a "+".
// Invalid escapes leave s unchanged.
func UnescapeComponent(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
