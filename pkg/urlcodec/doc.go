// Package urlcodec converts between URL strings and URL objects.
//
// A URL object is a path plus an insertion-ordered query map. Encoding
// rules:
//   - keys and values are percent-encoded like JavaScript's
//     encodeURIComponent, so "+" is never treated as a space
//   - a key with an empty value serializes as a bare key ("?flag")
//   - duplicate keys collapse, the last value wins
//   - fragments ("#") are not interpreted
//
// Example:
//
//	u := urlcodec.Parse("/users/42?flag&q=a%20b")
//	u.Query.Get("q")       // "a b"
//	u.Query.Has("flag")    // true
//	urlcodec.Serialize(u)  // "/users/42?flag&q=a%20b"
package urlcodec
