package route

import (
	"strings"

	"github.com/vango-dev/routestate/pkg/urlcodec"
)

// URL returns the URL string for the active path below n.
func (n *Node) URL() string {
	return urlcodec.Serialize(n.URLObject())
}

// SetURL imports a URL string. See ApplyURL.
func (n *Node) SetURL(rawURL string) {
	n.ApplyURL(urlcodec.Parse(rawURL))
}

// URLObject builds the URL object for the active path below n.
//
// The path is "/" followed by the names along the active path, plus the
// captured remainder of the deepest route when it captures paths. The
// query merges the parameters of every route on the path. Ancestors write
// after descendants, so an ancestor wins a name collision.
func (n *Node) URLObject() *urlcodec.URL {
	var u *urlcodec.URL
	if n.activeChild != nil {
		u = n.activeChild.URLObject()
	} else {
		u = urlcodec.New("")
		if n.capturesPath && n.capturedPath != "" {
			u.Path = "/" + n.capturedPath
		}
	}

	u.Path = n.name + u.Path
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}

	for _, p := range n.params {
		p.ExportToURL(u)
	}
	return u
}

// ApplyURL imports a URL object into n and its subtree. u is not modified.
//
// Leading slashes are skipped and the next path segment selects the active
// child; the rest of the path is applied to that child. A segment matching
// no child leaves n without an active child, and a path-capturing n keeps
// the unmatched path instead. Every route visited reads its query
// parameters from u, whether or not it ends up on the active path.
func (n *Node) ApplyURL(u *urlcodec.URL) {
	if u == nil {
		u = urlcodec.New("")
	}
	n.applyURL(u.Path, u)
}

func (n *Node) applyURL(path string, u *urlcodec.URL) {
	name, tail := splitSegment(path)

	n.activeChild = n.Child(name)

	if n.activeChild != nil {
		if n.capturesPath {
			n.capturedPath = ""
		}
		n.activeChild.applyURL(tail, u)
	} else if n.capturesPath {
		n.capturedPath = strings.TrimPrefix(path, "/")
	}

	for _, p := range n.params {
		p.ExtractFromURL(u)
	}
}

// splitSegment skips leading slashes and splits off the first segment.
// tail keeps its leading "/".
func splitSegment(path string) (name, tail string) {
	rest := strings.TrimLeft(path, "/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[:i], rest[i:]
	}
	return rest, ""
}
