package route

import (
	"errors"
	"fmt"
	"strings"

	rerrors "github.com/vango-dev/routestate/internal/errors"
)

// Sentinel errors. Builder misuse panics with a coded error wrapping one of
// the construction sentinels.
var (
	ErrMalformedState = errors.New("route: malformed state")
	ErrDuplicateRoute = errors.New("route: duplicate route name")
	ErrRouteAttached  = errors.New("route: route already has a parent")
	ErrDuplicateParam = errors.New("route: duplicate query parameter")
	ErrShadowedParam  = errors.New("route: query parameter shadowed by ancestor")
	ErrInvalidParam   = errors.New("route: invalid query parameter")
)

// MalformedStateError reports a State that does not fit the route tree.
// It matches ErrMalformedState with errors.Is.
type MalformedStateError struct {
	// Route is the tree path of the node being imported (e.g. "/users").
	Route string

	// Reason describes what is wrong.
	Reason string
}

func (e *MalformedStateError) Error() string {
	return fmt.Sprintf("route: malformed state at %q: %s", e.Route, e.Reason)
}

// Is reports whether target is ErrMalformedState.
func (e *MalformedStateError) Is(target error) bool {
	return target == ErrMalformedState
}

func malformed(n *Node, format string, args ...any) error {
	return &MalformedStateError{Route: n.TreePath(), Reason: fmt.Sprintf(format, args...)}
}

// buildPanic aborts tree construction with a coded error.
func buildPanic(code string, sentinel error, format string, args ...any) {
	panic(rerrors.New(code).
		WithDetail(fmt.Sprintf(format, args...)).
		Wrap(sentinel))
}

// TreePath returns the slash-separated names from the root to n, skipping
// the root's own name. The root itself is "/".
func (n *Node) TreePath() string {
	var names []string
	for cur := n; cur != nil && cur.parent != nil; cur = cur.parent {
		names = append(names, cur.name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return "/" + strings.Join(names, "/")
}
