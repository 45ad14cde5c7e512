// Package router wraps a route tree in a facade that a UI binding layer can
// drive from either a URL or a state object.
//
// Every import recomputes both views. Listeners registered with Subscribe
// are told about an import only when the resulting state differs from the
// previous one, so a binding layer can push updates without its own
// equality check.
//
//	root := route.New("").
//	    Add(route.New("home")).
//	    Add(route.New("users").CapturePath())
//
//	r, err := router.New(root, router.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	cancel := r.Subscribe(func(s router.Snapshot) {
//	    fmt.Println("now at", s.URL)
//	})
//	defer cancel()
//
//	r.SetURL("/users/42")
//
// All methods are safe for concurrent use; each import is applied under a
// lock so callers never observe a half-applied tree.
package router
