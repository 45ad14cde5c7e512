// Package route implements the route tree at the heart of routestate.
//
// A tree of named nodes is kept in sync with two external forms: a URL
// string and a nested, JSON-serializable State. Each node may have one
// active child, may capture the unmatched remainder of the URL path, and
// may own boolean or string query parameters.
//
// Building a tree:
//
//	root := route.New("").
//	    Add(route.New("home")).
//	    Add(route.New("users").
//	        CapturePath().
//	        BooleanQueryParam(route.ParamOptions{VariableName: "flag"}))
//
//	root.SetURL("/users/42?flag")
//	users := root.Child("users")
//	users.CapturedPath()       // "42"
//	users.BoolValue("flag")    // true
//	root.URL()                 // "/users/42?flag"
//
// The tree is not safe for concurrent use, and imports are applied in
// place. Use the router package when several goroutines share a tree.
package route
