package route

// Node is one route in the tree.
type Node struct {
	name     string
	parent   *Node
	children []*Node

	activeChild *Node

	capturesPath bool
	capturedPath string

	params []QueryParam
}

// ParamOptions configures a query parameter binding.
type ParamOptions struct {
	// VariableName is the key used in State.QueryParams. Required.
	VariableName string

	// QueryParamName is the key used in the URL query string.
	// Defaults to VariableName.
	QueryParamName string
}

// New creates a route with the given name. The name is used both as a URL
// path segment and as the key of this route in its parent's State.Children.
func New(name string) *Node {
	return &Node{name: name}
}

// Add appends child and returns n for chaining.
//
// Add panics if child already has a parent, if child is n, or if n already
// has a child with the same name.
func (n *Node) Add(child *Node) *Node {
	if child == nil {
		panic("route: Add called with nil child")
	}
	if child == n {
		buildPanic("R003", ErrRouteAttached, "route %q cannot be its own child", n.TreePath())
	}
	if child.parent != nil {
		buildPanic("R003", ErrRouteAttached, "route %q is already a child of %q", child.name, child.parent.TreePath())
	}
	if n.Child(child.name) != nil {
		buildPanic("R002", ErrDuplicateRoute, "route %q already has a child named %q", n.TreePath(), child.name)
	}

	n.children = append(n.children, child)
	child.parent = n
	return n
}

// CapturePath makes n keep the unmatched remainder of the URL path when it
// is the deepest active route.
func (n *Node) CapturePath() *Node {
	n.capturesPath = true
	return n
}

// BooleanQueryParam attaches a presence-only boolean query parameter.
func (n *Node) BooleanQueryParam(opts ParamOptions) *Node {
	n.attach(&BoolParam{binding: n.binding(opts)})
	return n
}

// StringQueryParam attaches a string query parameter.
func (n *Node) StringQueryParam(opts ParamOptions) *Node {
	n.attach(&StringParam{binding: n.binding(opts)})
	return n
}

func (n *Node) binding(opts ParamOptions) binding {
	if opts.VariableName == "" {
		buildPanic("R006", ErrInvalidParam, "route %q: query parameter needs a variable name", n.TreePath())
	}
	if opts.QueryParamName == "" {
		opts.QueryParamName = opts.VariableName
	}
	return binding{variableName: opts.VariableName, queryParamName: opts.QueryParamName}
}

func (n *Node) attach(p QueryParam) {
	for _, existing := range n.params {
		if existing.VariableName() == p.VariableName() {
			buildPanic("R004", ErrDuplicateParam, "route %q: variable %q declared twice", n.TreePath(), p.VariableName())
		}
		if existing.QueryParamName() == p.QueryParamName() {
			buildPanic("R004", ErrDuplicateParam, "route %q: query parameter %q declared twice", n.TreePath(), p.QueryParamName())
		}
	}
	n.params = append(n.params, p)
}

// Name returns the route name.
func (n *Node) Name() string { return n.name }

// Parent returns the parent route, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child routes in the order they were added.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Child returns the child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// ActiveChild returns the active child, or nil.
func (n *Node) ActiveChild() *Node { return n.activeChild }

// Active reports whether n is its parent's active child. The root is always
// active. An active route may still sit below an inactive ancestor.
func (n *Node) Active() bool {
	if n.parent == nil {
		return true
	}
	return n.parent.activeChild == n
}

// CapturesPath reports whether n was built with CapturePath.
func (n *Node) CapturesPath() bool { return n.capturesPath }

// CapturedPath returns the captured path remainder, without a leading "/".
// It is only meaningful while n captures paths and has no active child.
func (n *Node) CapturedPath() string { return n.capturedPath }

// QueryParams returns the query parameter bindings in declaration order.
func (n *Node) QueryParams() []QueryParam {
	out := make([]QueryParam, len(n.params))
	copy(out, n.params)
	return out
}

// Param returns the binding with the given variable name, or nil.
func (n *Node) Param(variableName string) QueryParam {
	for _, p := range n.params {
		if p.VariableName() == variableName {
			return p
		}
	}
	return nil
}

// BoolValue returns the value of a boolean parameter, or false if n has no
// boolean parameter with that variable name.
func (n *Node) BoolValue(variableName string) bool {
	if p, ok := n.Param(variableName).(*BoolParam); ok {
		return p.Get()
	}
	return false
}

// StringValue returns the value of a string parameter, or "" if n has no
// string parameter with that variable name.
func (n *Node) StringValue(variableName string) string {
	if p, ok := n.Param(variableName).(*StringParam); ok {
		return p.Get()
	}
	return ""
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from fn skips the node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// ActivePath returns n followed by its chain of active descendants.
func (n *Node) ActivePath() []*Node {
	var path []*Node
	for cur := n; cur != nil; cur = cur.activeChild {
		path = append(path, cur)
	}
	return path
}
