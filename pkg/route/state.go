package route

import "reflect"

// State is the nested, JSON-serializable mirror of a route tree.
//
//	{
//	  "activeChild": "users",
//	  "queryParams": {},
//	  "children": {
//	    "home":  {"activeChild": null, "queryParams": {}, "children": {}},
//	    "users": {"activeChild": null, "queryParams": {"flag": true}, "children": {}, "path": "42"}
//	  }
//	}
type State struct {
	// ActiveChild names the active child, or is nil when there is none.
	ActiveChild *string `json:"activeChild"`

	// QueryParams maps variable names to bool or string values.
	QueryParams map[string]any `json:"queryParams"`

	// Children holds the state of every child, active or not.
	Children map[string]*State `json:"children"`

	// Path is the captured path remainder. It is set only for routes that
	// capture paths. A capturing route with an active child exports "",
	// since a deeper route holds the remainder.
	Path *string `json:"path,omitempty"`
}

// NewState returns an empty state with no active child.
func NewState() *State {
	return &State{
		QueryParams: make(map[string]any),
		Children:    make(map[string]*State),
	}
}

// Active returns the active child name, or "" if there is none.
func (s *State) Active() string {
	if s == nil || s.ActiveChild == nil {
		return ""
	}
	return *s.ActiveChild
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := &State{
		QueryParams: make(map[string]any, len(s.QueryParams)),
		Children:    make(map[string]*State, len(s.Children)),
	}
	if s.ActiveChild != nil {
		name := *s.ActiveChild
		c.ActiveChild = &name
	}
	if s.Path != nil {
		path := *s.Path
		c.Path = &path
	}
	for k, v := range s.QueryParams {
		c.QueryParams[k] = v
	}
	for k, v := range s.Children {
		c.Children[k] = v.Clone()
	}
	return c
}

// Equal reports whether s and o describe the same tree state. Nil and empty
// maps compare equal.
func (s *State) Equal(o *State) bool {
	if s == nil || o == nil {
		return s == o
	}
	if !equalStringPtr(s.ActiveChild, o.ActiveChild) || !equalStringPtr(s.Path, o.Path) {
		return false
	}
	if len(s.QueryParams) != len(o.QueryParams) || len(s.Children) != len(o.Children) {
		return false
	}
	for k, v := range s.QueryParams {
		ov, ok := o.QueryParams[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	for k, v := range s.Children {
		ov, ok := o.Children[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// State exports n and its whole subtree, including inactive children, which
// keep their last known values.
func (n *Node) State() *State {
	s := NewState()
	for _, c := range n.children {
		s.Children[c.name] = c.State()
	}
	if n.activeChild != nil {
		name := n.activeChild.name
		s.ActiveChild = &name
	}
	for _, p := range n.params {
		p.ExportToState(s)
	}
	if n.capturesPath {
		path := n.capturedPath
		s.Path = &path
	}
	return s
}

// SetState imports s into n and its subtree.
//
// When s names an active child, every child's subtree is restored from
// s.Children, so each child needs an entry. When s has no active child, n's
// children are left untouched. An active child name that matches no child
// is malformed.
//
// The whole state is checked before anything changes: a
// *MalformedStateError leaves the tree as it was.
func (n *Node) SetState(s *State) error {
	if err := n.checkState(s); err != nil {
		return err
	}
	n.applyState(s)
	return nil
}

func (n *Node) checkState(s *State) error {
	if s == nil {
		return malformed(n, "state is nil")
	}
	if active := s.Active(); active != "" {
		if n.Child(active) == nil {
			return malformed(n, "activeChild %q names no child", active)
		}
		for _, c := range n.children {
			child, ok := s.Children[c.name]
			if !ok {
				return malformed(n, "children has no entry for %q", c.name)
			}
			if err := c.checkState(child); err != nil {
				return err
			}
		}
	}
	for _, p := range n.params {
		if err := p.check(s); err != nil {
			if mse, ok := err.(*MalformedStateError); ok && mse.Route == "" {
				mse.Route = n.TreePath()
			}
			return err
		}
	}
	return nil
}

// applyState assumes s passed checkState.
func (n *Node) applyState(s *State) {
	if active := s.Active(); active != "" {
		for _, c := range n.children {
			if c.name == active {
				n.activeChild = c
			}
			c.applyState(s.Children[c.name])
		}
	} else {
		n.activeChild = nil
	}

	if n.activeChild == nil && n.capturesPath {
		n.capturedPath = ""
		if s.Path != nil {
			n.capturedPath = *s.Path
		}
	}

	for _, p := range n.params {
		// Checked above.
		_ = p.ExtractFromState(s)
	}
}
