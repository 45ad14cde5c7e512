package router

import "github.com/vango-dev/routestate/pkg/route"

// NodeInfo describes one route in a flattened tree listing.
type NodeInfo struct {
	Path         string      `json:"path"`
	Name         string      `json:"name"`
	Depth        int         `json:"depth"`
	Active       bool        `json:"active"`
	ActiveChild  string      `json:"activeChild,omitempty"`
	CapturesPath bool        `json:"capturesPath"`
	CapturedPath string      `json:"capturedPath,omitempty"`
	Params       []ParamInfo `json:"params,omitempty"`
}

// ParamInfo describes a query parameter and its current value.
type ParamInfo struct {
	Variable string `json:"variable"`
	Query    string `json:"query"`
	Kind     string `json:"kind"`
	Value    any    `json:"value"`
}

// Tree lists every route in depth-first order with its current values.
func (r *Router) Tree() []NodeInfo {
	var out []NodeInfo
	r.Inspect(func(root *route.Node) {
		out = Describe(root)
	})
	return out
}

// Describe lists every route under root in depth-first order.
func Describe(root *route.Node) []NodeInfo {
	var out []NodeInfo
	root.Walk(func(n *route.Node) bool {
		info := NodeInfo{
			Path:         n.TreePath(),
			Name:         n.Name(),
			Depth:        depth(n),
			Active:       n.Active(),
			CapturesPath: n.CapturesPath(),
			CapturedPath: n.CapturedPath(),
		}
		if c := n.ActiveChild(); c != nil {
			info.ActiveChild = c.Name()
		}
		for _, p := range n.QueryParams() {
			info.Params = append(info.Params, ParamInfo{
				Variable: p.VariableName(),
				Query:    p.QueryParamName(),
				Kind:     p.Kind().String(),
				Value:    p.Value(),
			})
		}
		out = append(out, info)
		return true
	})
	return out
}

func depth(n *route.Node) int {
	d := 0
	for p := n.Parent(); p != nil; p = p.Parent() {
		d++
	}
	return d
}
