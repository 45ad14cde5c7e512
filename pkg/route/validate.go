package route

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	rerrors "github.com/vango-dev/routestate/internal/errors"
)

// Validate checks the whole tree below root for problems the builder cannot
// see one node at a time. Currently that is a URL query parameter name
// repeated along a root-to-leaf chain, where the ancestor would overwrite
// the descendant in exported URLs. Siblings may reuse names freely.
//
// All problems are reported together; each matches ErrShadowedParam.
func Validate(root *Node) error {
	var result *multierror.Error
	validateChain(root, map[string]*Node{}, &result)
	return result.ErrorOrNil()
}

func validateChain(n *Node, seen map[string]*Node, result **multierror.Error) {
	var added []string
	for _, p := range n.params {
		name := p.QueryParamName()
		if owner, ok := seen[name]; ok {
			*result = multierror.Append(*result, rerrors.New("R005").
				WithDetail(fmt.Sprintf("query parameter %q on %q is already declared by ancestor %q", name, n.TreePath(), owner.TreePath())).
				Wrap(ErrShadowedParam))
			continue
		}
		seen[name] = n
		added = append(added, name)
	}

	for _, c := range n.children {
		validateChain(c, seen, result)
	}

	for _, name := range added {
		delete(seen, name)
	}
}
