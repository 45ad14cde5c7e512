package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/vango-dev/routestate/pkg/route"
	"github.com/vango-dev/routestate/pkg/router"
)

func treeCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree [URL]",
		Short: "Show the route tree",
		Long: `Print every route in the configured tree with its query parameters and
current values. When URL is given it is imported first; otherwise the
config's initialURL is shown.

Example:
  routestate tree '/settings/profile?t=account'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, err := opts.loadTree()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				root.SetURL(args[0])
			}
			renderTree(cmd.OutOrStdout(), router.Describe(root))
			fmt.Fprintf(cmd.OutOrStdout(), "\nActive: %s\n", activeTrail(root))
			fmt.Fprintf(cmd.OutOrStdout(), "URL: %s\n", root.URL())
			return nil
		},
	}
	return cmd
}

func renderTree(w io.Writer, nodes []router.NodeInfo) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"route", "active", "captured", "params"})
	table.SetAutoWrapText(false)

	for _, n := range nodes {
		label := n.Path
		if n.Depth > 0 {
			label = strings.Repeat("  ", n.Depth-1) + n.Name
		}
		if n.CapturesPath {
			label += "/*"
		}

		active := ""
		if n.Active {
			active = "yes"
		}

		params := make([]string, 0, len(n.Params))
		for _, p := range n.Params {
			params = append(params, fmt.Sprintf("%s(%s)=%v", p.Query, p.Kind, formatValue(p.Value)))
		}

		table.Append([]string{label, active, n.CapturedPath, strings.Join(params, " ")})
	}
	table.Render()
}

// activeTrail joins the names along the active path, e.g. "/ > users".
func activeTrail(root *route.Node) string {
	names := []string{"/"}
	for _, n := range root.ActivePath()[1:] {
		names = append(names, n.Name())
	}
	return strings.Join(names, " > ")
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}
