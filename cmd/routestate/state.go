package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/routestate/internal/errors"
	"github.com/vango-dev/routestate/pkg/route"
)

func parseCmd(opts *globalOptions) *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "parse URL",
		Short: "Print the state a URL selects",
		Long: `Import URL into the configured route tree and print the resulting state
as JSON.

Examples:
  routestate parse '/users/42?flag'
  routestate parse --compact /search?q=go`,
		Args: exactArgs(1, "a URL"),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, err := opts.loadTree()
			if err != nil {
				return err
			}
			root.SetURL(args[0])
			opts.logger.Debug("url imported", "url", args[0], "canonical", root.URL())
			return writeState(cmd.OutOrStdout(), root.State(), compact)
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "Print JSON on a single line")

	return cmd
}

func normalizeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize URL",
		Short: "Print the canonical form of a URL",
		Long: `Import URL into the configured route tree and print the URL the tree
exports. Unknown path segments and query parameters are dropped and
parameters are ordered by the tree.

Example:
  routestate normalize '//users/42?junk&flag=1'   # /users/42?flag`,
		Args: exactArgs(1, "a URL"),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, err := opts.loadTree()
			if err != nil {
				return err
			}
			root.SetURL(args[0])
			fmt.Fprintln(cmd.OutOrStdout(), root.URL())
			return nil
		},
	}
}

func formatCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "format [FILE]",
		Short: "Print the URL for a JSON state",
		Long: `Read a state object from FILE (or standard input when FILE is "-" or
omitted), import it into the configured route tree, and print the URL.

Example:
  routestate parse /users/42 | routestate format`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, err := opts.loadTree()
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			name := "stdin"
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return errors.New("R140").Wrap(err)
				}
				defer f.Close()
				in, name = f, args[0]
			}

			state, err := readState(in, name)
			if err != nil {
				return err
			}
			if err := root.SetState(state); err != nil {
				return errors.FromError(err, "R001").WithDetail(err.Error())
			}
			fmt.Fprintln(cmd.OutOrStdout(), root.URL())
			return nil
		},
	}
}

func readState(r io.Reader, name string) (*route.State, error) {
	var state *route.State
	if err := json.NewDecoder(r).Decode(&state); err != nil {
		return nil, errors.New("R141").
			WithDetail(fmt.Sprintf("Failed to decode %s: %v", name, err)).
			WithExample(`{"activeChild": null, "queryParams": {}, "children": {}}`)
	}
	return state, nil
}

func writeState(w io.Writer, state *route.State, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(state)
}

// exactArgs is cobra.ExactArgs with a coded error naming what is missing.
func exactArgs(n int, what string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.New("R140").
				WithDetail(fmt.Sprintf("%s expects %s", cmd.CommandPath(), what)).
				WithExample(cmd.UseLine())
		}
		return nil
	}
}
