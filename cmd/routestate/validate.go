package main

import (
	"github.com/spf13/cobra"
	"github.com/vango-dev/routestate/pkg/router"
)

func validateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file",
		Long: `Load the configuration, report every problem found, and build the
route tree.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := opts.loadTree()
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "%s is valid (%d routes)", cfg.Path(), len(router.Describe(root)))
			return nil
		},
	}
}
