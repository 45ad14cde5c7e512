package main

import (
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vango-dev/routestate/internal/errors"
	"github.com/vango-dev/routestate/pkg/store"
)

func snapshotCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage saved state snapshots",
		Long: `List, inspect, create and delete the snapshots kept in the configured
store. The memory store does not outlive the process, so these commands
are most useful with the file or s3 store.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List snapshot names",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := openStore(opts)
				if err != nil {
					return err
				}
				names, err := st.List(cmd.Context())
				if err != nil {
					return errors.FromError(err, "R122")
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "save URL [NAME]",
			Short: "Save the state a URL selects",
			Long: `Import URL into the route tree and save the resulting state under NAME.
A random name is generated when NAME is omitted. The name is printed.`,
			Args: cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, root, err := opts.loadTree()
				if err != nil {
					return err
				}
				st, err := openStore(opts)
				if err != nil {
					return err
				}
				name := store.NewName()
				if len(args) == 2 {
					name = args[1]
				}
				root.SetURL(args[0])
				if err := st.Save(cmd.Context(), name, root.State()); err != nil {
					return storeError(err, name)
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show NAME",
			Short: "Print a snapshot's state and URL",
			Args:  exactArgs(1, "a snapshot name"),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, root, err := opts.loadTree()
				if err != nil {
					return err
				}
				st, err := openStore(opts)
				if err != nil {
					return err
				}
				state, err := st.Load(cmd.Context(), args[0])
				if err != nil {
					return storeError(err, args[0])
				}
				if err := root.SetState(state); err != nil {
					return errors.FromError(err, "R001").WithDetail(err.Error())
				}
				fmt.Fprintf(cmd.OutOrStdout(), "URL: %s\n", root.URL())
				return writeState(cmd.OutOrStdout(), state, false)
			},
		},
		&cobra.Command{
			Use:   "delete NAME",
			Short: "Delete a snapshot",
			Args:  exactArgs(1, "a snapshot name"),
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := openStore(opts)
				if err != nil {
					return err
				}
				if err := st.Delete(cmd.Context(), args[0]); err != nil {
					return storeError(err, args[0])
				}
				success(cmd.OutOrStdout(), "deleted %s", args[0])
				return nil
			},
		},
	)

	return cmd
}

func openStore(opts *globalOptions) (store.Store, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	return cfg.OpenStore()
}

func storeError(err error, name string) error {
	switch {
	case stderrors.Is(err, store.ErrNotFound):
		return errors.New("R120").WithDetail(fmt.Sprintf("No snapshot named %q", name))
	case stderrors.Is(err, store.ErrInvalidName):
		return errors.New("R121").WithDetail(fmt.Sprintf("%q is not a valid snapshot name", name))
	default:
		return errors.FromError(err, "R122")
	}
}
