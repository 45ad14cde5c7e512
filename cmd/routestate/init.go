package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vango-dev/routestate/internal/config"
	"github.com/vango-dev/routestate/internal/errors"
)

func initCmd(opts *globalOptions) *cobra.Command {
	var (
		useTOML bool
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init [DIR]",
		Short: "Write a starter configuration",
		Long: `Write routestate.json (or routestate.toml with --toml) into DIR, or the
working directory, with a small example route tree.

Examples:
  routestate init
  routestate init --toml ./deploy`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			name := config.JSONFileName
			if useTOML {
				name = config.TOMLFileName
			}
			path := filepath.Join(dir, name)

			if _, err := os.Stat(path); err == nil && !force {
				return errors.New("R142").WithDetail(path + " already exists")
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return errors.New("R140").Wrap(err)
			}

			cfg := starterConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			opts.logger.Debug("config written", "path", path)
			success(cmd.OutOrStdout(), "Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&useTOML, "toml", false, "Write TOML instead of JSON")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func starterConfig() *config.Config {
	cfg := config.New()
	cfg.Tree = config.TreeDef{
		Children: []config.TreeDef{
			{Name: "home"},
			{
				Name:        "users",
				CapturePath: true,
				Params:      []config.ParamDef{{Kind: config.KindBoolean, Variable: "flag"}},
			},
			{
				Name:   "search",
				Params: []config.ParamDef{{Kind: config.KindString, Variable: "query", Query: "q"}},
			},
		},
	}
	cfg.InitialURL = "/home"
	return cfg
}
