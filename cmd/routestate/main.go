package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/vango-dev/routestate/internal/config"
	"github.com/vango-dev/routestate/internal/errors"
	"github.com/vango-dev/routestate/pkg/route"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool

	logger *slog.Logger
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for invalid configuration or input and 1 for everything
// else, such as I/O or store failures.
func exitCode(err error) int {
	if config.IsConfigError(err) {
		return 2
	}
	return 1
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "routestate",
		Short: "Hierarchical route state manager",
		Long: `routestate keeps a tree of routes in sync with a URL and a JSON state.

A URL such as /users/42?flag selects the active child at each level of
the tree, captures unmatched path remainders, and sets typed query
parameters. The same information can be exported as a nested JSON state
and imported back.

The route tree is read from routestate.json or routestate.toml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.noColor {
				errors.DisableColors()
			}
			logger, err := newLogger(stderr, opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			opts.logger = logger
			slog.SetDefault(logger)
			return nil
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to the config file (default: routestate.json or routestate.toml in the working directory)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored error output")

	rootCmd.AddCommand(
		initCmd(opts),
		parseCmd(opts),
		normalizeCmd(opts),
		formatCmd(opts),
		treeCmd(opts),
		validateCmd(opts),
		serveCmd(opts),
		snapshotCmd(opts),
		versionCmd(),
	)

	return rootCmd
}

// newLogger builds the slog logger selected by the --log-* flags.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.New("R140").
			WithDetail(fmt.Sprintf("Unknown log level %q", level)).
			WithSuggestion("Use debug, info, warn or error")
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, errors.New("R140").
			WithDetail(fmt.Sprintf("Unknown log format %q", format)).
			WithSuggestion("Use text or json")
	}
}

// loadConfig loads and validates the configuration selected by --config.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadTree loads the configuration and builds its route tree.
func (o *globalOptions) loadTree() (*config.Config, *route.Node, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	root, err := cfg.BuildTree()
	if err != nil {
		return nil, nil, err
	}
	return cfg, root, nil
}

// printError writes err to w, expanding multi-errors into one entry each.
func printError(w io.Writer, err error) {
	var merr *multierror.Error
	if stderrors.As(err, &merr) {
		for _, e := range merr.Errors {
			errors.PrintError(w, e)
		}
		return
	}
	errors.PrintError(w, err)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
