package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/vango-dev/routestate/internal/config"
	"github.com/vango-dev/routestate/pkg/middleware"
	"github.com/vango-dev/routestate/pkg/router"
	"github.com/vango-dev/routestate/pkg/server"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the route state over HTTP",
		Long: `Start the HTTP API for the configured route tree.

Endpoints:
  GET/PUT /url, GET/PUT /state, GET /tree
  /snapshots (save, fetch, restore, delete)
  GET /ws      snapshot feed
  GET /metrics Prometheus metrics

Examples:
  routestate serve
  routestate serve --port=9000 --host=0.0.0.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}

			srv, err := buildServer(cfg, opts)
			if err != nil {
				return err
			}
			return srv.Run()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")

	return cmd
}

// buildServer wires the tree, router, store and observability described by
// cfg into a server.
func buildServer(cfg *config.Config, opts *globalOptions) (*server.Server, error) {
	root, err := cfg.BuildTree()
	if err != nil {
		return nil, err
	}
	st, err := cfg.OpenStore()
	if err != nil {
		return nil, err
	}

	routerOpts := []router.Option{router.WithLogger(opts.logger)}
	serverOpts := []server.Option{server.WithStore(st)}

	if !cfg.Server.DisableMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := middleware.NewMetrics(middleware.WithRegistry(reg))
		routerOpts = append(routerOpts, router.WithObserver(metrics))
		serverOpts = append(serverOpts, server.WithMetrics(metrics, reg))
	}
	if !cfg.Server.DisableTracing {
		serverOpts = append(serverOpts, server.WithTracing(
			middleware.WithTracerName(cfg.Server.TracerName),
		))
	}

	r, err := router.New(root, routerOpts...)
	if err != nil {
		return nil, err
	}

	serverCfg := server.DefaultConfig()
	serverCfg.Address = cfg.Server.Address()
	serverCfg.MetricsPath = cfg.Server.MetricsPath
	serverCfg.Logger = opts.logger
	if len(cfg.Server.AllowedOrigins) > 0 {
		serverCfg.CheckOrigin = server.AllowOrigins(cfg.Server.AllowedOrigins...)
	}

	opts.logger.Info("serving route state",
		"address", serverCfg.Address,
		"store", cfg.Store.Kind,
		"initial_url", r.URL())

	return server.New(r, serverCfg, serverOpts...), nil
}
