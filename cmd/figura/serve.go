package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/figura-dev/figura/internal/project"
	"github.com/figura-dev/figura/pkg/metrics"
	"github.com/figura-dev/figura/pkg/preview"
	"github.com/figura-dev/figura/pkg/tracing"
	"github.com/figura-dev/figura/pkg/view"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live preview",
		Long: `Serve the rendered page with live updates.

POST /dispatch fires an event on the server-side page and pushes the
new markup to connected browsers. POST /reload rereads the project
file. Metrics are exposed at /metrics.

Examples:
  figura serve
  figura serve --addr :8080 --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Serve.Addr = addr
			}

			logger := g.logger(cmd.ErrOrStderr())
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			obs := view.Observers{metrics.New(metrics.WithRegistry(reg)), tracing.New()}

			var loads atomic.Int32
			srv, err := preview.New(preview.Options{
				Load: func() (*project.Project, error) {
					c := cfg
					if loads.Add(1) > 1 {
						next, err := g.loadConfig()
						if err != nil {
							return nil, err
						}
						c = next
					}
					return g.build(c, logger, obs)
				},
				Gatherer: reg,
				Pretty:   cfg.Output.Pretty,
				Logger:   logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			success(cmd.ErrOrStderr(), "Serving %s at %s", cfg.Name, cfg.Serve.Addr)
			return srv.ListenAndServe(ctx, cfg.Serve.Addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from project file)")

	return cmd
}
