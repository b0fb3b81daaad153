package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bubblechart/internal/server"
	"github.com/matzehuels/bubblechart/pkg/observability/prom"
	"github.com/matzehuels/bubblechart/pkg/pipeline"
)

// serveCommand creates the serve command exposing the pipeline over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render API over HTTP",
		Long: `Serve the render API over HTTP.

Endpoints:
  POST /render              intents -> svg, png, pdf or json (?format=...)
  POST /layout              intents -> layout JSON
  POST /simulations         start a live force simulation
  GET  /simulations/{id}/events
                            server-sent events with one frame per tick
  GET  /metrics             Prometheus metrics

Layout and render options are query parameters (policy, width, height,
padding, seed, style, grid, scale). Defaults come from the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") && c.Config.Server.Addr != "" {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := []server.Option{
		server.WithLogger(c.Logger),
		server.WithDefaults(c.serverDefaults()),
		server.WithFrameInterval(c.Config.Server.FrameInterval),
		server.WithFrameBuffer(c.Config.Server.FrameBuffer),
		server.WithRetention(c.Config.Server.Retention),
	}
	if c.Config.Server.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := prom.New(reg)
		m.Register()
		opts = append(opts, server.WithMetrics(m, reg))
	}

	printInfo("Serving on %s", addr)
	printKeyValue("cache", c.Config.Cache.Backend)
	printKeyValue("metrics", fmt.Sprintf("%t", c.Config.Server.Metrics))

	srv := server.New(runner, opts...)
	return srv.ListenAndServe(ctx, addr)
}

// serverDefaults turns the [render] config section into request defaults.
func (c *CLI) serverDefaults() pipeline.Options {
	rc := c.Config.Render
	return pipeline.Options{
		VizType: rc.VizType,
		Policy:  rc.Policy,
		Width:   rc.Width,
		Height:  rc.Height,
		Padding: rc.Padding,
		Seed:    rc.Seed,
		Style:   rc.Style,
		NoGrid:  rc.NoGrid,
		Scale:   rc.Scale,
	}
}
