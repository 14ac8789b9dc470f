package cli

import (
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/buildorder/internal/api"
	"github.com/matzehuels/buildorder/pkg/cache"
	"github.com/matzehuels/buildorder/pkg/observability/metrics"
)

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		baseDir  string
		noCache  bool
		noMetric bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve build orders over HTTP",
		Long: `Run the HTTP API. Requests carry the workspace description inline:

  POST /v1/order       build order
  POST /v1/classpath   bundle classpaths
  POST /v1/cycles      reference cycles
  GET  /healthz        liveness
  GET  /metrics        Prometheus metrics

Relative bundle locations are resolved against --base-dir.`,
		Example: `  buildorder serve --addr :8080
  curl -s localhost:8080/v1/order -d '{"workspace": "[[project]]\nname = \"app\"\n"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.config.Serve.Addr
			}
			if baseDir == "" {
				baseDir = c.config.Serve.BaseDir
			}
			if baseDir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				baseDir = wd
			}

			ctx := cmd.Context()
			cfg := api.Config{Logger: c.Logger, BaseDir: baseDir}

			r, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer r.Close()
			// API results share the cache with the CLI under their own prefix.
			r.Keyer = cache.NewScopedKeyer(r.Keyer, "api:")

			if !noMetric {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				m := metrics.New(reg)
				hooks := m.Hooks()
				r.Hooks = hooks.WithDefaults()
				cfg.Hooks = hooks.API
				cfg.Gatherer = reg
			}
			cfg.Runner = r

			printSuccess("Listening on %s", StyleHighlight.Render(addr))
			printDetail("Base directory: %s", baseDir)
			if !noMetric {
				printDetail("Metrics: %s", StyleLink.Render(localURL(addr)+"/metrics"))
			}
			return api.New(cfg).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&baseDir, "base-dir", "", "directory for relative bundle locations (default working directory)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&noMetric, "no-metrics", false, "disable the /metrics endpoint")

	return cmd
}

// localURL turns a listen address into a URL for display.
func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
