package cli

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/updatecheck/internal/api"
	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/observability"
	obsprom "github.com/matzehuels/updatecheck/pkg/observability/prometheus"
)

const (
	defaultAddr  = ":8080"
	defaultGrace = 15 * time.Second
)

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		grace time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the check API over HTTP",
		Long: `Serve the check API over HTTP.

Routes:
  POST /v1/check   check dependencies (JSON request, see internal/api)
  GET  /healthz    liveness and build information
  GET  /metrics    Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.invoke(cmd, func(opts deps.Options) error {
				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				obsprom.New(reg).Install()
				defer observability.Reset()

				metrics := promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
				router := api.NewRouter(api.NewHandler(opts), metrics)
				return api.NewServer(addr, router, c.Logger).Run(cmd.Context(), grace)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().DurationVar(&grace, "grace", defaultGrace, "time allowed for in-flight checks on shutdown")

	return cmd
}
