package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/reoring/ocppskema/internal/bus"
	"github.com/reoring/ocppskema/internal/metrics"
	"github.com/reoring/ocppskema/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP validation API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.HTTP.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			m := metrics.New(prometheus.DefaultRegisterer)
			return waitHTTP(<-a.runHTTP(ctx, m))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func (a *app) runHTTP(ctx context.Context, m *metrics.Metrics) <-chan error {
	s := server.New(server.Options{
		Catalog: a.catalog,
		Parse:   a.cfg.Parse.ParseOpt(),
		Mode:    a.cfg.Parse.ValidationMode(),
		MaxBody: a.cfg.HTTP.MaxBodyBytes,
		Metrics: m,
		Logger:  a.log,
	})
	return server.Run(ctx, a.cfg.HTTP, s.Routes(), a.log)
}

// waitHTTP treats a shutdown caused by cancellation as success.
func waitHTTP(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newListenCommand(a *app) *cobra.Command {
	var (
		subject  string
		queue    string
		forward  string
		embedded bool
		withHTTP bool
	)
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Validate OCPP-J frames received over NATS request/reply",
		Long: `Subscribe to the configured subject and answer every frame: valid frames
are echoed back, invalid ones receive their CALLERROR or CALLRESULTERROR.
Headers carry the verdict (Ocpp-Valid, Ocpp-Type, Ocpp-Error-Code); requests
carrying a CALLRESULT name the answered action in Ocpp-Pending-Action.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.NATS
			if subject != "" {
				cfg.Subject = subject
			}
			if queue != "" {
				cfg.Queue = queue
			}
			if embedded {
				cfg.Embedded = true
			}

			var nc *nats.Conn
			if cfg.Embedded {
				conn, ns, err := bus.StartEmbedded(bus.EmbeddedOptions{Port: cfg.Port, Logger: &a.log})
				if err != nil {
					return err
				}
				defer ns.Shutdown()
				a.log.Info().Str("url", ns.ClientURL()).Msg("embedded nats server started")
				nc = conn
			} else {
				conn, err := nats.Connect(cfg.URL, nats.Name("ocppskema"))
				if err != nil {
					return err
				}
				nc = conn
			}
			defer nc.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			m := metrics.New(prometheus.DefaultRegisterer)

			var httpErr <-chan error
			if withHTTP {
				httpErr = a.runHTTP(ctx, m)
			}

			v := bus.NewValidator(nc, bus.Options{
				Registry: a.catalog,
				Subject:  cfg.Subject,
				Queue:    cfg.Queue,
				Forward:  forward,
				Parse:    a.cfg.Parse.ParseOpt(),
				Mode:     a.cfg.Parse.ValidationMode(),
				Metrics:  m,
				Logger:   a.log,
			})
			err := v.Run(ctx)
			if httpErr != nil {
				if herr := waitHTTP(<-httpErr); herr != nil {
					return herr
				}
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&subject, "subject", "", "subject to subscribe to (overrides config)")
	f.StringVar(&queue, "queue", "", "queue group (overrides config)")
	f.StringVar(&forward, "forward", "", "subject receiving every valid frame")
	f.BoolVar(&embedded, "embedded", false, "run an in-process NATS server")
	f.BoolVar(&withHTTP, "http", false, "also serve the HTTP API and /metrics")
	return cmd
}
