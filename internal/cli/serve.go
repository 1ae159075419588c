package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/roach88/pathway/internal/api"
	"github.com/roach88/pathway/internal/observability"
	"github.com/roach88/pathway/internal/reveal"
)

// Version is stamped into traces; overridden at build time with -ldflags.
var Version = "dev"

const (
	shutdownTimeout  = 10 * time.Second
	limiterInterval  = time.Minute
	limiterIdleAfter = 10 * time.Minute
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Address string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until SIGINT or SIGTERM.

The listen address, database, catalog and tracing settings come from the
config file and PATHWAY_* environment variables. --addr overrides
server.address.

Examples:
  pathway serve
  pathway serve --addr :9090 --config ./config/pathway.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Address, "addr", "", "listen address (overrides server.address)")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	return withApp(ctx, opts.RootOptions, func(a *app) error {
		shutdownOTel := observability.InitOTel(ctx, a.log, observability.OtelConfig{
			Enabled:     a.cfg.OTel.Enabled,
			ServiceName: "pathway",
			Version:     Version,
			Endpoint:    a.cfg.OTel.Endpoint,
			Insecure:    a.cfg.OTel.Insecure,
			SampleRatio: a.cfg.OTel.SampleRatio,
		})
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdownOTel(flushCtx); err != nil {
				a.log.Warn("otel shutdown failed", "error", err)
			}
		}()

		policy, err := reveal.ParsePolicy(a.cfg.Reveal.Policy)
		if err != nil {
			return WrapExitError(ExitCommandError, "reveal policy", err)
		}

		server := api.NewServer(a.svc, api.Options{
			AllowedOrigins: a.cfg.Server.AllowedOrigins,
			RevealPolicy:   policy,
			WordsPerSecond: a.cfg.Reveal.WordsPerSecond,
			RateLimit:      rate.Limit(a.cfg.RateLimit.RPS),
			Burst:          a.cfg.RateLimit.Burst,
			Logger:         a.log,
			Metrics:        a.metrics,
		})

		addr := a.cfg.Server.Address
		if opts.Address != "" {
			addr = opts.Address
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           server.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			a.log.Info("http server listening", "addr", addr, "sequences", len(a.catalog.Sequences()))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			server.Limiter().Run(gctx, limiterInterval, limiterIdleAfter)
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			a.log.Info("shutting down http server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			return WrapExitError(ExitCommandError, "serve", err)
		}
		return nil
	})
}
