package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sherine-k/actuator/pkg/live"
	"github.com/sherine-k/actuator/pkg/metrics"
	"github.com/sherine-k/actuator/pkg/scheduler"
)

var (
	listenAddr  string
	unit        time.Duration
	metricsAddr string
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Run against the wall clock",
	Long: `Read one delay per line and fire the pending actuation in real time.

A non-negative delay arms the actuation to fire after that many units, replacing
anything pending; a negative delay cancels it. With --listen every TCP connection
is an independent session and events are written back on the connection.`,
	RunE: runLive,
}

func init() {
	liveCmd.Flags().StringVar(&listenAddr, "listen", "", "Serve sessions on this TCP address instead of standard input")
	liveCmd.Flags().DurationVar(&unit, "unit", time.Second, "Wall-clock length of one delay unit")
	liveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Expose prometheus metrics on this address")

	rootCmd.AddCommand(liveCmd)
}

func runLive(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Live.Listen = listenAddr
	}
	if flags.Changed("unit") {
		cfg.Live.Unit = unit
	}
	if flags.Changed("metrics-addr") {
		cfg.Live.MetricsAddr = metricsAddr
	}
	if cfg.Live.Unit <= 0 {
		return fmt.Errorf("unit must be greater than 0")
	}

	m := metrics.New()
	g, ctx := errgroup.WithContext(cmd.Context())

	if cfg.Live.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{Addr: cfg.Live.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			logger.Info().Str("addr", cfg.Live.MetricsAddr).Msg("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		if err := serveSessions(ctx, cmd, m); err != nil {
			return err
		}
		// input is done, take the metrics server down with it
		return errStopped
	})

	err := g.Wait()
	if errors.Is(err, errStopped) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// errStopped cancels the group when the input side finishes normally
var errStopped = errors.New("stopped")

// serveSessions runs the TCP server, or a single session on standard input
func serveSessions(ctx context.Context, cmd *cobra.Command, m *metrics.Metrics) error {
	if cfg.Live.Listen != "" {
		srv := live.NewServer(cfg.Live.Listen,
			live.WithUnit(cfg.Live.Unit),
			live.WithLogger(logger),
			live.WithMetrics(m),
		)
		return srv.Serve(ctx)
	}

	out := scheduler.NewWriterSink(cmd.OutOrStdout())
	d := live.NewDispatcher(live.SystemClock{}, cfg.Live.Unit, logger, out, m)
	if err := d.Run(ctx, cmd.InOrStdin()); err != nil {
		return err
	}
	return out.Err()
}
