package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/drivebridge/drivebridge/internal/bridge"
)

// serveShutdownTimeout is how long in-flight requests get to finish
// after the first signal.
const serveShutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var flagListen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket bridge for the desktop application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := buildLogger()

			svc, err := buildService(logger)
			if err != nil {
				return err
			}

			addr := cfg.Bridge.ListenAddr
			if flagListen != "" {
				addr = flagListen
			}

			return runBridge(cmd.Context(), addr, bridge.NewServer(svc, logger), logger)
		},
	}

	cmd.Flags().StringVar(&flagListen, "listen", "", "listen address (overrides bridge.listen_addr)")

	return cmd
}

// runBridge serves the bridge endpoint until SIGINT/SIGTERM, then drains.
func runBridge(parent context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/bridge", handler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("bridge listening", slog.String("addr", addr))

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	group.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down bridge")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
