/*
serve.go - HTTP server command

STARTUP SEQUENCE:
  1. Open the SQLite store
  2. Reconcile stock from the logs
  3. Start the flush scheduler
  4. Serve the API until SIGINT/SIGTERM

GRACEFUL SHUTDOWN:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler (final flush of pending writes)
  4. Close the database
*/
package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/parts-ledger/api"
	"github.com/warp/parts-ledger/config"
)

const shutdownTimeout = 30 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			addr := opts.Config.HTTP.Addr()
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return WrapExitError(ExitCommandError, "listen on "+addr, err)
			}
			return serve(ctx, opts, ln)
		},
	}

	cmd.Flags().String("host", "", "listen host (default 127.0.0.1)")
	cmd.Flags().Int("port", 0, "listen port (default 8080)")
	cmd.Flags().StringSlice("cors-origin", nil, "allowed browser origins (default *)")
	bindFlag(opts.v, config.KeyHTTPHost, cmd.Flags().Lookup("host"))
	bindFlag(opts.v, config.KeyHTTPPort, cmd.Flags().Lookup("port"))
	bindFlag(opts.v, config.KeyCORSOrigins, cmd.Flags().Lookup("cors-origin"))

	return cmd
}

// serve runs the API on ln until ctx is done.
func serve(ctx context.Context, opts *RootOptions, ln net.Listener) error {
	cfg, log := opts.Config, opts.Log

	ledger, closeLedger, err := opts.openLedger()
	if err != nil {
		ln.Close()
		return err
	}
	defer closeLedger()

	if stock, err := ledger.Rebuild(ctx); err != nil {
		log.Warn().Err(err).Msg("startup reconciliation skipped")
	} else {
		log.Info().Int("parts", len(stock)).Str("db", cfg.DB.Path).Msg("stock reconciled")
	}

	handler := api.NewHandler(ledger, cfg.API.PageSize, log)
	scheduler, err := api.NewFlushScheduler(ledger, cfg.DB.FlushSchedule, cfg.DB.RebuildSchedule, log)
	if err != nil {
		ln.Close()
		return WrapExitError(ExitCommandError, "scheduler", err)
	}
	handler.Scheduler = scheduler
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Handler:      api.NewRouter(handler, api.RouterOptions{CORSOrigins: cfg.HTTP.CORSOrigins, Log: log}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("server starting")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitFailure, "server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "server forced to shutdown", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
