package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vslplatform/vsladmin/internal/web"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Long: `Run a local web console showing the admin dashboard at /admin.

Each page load fetches the statistics once. The token is taken from the
request's Authorization header or vsl_token cookie, falling back to
VSLADMIN_TOKEN and then the stored login.

Routes:
  GET /admin             HTML dashboard
  GET /admin/stats.json  dashboard as JSON
  GET /health            liveness`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = a.cfg.Web.Listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("cannot listen on %s: %w", listen, err)
			}
			return a.serve(ctx, ln)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, 127.0.0.1:3000)")
	return cmd
}

// serve runs the console on ln until ctx ends, then shuts down gracefully.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	console, err := web.NewServer(a.client(), a.tokenSource(), web.Settings{
		Locale:          a.cfg.LocaleTag(),
		SystemUptime:    a.cfg.SystemUptime,
		Timeout:         a.cfg.Timeout,
		ShowFetchErrors: a.cfg.ShowFetchErrors,
		RateLimit:       a.cfg.Web.RateLimit,
		Burst:           a.cfg.Web.Burst,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to build web console: %w", err)
	}
	defer console.Close()

	srv := &http.Server{
		Handler:           console.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      a.cfg.Timeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("web console starting",
			zap.String("listen", ln.Addr().String()),
			zap.String("backend", a.cfg.Server))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down web console")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	a.logger.Info("web console stopped")
	return nil
}
