package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sunwoojg/carelink/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Resolve the session before taking traffic. A transient backend
		// failure is not fatal: the guard holds requests until state is
		// known, and it is known (unauthenticated) after bootstrap.
		if err := a.sess.Bootstrap(ctx); err != nil {
			a.log.Warn(ctx, "session bootstrap incomplete", "err", err)
		}

		srv := &http.Server{
			Addr:              a.cfg.Web.Addr(),
			Handler:           web.NewRouter(a.client, a.sess, a.log),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.log.Info(ctx, "dashboard listening", "addr", srv.Addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
