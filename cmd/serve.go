package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/maleon-core-poc/server/internal/httpapi"
	logx "github.com/maleon-core-poc/server/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts.envFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := wireApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return serve(ctx, a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	go a.sessions.Run(ctx)
	go a.cache.Run(ctx)

	srv := &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      httpapi.NewRouter(a.cfg.HTTP, a.mounts, a.handler),
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", srv.Addr).Msg("Maleón listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logx.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
