package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/observe"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/store"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the recognition HTTP and WebSocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if addr != "" {
				rt.cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, rt)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, rt *env) error {
	log := rt.log

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "mudra",
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.WithError(err).Warn("metrics shutdown failed")
		}
	}()

	st, err := store.New(rt.cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	manager, err := session.NewManager(rt.cfg.Recognition, observe.DefaultMetrics(), rt.sessionOptions()...)
	if err != nil {
		return err
	}

	cfg := server.Config{
		Sessions: manager,
		Store:    st,
		Metrics:  observe.Handler(),
		Logger:   log,
	}
	if dir := rt.cfg.Plugins.Dir; dir != "" {
		plugins := plugin.NewManager(dir, plugin.NewExecutor(rt.cfg.Plugins.Timeout), log)
		if err := plugins.Discover(); err != nil {
			return fmt.Errorf("discover plugins: %w", err)
		}
		cfg.OnConfirm = plugins
	}
	srv := server.New(cfg)
	httpServer := srv.NewHTTPServer(rt.cfg.Server.Addr)

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", rt.cfg.Server.Addr).Info("server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
