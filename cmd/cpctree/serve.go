package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dgallion1/cpctree/internal/api"
	"github.com/dgallion1/cpctree/internal/builder"
	"github.com/dgallion1/cpctree/internal/metrics"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var port string
	var workers int
	cmd := &cobra.Command{
		Use:   "serve <xml_directory>",
		Short: "Build the tree and serve it over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Port = port
			}
			if workers > 0 {
				a.cfg.Workers = workers
			}
			ln, err := net.Listen("tcp", ":"+a.cfg.Port)
			if err != nil {
				return a.fail("listen", err)
			}
			return a.serve(cmd.Context(), args[0], ln)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default $PORT or 8090)")
	cmd.Flags().IntVar(&workers, "workers", 0, "top-level subtrees built concurrently (default $CPCTREE_WORKERS or 1)")
	return cmd
}

// serve builds the tree once and serves it on ln until ctx is cancelled.
func (a *app) serve(ctx context.Context, dir string, ln net.Listener) error {
	log := a.log.With("dir", dir)
	b := builder.New(dir, builder.WithLogger(log), builder.WithWorkers(a.cfg.Workers))
	store := api.NewStore(b, metrics.NewLatencyStats(a.cfg.StatsWindow), log)
	if _, err := store.Rebuild(ctx); err != nil {
		ln.Close()
		return err
	}

	httpServer := &http.Server{
		Handler:      api.NewServer(store, a.log, a.cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		a.log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.log.Error("shutdown", "error", err)
		}
	}()

	a.log.Info("starting cpctree", "addr", ln.Addr().String())
	if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return a.fail("server error", err)
	}
	<-done
	return nil
}
