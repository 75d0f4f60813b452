// Package server runs the HTTP listener, and the gRPC health service when a
// port is configured, until the context is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/farmchain/farmchain/pkg/grpc"
	"github.com/farmchain/farmchain/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// Options configures Run.
type Options struct {
	Addr    string
	Handler http.Handler

	// GRPC is served on GRPCPort when both are set.
	GRPC     *grpc.Server
	GRPCPort string

	// OnShutdown runs when shutdown begins, before in-flight requests are
	// drained. Long-lived streams use it to let their handlers return.
	OnShutdown func()
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, o Options) error {
	srv := &http.Server{
		Addr:              o.Addr,
		Handler:           o.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if o.OnShutdown != nil {
		srv.RegisterOnShutdown(o.OnShutdown)
	}

	if o.GRPC != nil && o.GRPCPort != "" {
		if _, err := o.GRPC.Start(o.GRPCPort); err != nil {
			return err
		}
		go o.GRPC.WatchHealth(ctx, 15*time.Second)
		defer o.GRPC.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening", "addr", o.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server: shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
