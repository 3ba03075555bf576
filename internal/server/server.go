package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/koscakluka/ema-callbot/core/calls"
)

// shutdownTimeout leaves room for a call to flush its last turn after the
// listener stops.
const shutdownTimeout = calls.DefaultFlushTimeout + 5*time.Second

// Drainer stops running call sessions on shutdown.
type Drainer interface {
	CloseAll()
	Wait(ctx context.Context) error
}

// Run serves handler on addr until ctx is cancelled, then stops accepting
// requests and ends the running calls.
func Run(ctx context.Context, addr string, handler http.Handler, sessions Drainer) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return Serve(ctx, listener, handler, sessions)
}

func Serve(ctx context.Context, listener net.Listener, handler http.Handler, sessions Drainer) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "Listening", "addr", listener.Addr().String())
		serveErr <- server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	logger.InfoContext(shutdownCtx, "Shutting down")
	err := server.Shutdown(shutdownCtx)
	// Media streams are hijacked connections that Shutdown does not wait for.
	sessions.CloseAll()
	if waitErr := sessions.Wait(shutdownCtx); waitErr != nil {
		err = errors.Join(err, fmt.Errorf("waiting for calls: %w", waitErr))
	}
	return err
}
