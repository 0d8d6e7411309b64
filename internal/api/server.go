package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ducminhle1904/trade-setup-engine/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Serve runs handler on port until ctx is cancelled, then shuts down gracefully
func Serve(ctx context.Context, port int, handler http.Handler, log *logger.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("HTTP server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
