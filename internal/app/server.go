package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// ListenAndServe serves HTTP until ctx is done, then drains in-flight
// requests and releases the stores.
func (a *App) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Addr(),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("url", "http://localhost"+srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		a.Shutdown()
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	a.Shutdown()
	if err != nil {
		return err
	}
	a.logger.Info("server exited")
	return nil
}
