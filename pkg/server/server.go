package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Run serves cfg until ctx is cancelled. Cleartext HTTP/2 is accepted alongside HTTP/1.1.
func Run(ctx context.Context, cfg *Config) error {
	objs, err := BuildObjects(cfg)
	if err != nil {
		return err
	}
	h := NewHandler(objs, cfg.MaxObjectSize)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2c.NewHandler(h, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.InfoContext(ctx, "shutting down")
		_ = srv.Shutdown(context.Background())
	}()

	slog.Info("serving objects", slog.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
