// Package httpserver owns the lifecycle of the HTTP listener around
// the chi mux assembled by the handler layer.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alpadrive/server/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
)

var Module = fx.Module("httpserver",
	fx.Provide(
		func() *chi.Mux {
			mux := chi.NewRouter()
			mux.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
			return mux
		},
	),
	fx.Invoke(Register),
)

func Register(lc fx.Lifecycle, cfg *config.Config, mux *chi.Mux, logger *slog.Logger) {
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Bind synchronously so a taken port fails startup instead
			// of logging from a goroutine.
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				logger.Info("http server listening", "addr", srv.Addr)
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server failed", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
