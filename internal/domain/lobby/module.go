package lobby

import (
	"context"
	"log/slog"

	"github.com/alpadrive/server/config"
	"go.uber.org/fx"
)

var Module = fx.Module("lobby",
	fx.Provide(
		NewPresence,
		func(cfg *config.Config, presence *Presence, logger *slog.Logger) *Lobby {
			return New(presence, logger,
				WithQueueSize(cfg.Lobby.QueueSize),
			)
		},
		func(l *Lobby) Lobbier { return l },
	),
	fx.Invoke(func(lc fx.Lifecycle, l *Lobby) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				l.Shutdown()
				return nil
			},
		})
	}),
)
