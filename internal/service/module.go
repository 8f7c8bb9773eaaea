package service

import (
	"log/slog"

	"github.com/alpadrive/server/config"
	"go.uber.org/fx"
)

var Module = fx.Module("service",
	fx.Provide(
		fx.Annotate(
			NewAccountService,
			fx.As(new(Accounter)),
		),
		fx.Annotate(
			NewPairingService,
			fx.As(new(Pairer)),
		),
		fx.Annotate(
			NewStatusService,
			fx.As(new(Statuser)),
		),
		func(logs LogStore, cfg *config.Config, logger *slog.Logger) *Aggregator {
			return NewAggregator(logs, cfg.Telemetry.ISODates, logger)
		},
		func(a *Aggregator) Folder { return a },
		func(a *Aggregator) LogQuerier { return a },
	),
)
