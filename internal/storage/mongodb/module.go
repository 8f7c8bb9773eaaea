package mongodb

import (
	"github.com/alpadrive/server/internal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("storage",
	fx.Provide(
		fx.Annotate(
			NewUserRepository,
			fx.As(new(service.UserStore)),
		),
		fx.Annotate(
			NewVehicleRepository,
			fx.As(new(service.VehicleStore)),
		),
		fx.Annotate(
			NewLogRepository,
			fx.As(new(service.LogStore)),
		),
	),
)
