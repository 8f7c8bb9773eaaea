package cmd

import (
	"github.com/alpadrive/server/config"
	"github.com/alpadrive/server/infra/httpserver"
	"github.com/alpadrive/server/infra/mongodb"
	"github.com/alpadrive/server/infra/sysprobe"
	"github.com/alpadrive/server/internal/domain/lobby"
	"github.com/alpadrive/server/internal/handler/httpapi"
	"github.com/alpadrive/server/internal/handler/telemetry"
	"github.com/alpadrive/server/internal/handler/ws"
	"github.com/alpadrive/server/internal/service"
	storage "github.com/alpadrive/server/internal/storage/mongodb"
	"go.uber.org/fx"
)

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
			ProvideWatermillLogger,
			ProvidePubSub,
			ProvideProbe,
		),
		mongodb.Module,
		storage.Module,
		lobby.Module,
		service.Module,
		telemetry.Module,
		ws.Module,
		httpapi.Module,
		httpserver.Module,
	)
}

// ProvideProbe keeps the service layer on its port instead of gopsutil.
func ProvideProbe() service.SystemProber {
	return sysprobe.New()
}
