package httpapi

import (
	"go.uber.org/fx"
)

var Module = fx.Module("http-api",
	fx.Provide(NewHandler),
	fx.Invoke((*Handler).RegisterRoutes),
)
