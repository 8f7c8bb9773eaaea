package telemetry

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/alpadrive/server/internal/adapter/pubsub"
	"go.uber.org/fx"
)

var Module = fx.Module("telemetry-handler",
	fx.Provide(
		pubsub.NewSampleDispatcher,
		NewSampleHandler,
		NewWatermillRouter,
	),

	fx.Invoke(RegisterHandlers),
	fx.Invoke(RunRouter),
)

func RegisterHandlers(h *SampleHandler, router *message.Router, sub message.Subscriber) error {
	return h.RegisterHandlers(router, sub)
}

// RunRouter ties the bus consumer to the application lifecycle.
func RunRouter(lc fx.Lifecycle, router *message.Router) {
	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				_ = router.Run(runCtx)
			}()

			// Handlers must be live before the first sample arrives.
			select {
			case <-router.Running():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return router.Close()
		},
	})
}
