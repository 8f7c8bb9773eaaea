package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpadrive/server/config"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/fx"
)

// Connect dials the document store and verifies the link with a ping.
func Connect(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetAppName("alpadrive"))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// Guard wraps every document-store round trip in a shared circuit
// breaker so a dying mongod sheds load fast instead of stacking up
// timed-out handlers.
type Guard struct {
	breaker *gobreaker.CircuitBreaker
}

func NewGuard(logger *slog.Logger) *Guard {
	return &Guard{
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "mongodb",
			Timeout: 15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("storage breaker state change", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// Do runs one store operation under the breaker.
func (g *Guard) Do(op func() (any, error)) (any, error) {
	return g.breaker.Execute(op)
}

var Module = fx.Module("mongodb",
	fx.Provide(
		func(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*mongo.Database, error) {
			client, err := Connect(context.Background(), cfg)
			if err != nil {
				return nil, err
			}
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					return client.Disconnect(ctx)
				},
			})
			logger.Info("document store connected", "database", cfg.Mongo.Database)
			return client.Database(cfg.Mongo.Database), nil
		},
		NewGuard,
	),
)
