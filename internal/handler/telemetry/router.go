// Package telemetry consumes the sample bus and drives the daily-log
// aggregation behind retry and poison protection.
package telemetry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/alpadrive/server/internal/adapter/pubsub"
	"github.com/alpadrive/server/internal/service"
)

const (
	TopicSampleV1 = pubsub.TopicSampleV1

	// SamplePoisonTopic collects samples that exhausted their retries.
	SamplePoisonTopic = "telemetry.sample.v1.poison"
)

type SampleHandler struct {
	folder     service.Folder
	logger     *slog.Logger
	dispatcher pubsub.SampleDispatcher
}

func NewSampleHandler(folder service.Folder, logger *slog.Logger, dispatcher pubsub.SampleDispatcher) *SampleHandler {
	return &SampleHandler{folder, logger, dispatcher}
}

func NewWatermillRouter(wlogger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, wlogger)
	if err != nil {
		return nil, fmt.Errorf("router setup: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)
	return router, nil
}

func (h *SampleHandler) RegisterHandlers(router *message.Router, sub message.Subscriber) error {
	poison, err := middleware.PoisonQueue(h.dispatcher.Publisher(), SamplePoisonTopic)
	if err != nil {
		return fmt.Errorf("poison setup: %w", err)
	}

	configs := []struct {
		name    string
		topic   string
		handler message.NoPublishHandlerFunc
	}{
		{"ON_SAMPLE", TopicSampleV1, Bind(h, h.OnSampleV1)},
	}

	for _, c := range configs {
		router.AddNoPublisherHandler(c.name, c.topic, sub, c.handler).AddMiddleware(
			TraceIDMiddleware,
			LoggingMiddleware(h.logger),
			NewRetryMiddleware().Middleware,
			poison,
			middleware.Timeout(time.Second*30),
		)
	}

	h.logger.Info("telemetry pipeline ready", "topic", TopicSampleV1)
	return nil
}
