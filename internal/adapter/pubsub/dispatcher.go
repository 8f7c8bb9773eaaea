// Package pubsub carries telemetry samples from the websocket layer to
// the aggregation pipeline over the in-process message bus.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/alpadrive/server/internal/domain/model"
)

// TopicSampleV1 is the routing key for raw vehicle samples.
const TopicSampleV1 = "telemetry.sample.v1"

// SampleEnvelope is the wire form of one published sample.
type SampleEnvelope struct {
	VID    string       `json:"vid"`
	Sample model.Sample `json:"sample"`
}

// SampleDispatcher is the outgoing contract for telemetry. The handler
// stays agnostic of the bus implementation behind it.
type SampleDispatcher interface {
	Dispatch(ctx context.Context, vid string, sample model.Sample) error
	Publisher() message.Publisher
}

type sampleDispatcher struct {
	publisher message.Publisher
}

func NewSampleDispatcher(pub message.Publisher) SampleDispatcher {
	return &sampleDispatcher{publisher: pub}
}

func (d *sampleDispatcher) Dispatch(ctx context.Context, vid string, sample model.Sample) error {
	payload, err := json.Marshal(SampleEnvelope{VID: vid, Sample: sample})
	if err != nil {
		return fmt.Errorf("sample dispatcher: marshal failure: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("vid", vid)

	if err := d.publisher.Publish(TopicSampleV1, msg); err != nil {
		return fmt.Errorf("sample dispatcher: publish to %s: %w", TopicSampleV1, err)
	}
	return nil
}

func (d *sampleDispatcher) Publisher() message.Publisher {
	return d.publisher
}
