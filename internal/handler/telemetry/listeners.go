package telemetry

import (
	"context"
	"fmt"

	"github.com/alpadrive/server/internal/adapter/pubsub"
)

// OnSampleV1 folds one raw sample into the vehicle's daily log.
func (h *SampleHandler) OnSampleV1(ctx context.Context, raw *pubsub.SampleEnvelope) error {
	if raw.VID == "" {
		h.logger.Warn("sample without vehicle id dropped")
		return nil
	}
	if err := h.folder.Fold(ctx, raw.VID, raw.Sample); err != nil {
		return fmt.Errorf("fold sample for %s: %w", raw.VID, err)
	}
	return nil
}
