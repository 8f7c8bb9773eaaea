package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpadrive/server/internal/domain/model"
)

// Folder receives telemetry samples off the ingest pipeline.
type Folder interface {
	Fold(ctx context.Context, vid string, sample model.Sample) error
}

// LogQuerier answers the daily / periodic / overall rollup queries.
type LogQuerier interface {
	Daily(ctx context.Context, vid, date string) (*model.DailyLog, error)
	Periodic(ctx context.Context, vid, start, end string) (*model.Rollup, error)
	Overall(ctx context.Context, vid string) (*model.Rollup, error)
}

// Aggregator folds samples into per-(vehicle, day) summaries. All
// running figures use integer arithmetic; changing that is a versioned
// wire change, not a cleanup.
type Aggregator struct {
	logs   LogStore
	logger *slog.Logger

	// Folds for the same vehicle are read-modify-write cycles against
	// one document, so they are serialized per vehicle. Distinct
	// vehicles stay independent.
	locks keyedMutex

	isoDates bool
	now      func() time.Time
}

var (
	_ Folder     = (*Aggregator)(nil)
	_ LogQuerier = (*Aggregator)(nil)
)

func NewAggregator(logs LogStore, isoDates bool, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		logs:     logs,
		logger:   logger,
		isoDates: isoDates,
		now:      time.Now,
	}
}

func (a *Aggregator) Fold(ctx context.Context, vid string, sample model.Sample) error {
	mu := a.locks.lock(vid)
	defer mu.Unlock()

	at := a.now()
	today := DayStamp(at, a.isoDates)

	current, err := a.logs.Latest(ctx, vid)
	switch {
	case errors.Is(err, ErrNotFound) || (err == nil && current.Date != today):
		fresh := newDay(sample, at, today)
		if err := a.logs.Insert(ctx, vid, fresh); err != nil {
			return fmt.Errorf("aggregator insert %s: %w", vid, err)
		}
		a.logger.Debug("daily log opened", "vid", vid, "date", today)
		return nil
	case err != nil:
		return fmt.Errorf("aggregator base lookup %s: %w", vid, err)
	}

	foldInto(current, sample, at)
	if err := a.logs.Update(ctx, vid, current); err != nil {
		return fmt.Errorf("aggregator update %s: %w", vid, err)
	}
	return nil
}

// newDay opens the first document of a calendar day. The counter
// starts at 1 so the next sample's running-mean divisor is 2.
func newDay(s model.Sample, at time.Time, date string) *model.DailyLog {
	var speed int64
	if s.Speed != nil {
		speed = *s.Speed
	}
	return &model.DailyLog{
		Date:         date,
		AverageSpeed: speed,
		Distance:     0,
		Stress:       0,
		LastOdometer: s.Odo,
		MessageCount: 1,
		MaxSpeed:     model.MaxSpeed{Value: speed, HitAt: ClockIST(at)},
	}
}

// foldInto applies one sample to the working document. Order matters:
// odometer, then speed, then stress, with the shared counter advancing
// between the two recurrences.
func foldInto(doc *model.DailyLog, s model.Sample, at time.Time) {
	if s.Odo > 0 {
		doc.Distance += s.Odo - doc.LastOdometer
	}

	count := doc.MessageCount
	if s.Speed != nil {
		speed := *s.Speed
		if speed > doc.MaxSpeed.Value {
			doc.MaxSpeed = model.MaxSpeed{Value: speed, HitAt: ClockIST(at)}
		}
		if doc.AverageSpeed > 0 {
			doc.AverageSpeed = (doc.AverageSpeed*count + speed) / (count + 1)
		} else {
			doc.AverageSpeed = speed
		}
		count++
	}

	if s.Stressed {
		doc.Stress = (doc.Stress*(count-1) + 1) / count
		count++
	}

	doc.MessageCount = count
	// An absent odometer must not reset the baseline, or the next
	// odo-bearing sample would double-count the whole reading.
	if s.Odo > 0 {
		doc.LastOdometer = s.Odo
	}
}

func (a *Aggregator) Daily(ctx context.Context, vid, date string) (*model.DailyLog, error) {
	doc, err := a.logs.ByDate(ctx, vid, date)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoLogs
	}
	if err != nil {
		return nil, fmt.Errorf("daily logs %s: %w", vid, err)
	}
	return doc, nil
}

func (a *Aggregator) Periodic(ctx context.Context, vid, start, end string) (*model.Rollup, error) {
	docs, err := a.logs.Range(ctx, vid, start, end)
	if err != nil {
		return nil, fmt.Errorf("periodic logs %s: %w", vid, err)
	}
	return reduce(docs)
}

func (a *Aggregator) Overall(ctx context.Context, vid string) (*model.Rollup, error) {
	docs, err := a.logs.All(ctx, vid)
	if err != nil {
		return nil, fmt.Errorf("overall logs %s: %w", vid, err)
	}
	return reduce(docs)
}

// degradation maps a day's stress figure onto a wear estimate.
func degradation(stress int64) float64 {
	return float64(stress) / 1000 * 0.01
}

func reduce(docs []model.DailyLog) (*model.Rollup, error) {
	if len(docs) == 0 {
		return nil, ErrNoLogs
	}

	rollup := &model.Rollup{Days: int64(len(docs))}
	var speedSum int64
	var wear float64
	for _, doc := range docs {
		rollup.Distance += doc.Distance
		rollup.StressCount += doc.Stress
		speedSum += doc.AverageSpeed
		if doc.MaxSpeed.Value > rollup.MaxSpeed.Value {
			rollup.MaxSpeed = doc.MaxSpeed
		}
		rollup.LastOdometer = doc.LastOdometer
		wear += degradation(doc.Stress)
	}
	rollup.AverageSpeed = speedSum / int64(len(docs))
	rollup.Degradation = wear / float64(len(docs))
	return rollup, nil
}
