// Package tracking records engagement events without ever blocking the user
// action that triggered them. Every failure is logged and swallowed: the
// recording call races with the user leaving the page, and analytics must
// never delay navigation.
package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sponsorgrid/internal/analytics"
	"sponsorgrid/internal/models"
	"sponsorgrid/internal/observability"
)

// CounterStore is the write side of the campaign store the tracker needs:
// atomic in-place counter increments and the transactional click append.
type CounterStore interface {
	IncrementImpressions(ctx context.Context, campaignID int) error
	RecordClick(ctx context.Context, campaignID int, eventID string, occurredAt time.Time) error
}

// DailyCounter keeps the rolling per-day counters used by the stats
// endpoints. Optional.
type DailyCounter interface {
	IncrementDailyEvent(campaignID int, eventType string) error
}

// Tracker is the fire-and-forget engagement sink. Record returns before any
// write happens; each event runs in its own goroutine under a bounded
// context.
type Tracker struct {
	store     CounterStore
	daily     DailyCounter
	analytics analytics.Service
	logger    *zap.Logger
	metrics   observability.MetricsRegistry
	timeout   time.Duration

	wg sync.WaitGroup
}

// New constructs a Tracker. daily and sink may be nil.
func New(store CounterStore, daily DailyCounter, sink analytics.Service, logger *zap.Logger, metrics observability.MetricsRegistry, timeout time.Duration) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Tracker{
		store:     store,
		daily:     daily,
		analytics: sink,
		logger:    logger,
		metrics:   metrics,
		timeout:   timeout,
	}
}

// Record registers an engagement event for a campaign and returns
// immediately. Unknown event types are dropped with a warning; no error is
// ever surfaced to the caller.
func (t *Tracker) Record(campaignID int, eventType, slot string) {
	if eventType != models.EventImpression && eventType != models.EventClick {
		t.logger.Warn("dropping unknown event type",
			zap.String("event_type", eventType),
			zap.Int("campaign_id", campaignID))
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		t.record(ctx, campaignID, eventType, slot)
	}()
}

func (t *Tracker) record(ctx context.Context, campaignID int, eventType, slot string) {
	requestID := uuid.NewString()

	var err error
	switch eventType {
	case models.EventClick:
		err = t.store.RecordClick(ctx, campaignID, requestID, time.Now().UTC())
	case models.EventImpression:
		// Impressions are counter-only; no event row.
		err = t.store.IncrementImpressions(ctx, campaignID)
	}
	if err != nil {
		t.metrics.IncrementTrackingFailures(eventType)
		t.logger.Error("tracking write failed",
			zap.String("event_type", eventType),
			zap.Int("campaign_id", campaignID),
			zap.Error(err))
		return
	}

	if t.daily != nil {
		if err := t.daily.IncrementDailyEvent(campaignID, eventType); err != nil {
			t.logger.Warn("daily counter increment failed",
				zap.String("event_type", eventType),
				zap.Int("campaign_id", campaignID),
				zap.Error(err))
		}
	}

	if t.analytics != nil {
		if err := t.analytics.RecordEvent(ctx, eventType, campaignID, requestID, slot); err != nil {
			t.metrics.IncrementTrackingFailures(eventType)
			t.logger.Warn("analytics record failed",
				zap.String("event_type", eventType),
				zap.Int("campaign_id", campaignID),
				zap.Error(err))
		}
	}

	if observability.ShouldSample(observability.GetSamplingRate()) {
		t.logger.Info("event recorded",
			zap.String("event_type", eventType),
			zap.Int("campaign_id", campaignID),
			zap.String("request_id", requestID))
	}
	t.metrics.IncrementEvent(eventType)
}

// Drain waits for in-flight events to finish, up to ctx. Used at shutdown so
// accepted events are not lost with the process.
func (t *Tracker) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
