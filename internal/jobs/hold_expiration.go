// Package jobs holds the background jobs of the storefront.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"boxoffice/internal/messaging"
	"boxoffice/internal/metrics"
	"boxoffice/internal/models"
)

// HoldReleaser frees held tickets whose hold has run out
type HoldReleaser interface {
	ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error)
}

// HoldExpirationJob returns expired holds to the free pool
type HoldExpirationJob struct {
	store     HoldReleaser
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	interval  time.Duration
	now       func() time.Time

	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewHoldExpirationJob creates the job. publisher may be nil.
func NewHoldExpirationJob(store HoldReleaser, publisher messaging.Publisher, m *metrics.Metrics, interval time.Duration) *HoldExpirationJob {
	return &HoldExpirationJob{
		store:     store,
		publisher: publisher,
		metrics:   m,
		interval:  interval,
		now:       time.Now,
		done:      make(chan struct{}),
	}
}

// Start checks for expired holds right away and then on every tick
func (j *HoldExpirationJob) Start(ctx context.Context) {
	if j.interval <= 0 {
		slog.Warn("Hold expiration job disabled", "check_interval", j.interval.String())
		return
	}

	slog.Info("Starting hold expiration job", "check_interval", j.interval.String())

	j.ticker = time.NewTicker(j.interval)

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.ReleaseExpired(ctx)
		for {
			select {
			case <-j.ticker.C:
				j.ReleaseExpired(ctx)
			case <-ctx.Done():
				slog.Info("Hold expiration job stopped")
				return
			case <-j.done:
				slog.Info("Hold expiration job stopped")
				return
			}
		}
	}()
}

// Stop stops the job and waits for a running check to finish
func (j *HoldExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
	j.wg.Wait()
}

// ReleaseExpired runs one pass and returns the number of released tickets
func (j *HoldExpirationJob) ReleaseExpired(ctx context.Context) int64 {
	now := j.now()

	released, err := j.store.ReleaseExpiredHolds(ctx, now)
	if err != nil {
		slog.Error("Failed to release expired holds", "error", err)
		return 0
	}

	if released == 0 {
		slog.Debug("No expired holds found")
		return 0
	}

	if j.metrics != nil {
		j.metrics.HoldsReleased.Add(float64(released))
	}

	if j.publisher != nil {
		event := models.HoldsExpiredEvent{Released: released, Timestamp: now}
		if err := j.publisher.Publish(models.EventHoldsExpired, event); err != nil {
			slog.Error("Failed to publish holds expired event", "error", err, "released", released)
		}
	}

	slog.Info("Released expired holds", "released", released)
	return released
}
