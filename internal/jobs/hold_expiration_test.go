package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"boxoffice/internal/metrics"
	"boxoffice/internal/models"
	"boxoffice/internal/storage/memory"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	subjects []string
	events   []interface{}
}

func (p *recordingPublisher) Publish(subject string, data interface{}) error {
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, data)
	return nil
}

type failingStore struct{}

func (failingStore) ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestReleaseExpired(t *testing.T) {
	store := memory.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	store.AddTicket(models.Ticket{ID: "a", EventID: 1, Status: models.UnitHeld, HoldExpiry: &past})
	store.AddTicket(models.Ticket{ID: "b", EventID: 1, Status: models.UnitHeld, HoldExpiry: &past})

	pub := &recordingPublisher{}
	m := metrics.New()
	job := NewHoldExpirationJob(store, pub, m, time.Minute)
	job.now = func() time.Time { return now }

	assert.Equal(t, int64(2), job.ReleaseExpired(context.Background()))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HoldsReleased))
	require.Equal(t, []string{models.EventHoldsExpired}, pub.subjects)
	assert.Equal(t, models.HoldsExpiredEvent{Released: 2, Timestamp: now}, pub.events[0])

	assert.Equal(t, int64(0), job.ReleaseExpired(context.Background()))
	assert.Len(t, pub.subjects, 1, "nothing published for an empty pass")
}

func TestReleaseExpiredStoreError(t *testing.T) {
	job := NewHoldExpirationJob(failingStore{}, nil, nil, time.Minute)
	assert.Equal(t, int64(0), job.ReleaseExpired(context.Background()))
}

func TestStartAndStop(t *testing.T) {
	store := memory.New()
	past := time.Now().Add(-time.Minute)
	store.AddTicket(models.Ticket{ID: "a", EventID: 1, Status: models.UnitHeld, HoldExpiry: &past})

	job := NewHoldExpirationJob(store, nil, nil, time.Hour)
	job.Start(context.Background())

	assert.Eventually(t, func() bool {
		units, _ := store.FetchInventoryForEvent(context.Background(), 1)
		return len(units) == 1 && units[0].Status == models.UnitFree
	}, time.Second, 10*time.Millisecond)

	job.Stop()
}
