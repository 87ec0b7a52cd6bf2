package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"boxoffice/internal/checkout"
	"boxoffice/internal/database"
	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/inventory"
	"boxoffice/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ checkout.Store        = (*Store)(nil)
	_ inventory.Source      = (*Store)(nil)
	_ inventory.PriceSource = (*Store)(nil)
)

func strPtr(s string) *string { return &s }

// newTestStore connects to TEST_DATABASE_URL and seeds one event with a
// zone of n tickets.
func newTestStore(t *testing.T, n int) (*Store, int64, []string) {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.Connect(database.Config{URL: url, MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetimeMin: 5, ConnMaxIdleTimeMin: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())

	s := NewStore(db)
	ctx := context.Background()

	venue := &models.Venue{Name: "Test Hall", Layout: []byte(`{"elements":[]}`)}
	require.NoError(t, s.CreateVenue(ctx, venue))
	event := &models.Event{VenueID: venue.ID, Title: "Test", StartsAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.CreateEvent(ctx, event))

	zoneID := fmt.Sprintf("zone-%d", venue.ID)
	require.NoError(t, s.UpsertZone(ctx, models.Zone{ID: zoneID, VenueID: venue.ID, CategoryID: strPtr("std"), Name: "Floor", Capacity: n,
		Shape: models.ShapeDescriptor{X: 10, Y: 20, Width: 100, Height: 50}}))
	require.NoError(t, s.UpsertCategoryPrice(ctx, models.CategoryPrice{EventID: event.ID, CategoryID: "std", Price: decimal.NewFromInt(25), Currency: "EUR"}))

	var tickets []models.Ticket
	var ids []string
	for i := 0; i < n; i++ {
		id := uuid.New().String()
		ids = append(ids, id)
		tickets = append(tickets, models.Ticket{ID: id, EventID: event.ID, ZoneID: strPtr(zoneID)})
	}
	require.NoError(t, s.CreateTickets(ctx, tickets))

	return s, event.ID, ids
}

func TestFetchInventoryJoinsZone(t *testing.T) {
	s, eventID, ids := newTestStore(t, 3)
	ctx := context.Background()

	units, err := s.FetchInventoryForEvent(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, units, len(ids))
	for _, u := range units {
		assert.Equal(t, models.UnitFree, u.Status)
		require.NotNil(t, u.Zone)
		assert.Equal(t, "std", u.CategoryID())
		assert.Equal(t, 10.0, u.Zone.Shape.X)
	}

	prices, err := inventory.LoadPrices(ctx, s, eventID)
	require.NoError(t, err)
	p, err := prices.Lookup("std")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(25).Equal(p.Price))
}

func TestTransitionUnitIsConditional(t *testing.T) {
	s, _, ids := newTestStore(t, 1)
	ctx := context.Background()

	ok, err := s.TransitionUnit(ctx, ids[0], models.UnitFree, models.UnitHeld, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.TransitionUnit(ctx, ids[0], models.UnitFree, models.UnitSold, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.TransitionUnit(ctx, "not-a-uuid", models.UnitFree, models.UnitSold, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestActiveLineIsUnique(t *testing.T) {
	s, eventID, ids := newTestStore(t, 1)
	ctx := context.Background()

	order := &models.Order{ID: uuid.New().String(), EventID: eventID, Status: models.OrderPending, TotalPrice: decimal.NewFromInt(25), Currency: "EUR", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, s.CreateOrder(ctx, order))

	first := &models.OrderLine{ID: uuid.New().String(), OrderID: order.ID, TicketID: ids[0], UnitPrice: decimal.NewFromInt(25), CreatedAt: time.Now()}
	require.NoError(t, s.CreateOrderLine(ctx, first))

	err := s.CreateOrderLine(ctx, &models.OrderLine{ID: uuid.New().String(), OrderID: order.ID, TicketID: ids[0], UnitPrice: decimal.NewFromInt(25), CreatedAt: time.Now()})
	assert.ErrorIs(t, err, apperrors.ErrUnitNoLongerAvailable)

	require.NoError(t, s.ReleaseOrderLine(ctx, first.ID, time.Now()))
	line, err := s.FindOrderLineByUnit(ctx, ids[0])
	require.NoError(t, err)
	assert.Nil(t, line)
}

func TestWithTxRollsBack(t *testing.T) {
	s, eventID, ids := newTestStore(t, 1)
	ctx := context.Background()

	err := s.WithTx(ctx, func(txCtx context.Context) error {
		ok, err := s.TransitionUnit(txCtx, ids[0], models.UnitFree, models.UnitSold, nil)
		require.NoError(t, err)
		require.True(t, ok)
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	units, err := s.FetchInventoryForEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitFree, units[0].Status)
}

func TestReleaseExpiredHolds(t *testing.T) {
	s, eventID, ids := newTestStore(t, 2)
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	require.NoError(t, s.UpdateUnitStatus(ctx, ids[0], models.UnitHeld, &past))
	require.NoError(t, s.UpdateUnitStatus(ctx, ids[1], models.UnitHeld, &future))

	_, err := s.ReleaseExpiredHolds(ctx, time.Now())
	require.NoError(t, err)

	units, err := s.FetchInventoryForEvent(ctx, eventID)
	require.NoError(t, err)
	status := map[string]models.UnitStatus{}
	for _, u := range units {
		status[u.ID] = u.Status
	}
	assert.Equal(t, models.UnitFree, status[ids[0]])
	assert.Equal(t, models.UnitHeld, status[ids[1]])
}

func TestConcurrentTransitionsHaveOneWinner(t *testing.T) {
	s, _, ids := newTestStore(t, 1)
	ctx := context.Background()

	const racers = 10
	var wg sync.WaitGroup
	wins := make(chan bool, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.TransitionUnit(ctx, ids[0], models.UnitFree, models.UnitSold, nil)
			assert.NoError(t, err)
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	n := 0
	for ok := range wins {
		if ok {
			n++
		}
	}
	assert.Equal(t, 1, n)
}
