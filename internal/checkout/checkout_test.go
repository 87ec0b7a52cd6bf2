package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"boxoffice/internal/capacity"
	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/inventory"
	"boxoffice/internal/layout"
	"boxoffice/internal/models"
	"boxoffice/internal/resolver"
	"boxoffice/internal/selection"
	"boxoffice/internal/storage/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contact = models.Contact{Name: "Ada", Email: "ada@example.com", Phone: "+100"}

func newStore() *memory.Store {
	s := memory.New()
	memory.SeedDemo(s)
	return s
}

func catalogFor(t *testing.T, s *memory.Store) selection.Catalog {
	t.Helper()
	ctx := context.Background()

	venue, err := s.GetVenueLayout(ctx, memory.DemoVenueID)
	require.NoError(t, err)
	l := layout.Parse(venue.Layout)

	zones, err := s.FetchZonesForVenue(ctx, memory.DemoVenueID)
	require.NoError(t, err)
	snap := inventory.Load(ctx, s, memory.DemoEventID)
	prices, err := inventory.LoadPrices(ctx, s, memory.DemoEventID)
	require.NoError(t, err)

	return selection.Catalog{
		Layout: l,
		Inventory: capacity.Inputs{
			Zones:    resolver.ResolveZones(l.Shapes(), zones, resolver.DefaultTolerance),
			Seats:    resolver.BindSeats(l, snap, resolver.DefaultTolerance),
			Snapshot: snap,
		},
		Prices: prices,
	}
}

func soldCount(t *testing.T, s *memory.Store) int {
	t.Helper()
	units, err := s.FetchInventoryForEvent(context.Background(), memory.DemoEventID)
	require.NoError(t, err)
	n := 0
	for _, u := range units {
		if u.Status == models.UnitSold {
			n++
		}
	}
	return n
}

func TestCheckout(t *testing.T) {
	s := newStore()
	cat := catalogFor(t, s)

	sel, err := selection.Empty().SelectZoneQuantity(cat, "floor", 2)
	require.NoError(t, err)
	sel, err = sel.ToggleSeat(cat, "vip-A1")
	require.NoError(t, err)

	order, err := NewAllocator(s).Checkout(context.Background(), memory.DemoEventID, sel, contact)
	require.NoError(t, err)

	assert.Equal(t, models.OrderPaid, order.Status)
	assert.Equal(t, "USD", order.Currency)
	assert.True(t, decimal.RequireFromString("200.50").Equal(order.TotalPrice))
	assert.Len(t, order.Lines, 3)
	assert.Equal(t, 3, soldCount(t, s))

	for _, id := range sel.UnitIDs() {
		line, err := s.FindOrderLineByUnit(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, line)
		assert.Equal(t, order.ID, line.OrderID)
	}
}

func TestCheckoutRejectsBadSelections(t *testing.T) {
	s := newStore()
	a := NewAllocator(s)

	_, err := a.Checkout(context.Background(), memory.DemoEventID, selection.Empty(), contact)
	assert.ErrorIs(t, err, apperrors.ErrEmptySelection)
}

func TestCheckoutConflictLeavesNoPartialState(t *testing.T) {
	s := newStore()
	cat := catalogFor(t, s)

	sel, err := selection.Empty().SelectZoneQuantity(cat, "floor", 3)
	require.NoError(t, err)

	// Another shopper buys the last of the three first.
	taken := sel.UnitIDs()[2]
	ok, err := s.TransitionUnit(context.Background(), taken, models.UnitFree, models.UnitSold, nil)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = NewAllocator(s).Checkout(context.Background(), memory.DemoEventID, sel, contact)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnitNoLongerAvailable)
	assert.Contains(t, err.Error(), taken)

	assert.Equal(t, 1, soldCount(t, s))
	orders, err := s.ListOrders(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
	for _, id := range sel.UnitIDs() {
		line, _ := s.FindOrderLineByUnit(context.Background(), id)
		assert.Nil(t, line)
	}
}

type brokenLineStore struct {
	*memory.Store
}

func (b brokenLineStore) FindOrderLineByUnit(ctx context.Context, unitID string) (*models.OrderLine, error) {
	return nil, errors.New("driver: bad connection")
}

func TestCheckoutBackendFailureIsNotAConflict(t *testing.T) {
	s := newStore()
	cat := catalogFor(t, s)

	sel, err := selection.Empty().SelectZoneQuantity(cat, "floor", 1)
	require.NoError(t, err)

	_, err = NewAllocator(brokenLineStore{s}).Checkout(context.Background(), memory.DemoEventID, sel, contact)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrUnitNoLongerAvailable)
	assert.ErrorContains(t, err, "bad connection")

	assert.Equal(t, 0, soldCount(t, s))
	orders, err := s.ListOrders(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestConcurrentShoppersNeverDoubleSell(t *testing.T) {
	s := newStore()
	a := NewAllocator(s)

	const shoppers = 8
	var wg sync.WaitGroup
	results := make([]error, shoppers)

	for i := 0; i < shoppers; i++ {
		// Every shopper loaded the same snapshot and picked the same seat.
		sel, err := selection.Empty().ToggleSeat(catalogFor(t, s), "vip-B3")
		require.NoError(t, err)

		wg.Add(1)
		go func(i int, sel selection.Model) {
			defer wg.Done()
			_, results[i] = a.Checkout(context.Background(), memory.DemoEventID, sel, contact)
		}(i, sel)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrUnitNoLongerAvailable)
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, soldCount(t, s))
}

func TestRefund(t *testing.T) {
	s := newStore()
	cat := catalogFor(t, s)
	a := NewAllocator(s)
	ctx := context.Background()

	sel, err := selection.Empty().SelectZoneQuantity(cat, "balcony", 4)
	require.NoError(t, err)
	order, err := a.Checkout(ctx, memory.DemoEventID, sel, contact)
	require.NoError(t, err)
	require.Equal(t, 4, soldCount(t, s))

	refunded, err := a.Refund(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderRefunded, refunded.Status)
	for _, l := range refunded.Lines {
		assert.NotNil(t, l.ReleasedAt)
	}
	assert.Equal(t, 0, soldCount(t, s))

	_, err = a.Refund(ctx, order.ID)
	assert.ErrorIs(t, err, apperrors.ErrOrderNotRefundable)

	_, err = a.Refund(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)

	// Released tickets can be sold again.
	again, err := selection.Empty().SelectZoneQuantity(catalogFor(t, s), "balcony", 20)
	require.NoError(t, err)
	_, err = a.Checkout(ctx, memory.DemoEventID, again, contact)
	assert.NoError(t, err)
}
