package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"boxoffice/internal/models"
	"boxoffice/internal/search"
	"boxoffice/internal/storage/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	docs     map[string]search.OrderDocument
	statuses map[string]models.OrderStatus
	err      error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		docs:     make(map[string]search.OrderDocument),
		statuses: make(map[string]models.OrderStatus),
	}
}

func (f *fakeIndex) IndexOrder(ctx context.Context, doc search.OrderDocument) error {
	if f.err != nil {
		return f.err
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeIndex) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.statuses[orderID] = status
	return nil
}

func seedOrder(t *testing.T, store *memory.Store) *models.Order {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	order := &models.Order{
		ID:         "0b7d1d52-4c55-4a0e-9a57-5d7f1f3b8c11",
		EventID:    memory.DemoEventID,
		Status:     models.OrderPaid,
		TotalPrice: decimal.RequireFromString("90"),
		Currency:   "USD",
		Contact:    models.Contact{Name: "Ada", Email: "ada@example.com"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, store.CreateOrder(ctx, order))
	require.NoError(t, store.CreateOrderLine(ctx, &models.OrderLine{
		ID:        "line-1",
		OrderID:   order.ID,
		TicketID:  "t-vip-B1",
		UnitPrice: decimal.RequireFromString("90"),
		CreatedAt: now,
	}))
	return order
}

func payload(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestOrderCompletedIndexesOrder(t *testing.T) {
	store := memory.New()
	memory.SeedDemo(store)
	order := seedOrder(t, store)
	index := newFakeIndex()
	h := NewHandlers(store, index)

	err := h.orderCompleted(context.Background(), payload(t, models.OrderCompletedEvent{OrderID: order.ID}))
	require.NoError(t, err)

	doc, ok := index.docs[order.ID]
	require.True(t, ok)
	assert.Equal(t, "paid", doc.Status)
	assert.Equal(t, "90.00", doc.TotalPrice)
	assert.Equal(t, []string{"t-vip-B1"}, doc.TicketIDs)
	assert.Equal(t, "ada@example.com", doc.CustomerEmail)
}

func TestOrderCompletedSkipsMissingAndMalformed(t *testing.T) {
	store := memory.New()
	index := newFakeIndex()
	h := NewHandlers(store, index)

	assert.NoError(t, h.orderCompleted(context.Background(), payload(t, models.OrderCompletedEvent{OrderID: "missing"})))
	assert.NoError(t, h.orderCompleted(context.Background(), []byte("{not json")))
	assert.Empty(t, index.docs)
}

func TestIndexFailureIsReturned(t *testing.T) {
	store := memory.New()
	memory.SeedDemo(store)
	order := seedOrder(t, store)
	index := newFakeIndex()
	index.err = errors.New("cluster red")
	h := NewHandlers(store, index)

	err := h.orderCompleted(context.Background(), payload(t, models.OrderCompletedEvent{OrderID: order.ID}))
	assert.ErrorContains(t, err, "cluster red")

	err = h.orderRefunded(context.Background(), payload(t, models.OrderRefundedEvent{OrderID: order.ID}))
	assert.Error(t, err)
}

func TestOrderRefundedUpdatesStatus(t *testing.T) {
	index := newFakeIndex()
	h := NewHandlers(memory.New(), index)

	err := h.orderRefunded(context.Background(), payload(t, models.OrderRefundedEvent{
		OrderID:   "o-1",
		TicketIDs: []string{"t-1"},
		Timestamp: time.Now(),
	}))
	require.NoError(t, err)
	assert.Equal(t, models.OrderRefunded, index.statuses["o-1"])
}

func TestLogOnlyEvents(t *testing.T) {
	h := NewHandlers(memory.New(), newFakeIndex())

	assert.NoError(t, h.checkoutConflict(payload(t, models.CheckoutConflictEvent{EventID: 1, SessionID: "s"})))
	assert.NoError(t, h.holdsExpired(payload(t, models.HoldsExpiredEvent{Released: 3})))
	assert.NoError(t, h.holdsExpired([]byte("nope")))
}
