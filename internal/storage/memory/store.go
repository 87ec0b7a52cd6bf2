// Package memory is an in-process backend. Transactions are serialised on a
// single mutex and roll back by restoring the state captured when they began.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"
)

type txKey struct{}

type state struct {
	tickets map[string]models.Ticket
	orders  map[string]models.Order
	lines   map[string]models.OrderLine
}

func (st state) clone() state {
	c := state{
		tickets: make(map[string]models.Ticket, len(st.tickets)),
		orders:  make(map[string]models.Order, len(st.orders)),
		lines:   make(map[string]models.OrderLine, len(st.lines)),
	}
	for k, v := range st.tickets {
		c.tickets[k] = v
	}
	for k, v := range st.orders {
		c.orders[k] = v
	}
	for k, v := range st.lines {
		c.lines[k] = v
	}
	return c
}

type Store struct {
	mu sync.Mutex

	venues map[int64]models.Venue
	events map[int64]models.Event
	zones  map[string]models.Zone
	seats  map[string]models.Seat
	prices map[int64]map[string]models.CategoryPrice

	st state
}

func New() *Store {
	return &Store{
		venues: map[int64]models.Venue{},
		events: map[int64]models.Event{},
		zones:  map[string]models.Zone{},
		seats:  map[string]models.Seat{},
		prices: map[int64]map[string]models.CategoryPrice{},
		st: state{
			tickets: map[string]models.Ticket{},
			orders:  map[string]models.Order{},
			lines:   map[string]models.OrderLine{},
		},
	}
}

// WithTx runs fn with exclusive access to the store. If fn fails every write
// it made is discarded. Nested calls join the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.st = saved
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the store mutex unless the caller already runs inside WithTx.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Seeding

func (s *Store) AddVenue(v models.Venue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.venues[v.ID] = v
}

func (s *Store) AddEvent(e models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
}

func (s *Store) AddZone(z models.Zone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones[z.ID] = z
}

func (s *Store) AddSeat(seat models.Seat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seats[seat.ID] = seat
}

func (s *Store) AddTicket(t models.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Status == "" {
		t.Status = models.UnitFree
	}
	s.st.tickets[t.ID] = t
}

func (s *Store) SetPrice(p models.CategoryPrice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prices[p.EventID] == nil {
		s.prices[p.EventID] = map[string]models.CategoryPrice{}
	}
	s.prices[p.EventID][p.CategoryID] = p
}

// Reads

func (s *Store) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	defer s.lock(ctx)()
	e, ok := s.events[eventID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *Store) GetVenueLayout(ctx context.Context, venueID int64) (*models.Venue, error) {
	defer s.lock(ctx)()
	v, ok := s.venues[venueID]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (s *Store) FetchZonesForVenue(ctx context.Context, venueID int64) ([]models.Zone, error) {
	defer s.lock(ctx)()
	var out []models.Zone
	for _, z := range s.zones {
		if z.VenueID == venueID {
			out = append(out, z)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) FetchInventoryForEvent(ctx context.Context, eventID int64) ([]models.Ticket, error) {
	defer s.lock(ctx)()
	var out []models.Ticket
	for _, t := range s.st.tickets {
		if t.EventID != eventID {
			continue
		}
		if t.SeatID != nil {
			if seat, ok := s.seats[*t.SeatID]; ok {
				t.Seat = &seat
			}
		}
		if t.ZoneID != nil {
			if z, ok := s.zones[*t.ZoneID]; ok {
				t.Zone = &z
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) FetchCategoryPrice(ctx context.Context, eventID int64, categoryID string) (*models.CategoryPrice, error) {
	defer s.lock(ctx)()
	p, ok := s.prices[eventID][categoryID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) FetchCategoryPrices(ctx context.Context, eventID int64) ([]models.CategoryPrice, error) {
	defer s.lock(ctx)()
	out := make([]models.CategoryPrice, 0, len(s.prices[eventID]))
	for _, p := range s.prices[eventID] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out, nil
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	defer s.lock(ctx)()
	o, ok := s.st.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (s *Store) ListOrders(ctx context.Context, limit, offset int) ([]models.Order, error) {
	defer s.lock(ctx)()
	out := make([]models.Order, 0, len(s.st.orders))
	for _, o := range s.st.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListOrderLines(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	defer s.lock(ctx)()
	var out []models.OrderLine
	for _, l := range s.st.lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketID < out[j].TicketID })
	return out, nil
}

func (s *Store) FindOrderLineByUnit(ctx context.Context, unitID string) (*models.OrderLine, error) {
	defer s.lock(ctx)()
	if l, ok := s.activeLine(unitID); ok {
		return &l, nil
	}
	return nil, nil
}

func (s *Store) activeLine(unitID string) (models.OrderLine, bool) {
	for _, l := range s.st.lines {
		if l.TicketID == unitID && l.ReleasedAt == nil {
			return l, true
		}
	}
	return models.OrderLine{}, false
}

// Writes

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	defer s.lock(ctx)()
	if _, ok := s.st.orders[order.ID]; ok {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	o := *order
	o.Lines = nil
	s.st.orders[o.ID] = o
	return nil
}

func (s *Store) SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	defer s.lock(ctx)()
	o, ok := s.st.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrOrderNotFound, orderID)
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	s.st.orders[orderID] = o
	return nil
}

// CreateOrderLine refuses a second active line for the same ticket.
func (s *Store) CreateOrderLine(ctx context.Context, line *models.OrderLine) error {
	defer s.lock(ctx)()
	if _, ok := s.st.orders[line.OrderID]; !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrOrderNotFound, line.OrderID)
	}
	if _, ok := s.st.tickets[line.TicketID]; !ok {
		return fmt.Errorf("ticket %s does not exist", line.TicketID)
	}
	if _, ok := s.activeLine(line.TicketID); ok {
		return fmt.Errorf("%w: %s", apperrors.ErrUnitNoLongerAvailable, line.TicketID)
	}
	s.st.lines[line.ID] = *line
	return nil
}

func (s *Store) ReleaseOrderLine(ctx context.Context, lineID string, at time.Time) error {
	defer s.lock(ctx)()
	l, ok := s.st.lines[lineID]
	if !ok {
		return fmt.Errorf("order line %s not found", lineID)
	}
	l.ReleasedAt = &at
	s.st.lines[lineID] = l
	return nil
}

func (s *Store) UpdateUnitStatus(ctx context.Context, unitID string, status models.UnitStatus, holdExpiry *time.Time) error {
	defer s.lock(ctx)()
	t, ok := s.st.tickets[unitID]
	if !ok {
		return fmt.Errorf("ticket %s not found", unitID)
	}
	t.Status = status
	t.HoldExpiry = holdExpiry
	if status == models.UnitFree {
		t.OrderLineID = nil
	}
	s.st.tickets[unitID] = t
	return nil
}

func (s *Store) TransitionUnit(ctx context.Context, unitID string, from, to models.UnitStatus, orderLineID *string) (bool, error) {
	defer s.lock(ctx)()
	t, ok := s.st.tickets[unitID]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	t.HoldExpiry = nil
	t.OrderLineID = orderLineID
	s.st.tickets[unitID] = t
	return true, nil
}

func (s *Store) ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	defer s.lock(ctx)()
	var released int64
	for id, t := range s.st.tickets {
		if t.Status != models.UnitHeld || t.HoldExpiry == nil || t.HoldExpiry.After(now) {
			continue
		}
		t.Status = models.UnitFree
		t.HoldExpiry = nil
		s.st.tickets[id] = t
		released++
	}
	return released, nil
}

// ResetEventInventory frees every ticket of an event, releases its lines and
// marks its open orders refunded.
func (s *Store) ResetEventInventory(ctx context.Context, eventID int64) (int64, error) {
	defer s.lock(ctx)()
	now := time.Now()

	var reset int64
	for id, t := range s.st.tickets {
		if t.EventID != eventID {
			continue
		}
		if t.Status != models.UnitFree {
			reset++
		}
		t.Status = models.UnitFree
		t.HoldExpiry = nil
		t.OrderLineID = nil
		s.st.tickets[id] = t
	}

	for id, o := range s.st.orders {
		if o.EventID != eventID {
			continue
		}
		for lid, l := range s.st.lines {
			if l.OrderID == id && l.ReleasedAt == nil {
				l.ReleasedAt = &now
				s.st.lines[lid] = l
			}
		}
		if o.Status != models.OrderRefunded {
			o.Status = models.OrderRefunded
			o.UpdatedAt = now
			s.st.orders[id] = o
		}
	}

	return reset, nil
}
