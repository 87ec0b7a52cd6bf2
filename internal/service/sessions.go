package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"boxoffice/internal/capacity"
	"boxoffice/internal/checkout"
	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/inventory"
	"boxoffice/internal/layout"
	"boxoffice/internal/logger"
	"boxoffice/internal/messaging"
	"boxoffice/internal/metrics"
	"boxoffice/internal/models"
	"boxoffice/internal/render"
	"boxoffice/internal/resolver"
	"boxoffice/internal/selection"
	"boxoffice/internal/viewport"

	"github.com/google/uuid"
)

// Session is one shopper working on one event. Everything in it is private
// to the shopper; the only shared state is the backend.
type Session struct {
	ID      string
	EventID int64

	mu       sync.Mutex
	event    *models.Event
	venue    *Venue
	snapshot *inventory.Snapshot
	prices   inventory.PriceTable
	seats    resolver.SeatBindings
	sel      selection.Model
	vp       *viewport.Controller
	gestures *viewport.GestureTracker
	lastSeen time.Time
}

func (sess *Session) inputs() capacity.Inputs {
	return capacity.Inputs{
		Zones:    sess.venue.Resolution,
		Seats:    sess.seats,
		Snapshot: sess.snapshot,
	}
}

func (sess *Session) catalog() selection.Catalog {
	return selection.Catalog{
		Layout:    sess.venue.Layout,
		Inventory: sess.inputs(),
		Prices:    sess.prices,
	}
}

type SessionService struct {
	backend   Backend
	venues    *VenueService
	allocator *checkout.Allocator
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	renderer  *render.Renderer

	ttl       time.Duration
	tolerance float64
	canvasW   float64
	canvasH   float64

	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewSessionService(backend Backend, venues *VenueService, allocator *checkout.Allocator, publisher messaging.Publisher, m *metrics.Metrics, opts Options) *SessionService {
	tolerance := opts.ResolverTolerance
	if tolerance <= 0 {
		tolerance = resolver.DefaultTolerance
	}
	return &SessionService{
		backend:   backend,
		venues:    venues,
		allocator: allocator,
		publisher: publisher,
		metrics:   m,
		renderer:  render.NewRenderer(),
		ttl:       opts.SessionTTL,
		tolerance: tolerance,
		canvasW:   opts.DefaultCanvasWidth,
		canvasH:   opts.DefaultCanvasHeight,
		sessions:  map[string]*Session{},
		now:       time.Now,
	}
}

// Open starts a session on an event: loads the venue, the inventory snapshot
// and the prices, and fits the layout into the canvas.
func (s *SessionService) Open(ctx context.Context, eventID int64, width, height float64) (*SessionView, error) {
	if width <= 0 || height <= 0 {
		width, height = s.canvasW, s.canvasH
	}
	return s.open(ctx, eventID, viewport.New(width, height), true)
}

// Resume starts a session with a viewport the client saved earlier instead of
// fitting the layout. The saved scale is clamped.
func (s *SessionService) Resume(ctx context.Context, eventID int64, saved viewport.State) (*SessionView, error) {
	if saved.CanvasWidth <= 0 || saved.CanvasHeight <= 0 {
		saved.CanvasWidth, saved.CanvasHeight = s.canvasW, s.canvasH
	}
	return s.open(ctx, eventID, viewport.Restore(saved), false)
}

func (s *SessionService) open(ctx context.Context, eventID int64, vp *viewport.Controller, fit bool) (*SessionView, error) {
	event, err := s.backend.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: %d", apperrors.ErrEventNotFound, eventID)
	}

	venue, err := s.venues.Load(ctx, event.VenueID)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:       uuid.New().String(),
		EventID:  eventID,
		event:    event,
		venue:    venue,
		sel:      selection.Empty(),
		vp:       vp,
		lastSeen: s.now(),
	}
	sess.gestures = viewport.NewGestureTracker(sess.vp)
	if fit {
		sess.vp.FitToView(venue.Layout.Bounds())
	}
	s.load(ctx, sess)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	s.metrics.ActiveSessions.Set(float64(n))

	logger.WithContext(ctx).Info("Session opened",
		"session_id", sess.ID,
		"event_id", eventID,
		"units", sess.snapshot.Len())

	return sess.view(), nil
}

// load fetches the snapshot and the price table and rebinds seat shapes.
// Both fetches degrade to empty on failure.
func (s *SessionService) load(ctx context.Context, sess *Session) {
	snap := inventory.Load(ctx, s.backend, sess.EventID)
	if snap.Degraded() {
		s.metrics.SnapshotFetches.WithLabelValues("error").Inc()
	} else {
		s.metrics.SnapshotFetches.WithLabelValues("ok").Inc()
	}

	prices, err := inventory.LoadPrices(ctx, s.backend, sess.EventID)
	if err != nil {
		logger.WithContext(ctx).Warn("Failed to load prices, using empty price table",
			"event_id", sess.EventID,
			"error", err)
		prices = inventory.PriceTable{}
	}

	sess.snapshot = snap
	sess.prices = prices
	sess.seats = resolver.BindSeats(sess.venue.Layout, snap, s.tolerance)
}

func (s *SessionService) get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSessionNotFound, id)
	}
	return sess, nil
}

// with runs fn holding the session's lock, so one shopper's changes are
// strictly ordered.
func (s *SessionService) with(id string, fn func(sess *Session) error) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.lastSeen = s.now()
	return fn(sess)
}

func (s *SessionService) viewWith(id string, fn func(sess *Session) error) (*SessionView, error) {
	var view *SessionView
	err := s.with(id, func(sess *Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		view = sess.view()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// View returns the current seat map of a session.
func (s *SessionService) View(ctx context.Context, id string) (*SessionView, error) {
	return s.viewWith(id, func(*Session) error { return nil })
}

// Close discards a session. Selection never holds tickets, so nothing has
// to be released in the backend.
func (s *SessionService) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrSessionNotFound, id)
	}
	s.metrics.ActiveSessions.Set(float64(n))
	logger.WithContext(ctx).Info("Session closed")
	return nil
}

// Refresh re-fetches the snapshot. Cart entries whose tickets are no longer
// free are dropped.
func (s *SessionService) Refresh(ctx context.Context, id string) (*SessionView, error) {
	dropped := 0
	view, err := s.viewWith(id, func(sess *Session) error {
		s.load(ctx, sess)
		sess.sel, dropped = pruneStale(sess.sel, sess.snapshot)
		return nil
	})
	if err != nil {
		return nil, err
	}
	view.Dropped = dropped
	return view, nil
}

func pruneStale(sel selection.Model, snap *inventory.Snapshot) (selection.Model, int) {
	// A degraded snapshot knows nothing; keep the cart for the next refresh.
	if snap.Degraded() {
		return sel, 0
	}

	dropped := 0
	for _, e := range sel.Entries() {
		for _, id := range e.UnitIDs {
			if !snap.IsFree(id) {
				sel, _ = sel.RemoveEntry(e.LocalID)
				dropped++
				break
			}
		}
	}
	return sel, dropped
}

// ToggleSeat adds or removes a seat from the cart.
func (s *SessionService) ToggleSeat(ctx context.Context, id, shapeID string) (*SessionView, error) {
	return s.viewWith(id, func(sess *Session) error {
		return s.applySelection(ctx, sess, "toggle_seat", func(cat selection.Catalog) (selection.Model, error) {
			return sess.sel.ToggleSeat(cat, shapeID)
		})
	})
}

// SelectZoneQuantity adds quantity tickets of a zone to the cart.
func (s *SessionService) SelectZoneQuantity(ctx context.Context, id, shapeID string, quantity int) (*SessionView, error) {
	return s.viewWith(id, func(sess *Session) error {
		return s.applySelection(ctx, sess, "select_zone", func(cat selection.Catalog) (selection.Model, error) {
			return sess.sel.SelectZoneQuantity(cat, shapeID, quantity)
		})
	})
}

// RemoveEntry drops one cart entry.
func (s *SessionService) RemoveEntry(ctx context.Context, id, entryID string) (*SessionView, error) {
	return s.viewWith(id, func(sess *Session) error {
		return s.applySelection(ctx, sess, "remove_entry", func(selection.Catalog) (selection.Model, error) {
			return sess.sel.RemoveEntry(entryID)
		})
	})
}

// applySelection runs one selection operation. A category priced after the
// session loaded its table is fetched once and the operation retried.
func (s *SessionService) applySelection(ctx context.Context, sess *Session, op string, fn func(selection.Catalog) (selection.Model, error)) error {
	next, err := fn(sess.catalog())

	var missing *inventory.MissingPriceError
	if errors.As(err, &missing) && missing.CategoryID != "" {
		price, ferr := s.backend.FetchCategoryPrice(ctx, sess.EventID, missing.CategoryID)
		switch {
		case ferr != nil:
			logger.WithContext(ctx).Warn("Failed to fetch category price",
				"category_id", missing.CategoryID,
				"error", ferr)
		case price != nil:
			sess.prices = sess.prices.With(*price)
			next, err = fn(sess.catalog())
		}
	}

	s.metrics.SelectionOps.WithLabelValues(op, metrics.SelectionResult(err)).Inc()
	if err != nil {
		logger.WithContext(ctx).Debug("Selection rejected", "op", op, "error", err)
		return err
	}

	sess.sel = next
	return nil
}

// Checkout commits the cart. On success the cart is emptied and the snapshot
// refreshed; on a lost race the snapshot is refreshed and stale entries are
// dropped so the shopper sees what is still available.
func (s *SessionService) Checkout(ctx context.Context, id string, contact models.Contact) (*models.Order, error) {
	var order *models.Order

	err := s.with(id, func(sess *Session) error {
		o, err := s.allocator.Checkout(ctx, sess.EventID, sess.sel, contact)
		if err != nil {
			s.recordCheckoutFailure(ctx, sess, err)
			return err
		}

		s.metrics.CheckoutOutcomes.WithLabelValues(metrics.OutcomeCommitted).Inc()
		publish(ctx, s.publisher, models.EventOrderCompleted, models.OrderCompletedEvent{
			OrderID:    o.ID,
			EventID:    o.EventID,
			TotalPrice: o.TotalPrice,
			Currency:   o.Currency,
			TicketIDs:  sess.sel.UnitIDs(),
			Email:      o.Contact.Email,
			Name:       o.Contact.Name,
			Timestamp:  s.now(),
		})
		logger.WithContext(ctx).Info("Order completed",
			"order_id", o.ID,
			"event_id", o.EventID,
			"tickets", len(o.Lines),
			"total", o.TotalPrice.String())

		sess.sel = selection.Empty()
		s.load(ctx, sess)
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *SessionService) recordCheckoutFailure(ctx context.Context, sess *Session, err error) {
	switch {
	case errors.Is(err, apperrors.ErrUnitNoLongerAvailable):
		s.metrics.CheckoutOutcomes.WithLabelValues(metrics.OutcomeConflict).Inc()
		logger.WithContext(ctx).Warn("Checkout lost a ticket to another shopper", "error", err)
		publish(ctx, s.publisher, models.EventCheckoutConflict, models.CheckoutConflictEvent{
			EventID:   sess.EventID,
			SessionID: sess.ID,
			Reason:    err.Error(),
			Timestamp: s.now(),
		})
		s.load(ctx, sess)
		sess.sel, _ = pruneStale(sess.sel, sess.snapshot)
	case errors.Is(err, apperrors.ErrEmptySelection),
		errors.Is(err, apperrors.ErrDuplicateUnit),
		errors.Is(err, apperrors.ErrInvalidQuantity),
		errors.Is(err, apperrors.ErrCurrencyMismatch):
		s.metrics.CheckoutOutcomes.WithLabelValues(metrics.OutcomeRejected).Inc()
	default:
		s.metrics.CheckoutOutcomes.WithLabelValues(metrics.OutcomeError).Inc()
		logger.WithContext(ctx).Error("Checkout failed", "error", err)
	}
}

// Viewport applies one zoom/pan action.
func (s *SessionService) Viewport(ctx context.Context, id string, req models.ViewportRequest) (*ViewportResult, error) {
	var res ViewportResult

	err := s.with(id, func(sess *Session) error {
		handled := true
		switch req.Action {
		case models.ViewportZoomIn:
			sess.vp.ZoomIn()
		case models.ViewportZoomOut:
			sess.vp.ZoomOut()
		case models.ViewportWheel:
			handled = sess.vp.WheelZoom(req.X, req.Y, req.DeltaY)
		case models.ViewportPan:
			sess.vp.Pan(req.DX, req.DY)
		case models.ViewportFit:
			sess.vp.FitToView(sess.venue.Layout.Bounds())
		case models.ViewportResize:
			if req.Width <= 0 || req.Height <= 0 {
				return fmt.Errorf("%w: resize needs a positive width and height", apperrors.ErrInvalidAction)
			}
			sess.vp.Resize(req.Width, req.Height)
		default:
			return fmt.Errorf("%w: %q", apperrors.ErrInvalidAction, req.Action)
		}
		res = ViewportResult{Viewport: sess.vp.State(), Handled: handled}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Gestures replays pointer events through the session's gesture tracker.
// Completed taps are treated as clicks.
func (s *SessionService) Gestures(ctx context.Context, id string, events []models.PointerEventRequest) (*GestureResult, error) {
	converted := make([]viewport.PointerEvent, len(events))
	for i, ev := range events {
		kind := viewport.PointerKind(ev.Type)
		switch kind {
		case viewport.PointerDown, viewport.PointerMove, viewport.PointerUp, viewport.PointerCancel:
		default:
			return nil, fmt.Errorf("%w: pointer event %q", apperrors.ErrInvalidAction, ev.Type)
		}
		converted[i] = viewport.PointerEvent{Kind: kind, PointerID: ev.PointerID, X: ev.X, Y: ev.Y}
	}

	var res GestureResult
	err := s.with(id, func(sess *Session) error {
		for _, ev := range converted {
			tap := sess.gestures.Handle(ev)
			if tap == nil {
				continue
			}
			click, err := s.click(ctx, sess, tap.X, tap.Y)
			if err != nil {
				click.Error = err.Error()
			}
			res.Taps = append(res.Taps, *click)
		}
		res.Viewport = sess.vp.State()
		res.ScrollLocked = sess.gestures.ScrollLocked()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Click hit-tests a canvas position. A seat is toggled; a zone reports its
// capacity so the page can ask for a quantity.
func (s *SessionService) Click(ctx context.Context, id string, x, y float64) (*ClickResult, error) {
	var res *ClickResult
	err := s.with(id, func(sess *Session) error {
		var err error
		res, err = s.click(ctx, sess, x, y)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *SessionService) click(ctx context.Context, sess *Session, x, y float64) (*ClickResult, error) {
	shape, ok := sess.venue.Layout.HitTest(sess.vp.ScreenToWorld(x, y))
	if !ok {
		return &ClickResult{Action: ActionNone}, nil
	}

	res := &ClickResult{ShapeID: shape.ID, Kind: shape.Kind, Action: ActionNone}
	switch {
	case shape.Kind == layout.KindSeat:
		err := s.applySelection(ctx, sess, "toggle_seat", func(cat selection.Catalog) (selection.Model, error) {
			return sess.sel.ToggleSeat(cat, shape.ID)
		})
		if err != nil {
			return res, err
		}
		res.Action = ActionToggledSeat
	case shape.IsZone():
		in := sess.inputs()
		c := capacity.For(shape, in, capacity.Selected(shape, in, sess.sel.SelectedByShape()))
		res.Action = ActionChooseQuantity
		res.Capacity = &c
	}
	return res, nil
}

// RenderSVG draws the session's current view as an SVG document.
func (s *SessionService) RenderSVG(ctx context.Context, id string) ([]byte, error) {
	var out []byte
	err := s.with(id, func(sess *Session) error {
		st := sess.vp.State()
		surface := render.NewSVGSurface(st.CanvasWidth, st.CanvasHeight)
		selected := sess.sel.SelectedByShape()
		caps := capacity.Map(sess.venue.Layout, sess.inputs(), selected)
		s.renderer.Draw(surface, sess.venue.Layout, sess.vp, caps, selected)
		out = surface.Bytes()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of open sessions.
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SweepIdle closes sessions not touched within the session TTL.
func (s *SessionService) SweepIdle() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	swept := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			swept++
		}
	}
	s.metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return swept
}

// RunSweeper sweeps idle sessions every interval until ctx is done.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("Session sweeper started", "interval", interval, "ttl", s.ttl)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Session sweeper stopped")
			return
		case <-ticker.C:
			if n := s.SweepIdle(); n > 0 {
				slog.Info("Idle sessions closed", "count", n)
			}
		}
	}
}
