package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"boxoffice/internal/database"
	"boxoffice/internal/models"

	"github.com/lib/pq"
)

func (s *Store) FetchInventoryForEvent(ctx context.Context, eventID int64) ([]models.Ticket, error) {
	query := `
		SELECT t.id, t.event_id, t.seat_id, t.zone_id, t.status, t.hold_expiry, t.order_line_id,
		       s.venue_id, s.label, s.category_id, s.x, s.y,
		       z.venue_id, z.category_id, z.name, z.capacity, z.shape
		FROM tickets t
		LEFT JOIN seats s ON s.id = t.seat_id
		LEFT JOIN zones z ON z.id = t.zone_id
		WHERE t.event_id = $1
		ORDER BY t.id`

	var rows *sql.Rows
	attempts := txAttempts
	if txFromContext(ctx) != nil {
		// A failed statement aborts the transaction; retrying inside it is useless.
		attempts = 1
	}
	err := database.Retry(ctx, attempts, func() error {
		var qerr error
		rows, qerr = s.q(ctx).QueryContext(ctx, query, eventID)
		return qerr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch inventory for event %d: %w", eventID, err)
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		var t models.Ticket
		var (
			seatVenue sql.NullInt64
			seatLabel sql.NullString
			seatCat   *string
			seatX     sql.NullFloat64
			seatY     sql.NullFloat64
			zoneVenue sql.NullInt64
			zoneCat   *string
			zoneName  sql.NullString
			zoneCap   sql.NullInt64
			zoneShape []byte
		)

		err := rows.Scan(
			&t.ID, &t.EventID, &t.SeatID, &t.ZoneID, &t.Status, &t.HoldExpiry, &t.OrderLineID,
			&seatVenue, &seatLabel, &seatCat, &seatX, &seatY,
			&zoneVenue, &zoneCat, &zoneName, &zoneCap, &zoneShape,
		)
		if err != nil {
			return nil, err
		}

		if t.SeatID != nil && seatVenue.Valid {
			t.Seat = &models.Seat{
				ID:         *t.SeatID,
				VenueID:    seatVenue.Int64,
				Label:      seatLabel.String,
				CategoryID: seatCat,
				X:          seatX.Float64,
				Y:          seatY.Float64,
			}
		}
		if t.ZoneID != nil && zoneVenue.Valid {
			t.Zone = &models.Zone{
				ID:         *t.ZoneID,
				VenueID:    zoneVenue.Int64,
				CategoryID: zoneCat,
				Name:       zoneName.String,
				Capacity:   int(zoneCap.Int64),
			}
			if len(zoneShape) > 0 {
				_ = json.Unmarshal(zoneShape, &t.Zone.Shape)
			}
		}

		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

// TransitionUnit is a compare-and-swap on the ticket status.
func (s *Store) TransitionUnit(ctx context.Context, unitID string, from, to models.UnitStatus, orderLineID *string) (bool, error) {
	query := `
		UPDATE tickets
		SET status = $3, order_line_id = $4, hold_expiry = NULL
		WHERE id = $1 AND status = $2`

	res, err := s.q(ctx).ExecContext(ctx, query, unitID, from, to, orderLineID)
	if err != nil {
		if isInvalidUUID(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to transition ticket %s: %w", unitID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) UpdateUnitStatus(ctx context.Context, unitID string, status models.UnitStatus, holdExpiry *time.Time) error {
	query := `
		UPDATE tickets
		SET status = $2,
		    hold_expiry = $3,
		    order_line_id = CASE WHEN $4 THEN NULL ELSE order_line_id END
		WHERE id = $1`

	res, err := s.q(ctx).ExecContext(ctx, query, unitID, status, holdExpiry, status == models.UnitFree)
	if err != nil {
		return fmt.Errorf("failed to update ticket %s: %w", unitID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("ticket %s not found", unitID)
	}
	return nil
}

func (s *Store) ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE tickets
		SET status = 'free', hold_expiry = NULL
		WHERE status = 'held' AND hold_expiry <= $1`

	res, err := s.q(ctx).ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to release expired holds: %w", err)
	}
	return res.RowsAffected()
}

// ResetEventInventory frees every ticket of an event, releases its lines and
// marks its open orders refunded.
func (s *Store) ResetEventInventory(ctx context.Context, eventID int64) (int64, error) {
	var reset int64

	err := s.WithTx(ctx, func(txCtx context.Context) error {
		q := s.q(txCtx)

		res, err := q.ExecContext(txCtx, `
			UPDATE tickets
			SET status = 'free', hold_expiry = NULL, order_line_id = NULL
			WHERE event_id = $1 AND status <> 'free'`, eventID)
		if err != nil {
			return fmt.Errorf("failed to free tickets: %w", err)
		}
		reset, _ = res.RowsAffected()

		rows, err := q.QueryContext(txCtx, `SELECT id FROM orders WHERE event_id = $1`, eventID)
		if err != nil {
			return fmt.Errorf("failed to list orders: %w", err)
		}
		var orderIDs []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			orderIDs = append(orderIDs, id)
		}
		rows.Close()
		if len(orderIDs) == 0 {
			return nil
		}

		if _, err := q.ExecContext(txCtx, `
			UPDATE order_lines SET released_at = NOW()
			WHERE order_id = ANY($1::uuid[]) AND released_at IS NULL`, pq.Array(orderIDs)); err != nil {
			return fmt.Errorf("failed to release order lines: %w", err)
		}

		if _, err := q.ExecContext(txCtx, `
			UPDATE orders SET status = 'refunded', updated_at = NOW()
			WHERE id = ANY($1::uuid[]) AND status <> 'refunded'`, pq.Array(orderIDs)); err != nil {
			return fmt.Errorf("failed to void orders: %w", err)
		}

		return nil
	})

	return reset, err
}

// CreateTickets bulk-loads tickets with COPY.
func (s *Store) CreateTickets(ctx context.Context, tickets []models.Ticket) error {
	return s.WithTx(ctx, func(txCtx context.Context) error {
		tx := txFromContext(txCtx)

		stmt, err := tx.PrepareContext(txCtx, pq.CopyIn("tickets", "id", "event_id", "seat_id", "zone_id", "status"))
		if err != nil {
			return fmt.Errorf("failed to prepare copy: %w", err)
		}

		for _, t := range tickets {
			status := t.Status
			if status == "" {
				status = models.UnitFree
			}
			if _, err := stmt.ExecContext(txCtx, t.ID, t.EventID, t.SeatID, t.ZoneID, string(status)); err != nil {
				stmt.Close()
				return fmt.Errorf("failed to copy ticket %s: %w", t.ID, err)
			}
		}

		if _, err := stmt.ExecContext(txCtx); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to flush copy: %w", err)
		}
		return stmt.Close()
	})
}

// DeleteUnsoldTickets removes an event's tickets that never had an order line.
func (s *Store) DeleteUnsoldTickets(ctx context.Context, eventID int64) (int64, error) {
	query := `
		DELETE FROM tickets t
		WHERE t.event_id = $1
		  AND NOT EXISTS (SELECT 1 FROM order_lines l WHERE l.ticket_id = t.id)`

	res, err := s.q(ctx).ExecContext(ctx, query, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tickets: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) CountTickets(ctx context.Context, eventID int64) (int, error) {
	var n int
	err := s.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets WHERE event_id = $1`, eventID).Scan(&n)
	return n, err
}
