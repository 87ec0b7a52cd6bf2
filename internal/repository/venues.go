package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"boxoffice/internal/models"
)

func (s *Store) GetVenueLayout(ctx context.Context, venueID int64) (*models.Venue, error) {
	venue := &models.Venue{}
	query := `
		SELECT id, name, layout, updated_at
		FROM venues
		WHERE id = $1`

	err := s.q(ctx).QueryRowContext(ctx, query, venueID).Scan(
		&venue.ID,
		&venue.Name,
		&venue.Layout,
		&venue.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get venue %d: %w", venueID, err)
	}

	return venue, nil
}

func (s *Store) CreateVenue(ctx context.Context, venue *models.Venue) error {
	query := `
		INSERT INTO venues (name, layout)
		VALUES ($1, $2)
		RETURNING id, updated_at`

	return s.q(ctx).QueryRowContext(ctx, query, venue.Name, venue.Layout).Scan(&venue.ID, &venue.UpdatedAt)
}

func (s *Store) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	event := &models.Event{}
	query := `
		SELECT id, venue_id, title, starts_at
		FROM events
		WHERE id = $1`

	err := s.q(ctx).QueryRowContext(ctx, query, eventID).Scan(
		&event.ID,
		&event.VenueID,
		&event.Title,
		&event.StartsAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}

	return event, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]models.Event, error) {
	query := `SELECT id, venue_id, title, starts_at FROM events ORDER BY id`

	rows, err := s.q(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.VenueID, &e.Title, &e.StartsAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func (s *Store) CreateEvent(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (venue_id, title, starts_at)
		VALUES ($1, $2, $3)
		RETURNING id`

	return s.q(ctx).QueryRowContext(ctx, query, event.VenueID, event.Title, event.StartsAt).Scan(&event.ID)
}

func (s *Store) FetchZonesForVenue(ctx context.Context, venueID int64) ([]models.Zone, error) {
	query := `
		SELECT id, venue_id, category_id, name, capacity, shape
		FROM zones
		WHERE venue_id = $1
		ORDER BY id`

	rows, err := s.q(ctx).QueryContext(ctx, query, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch zones for venue %d: %w", venueID, err)
	}
	defer rows.Close()

	var zones []models.Zone
	for rows.Next() {
		var z models.Zone
		var shape []byte
		if err := rows.Scan(&z.ID, &z.VenueID, &z.CategoryID, &z.Name, &z.Capacity, &shape); err != nil {
			return nil, err
		}
		if len(shape) > 0 {
			if err := json.Unmarshal(shape, &z.Shape); err != nil {
				return nil, fmt.Errorf("failed to decode shape of zone %s: %w", z.ID, err)
			}
		}
		zones = append(zones, z)
	}

	return zones, rows.Err()
}

func (s *Store) UpsertZone(ctx context.Context, zone models.Zone) error {
	shape, err := json.Marshal(zone.Shape)
	if err != nil {
		return fmt.Errorf("failed to encode zone shape: %w", err)
	}

	query := `
		INSERT INTO zones (id, venue_id, category_id, name, capacity, shape)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET category_id = EXCLUDED.category_id, name = EXCLUDED.name,
		    capacity = EXCLUDED.capacity, shape = EXCLUDED.shape`

	_, err = s.q(ctx).ExecContext(ctx, query, zone.ID, zone.VenueID, zone.CategoryID, zone.Name, zone.Capacity, shape)
	return err
}

func (s *Store) ListSeatsForVenue(ctx context.Context, venueID int64) ([]models.Seat, error) {
	query := `
		SELECT id, venue_id, label, category_id, x, y
		FROM seats
		WHERE venue_id = $1
		ORDER BY id`

	rows, err := s.q(ctx).QueryContext(ctx, query, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seats for venue %d: %w", venueID, err)
	}
	defer rows.Close()

	var seats []models.Seat
	for rows.Next() {
		var seat models.Seat
		if err := rows.Scan(&seat.ID, &seat.VenueID, &seat.Label, &seat.CategoryID, &seat.X, &seat.Y); err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	return seats, rows.Err()
}

func (s *Store) UpsertSeat(ctx context.Context, seat models.Seat) error {
	query := `
		INSERT INTO seats (id, venue_id, label, category_id, x, y)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET label = EXCLUDED.label, category_id = EXCLUDED.category_id, x = EXCLUDED.x, y = EXCLUDED.y`

	_, err := s.q(ctx).ExecContext(ctx, query, seat.ID, seat.VenueID, seat.Label, seat.CategoryID, seat.X, seat.Y)
	return err
}
