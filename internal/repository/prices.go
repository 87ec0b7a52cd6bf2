package repository

import (
	"context"
	"database/sql"
	"fmt"

	"boxoffice/internal/models"
)

func (s *Store) FetchCategoryPrice(ctx context.Context, eventID int64, categoryID string) (*models.CategoryPrice, error) {
	p := &models.CategoryPrice{}
	query := `
		SELECT event_id, category_id, price, currency
		FROM category_prices
		WHERE event_id = $1 AND category_id = $2`

	err := s.q(ctx).QueryRowContext(ctx, query, eventID, categoryID).Scan(&p.EventID, &p.CategoryID, &p.Price, &p.Currency)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price for category %s: %w", categoryID, err)
	}
	return p, nil
}

func (s *Store) FetchCategoryPrices(ctx context.Context, eventID int64) ([]models.CategoryPrice, error) {
	query := `
		SELECT event_id, category_id, price, currency
		FROM category_prices
		WHERE event_id = $1
		ORDER BY category_id`

	rows, err := s.q(ctx).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices for event %d: %w", eventID, err)
	}
	defer rows.Close()

	var prices []models.CategoryPrice
	for rows.Next() {
		var p models.CategoryPrice
		if err := rows.Scan(&p.EventID, &p.CategoryID, &p.Price, &p.Currency); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}

	return prices, rows.Err()
}

func (s *Store) UpsertCategoryPrice(ctx context.Context, p models.CategoryPrice) error {
	query := `
		INSERT INTO category_prices (event_id, category_id, price, currency)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, category_id) DO UPDATE
		SET price = EXCLUDED.price, currency = EXCLUDED.currency`

	_, err := s.q(ctx).ExecContext(ctx, query, p.EventID, p.CategoryID, p.Price, p.Currency)
	return err
}
