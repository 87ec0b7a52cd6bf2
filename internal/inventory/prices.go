package inventory

import (
	"context"
	"fmt"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"
)

// PriceSource reads the event's category price records.
type PriceSource interface {
	FetchCategoryPrices(ctx context.Context, eventID int64) ([]models.CategoryPrice, error)
}

// PriceTable maps category id to its price for one event.
type PriceTable map[string]models.CategoryPrice

// LoadPrices fetches the full price table for an event.
func LoadPrices(ctx context.Context, src PriceSource, eventID int64) (PriceTable, error) {
	prices, err := src.FetchCategoryPrices(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch category prices: %w", err)
	}

	table := make(PriceTable, len(prices))
	for _, p := range prices {
		table[p.CategoryID] = p
	}
	return table, nil
}

// MissingPriceError names the category a lookup found no price for.
type MissingPriceError struct {
	CategoryID string
}

func (e *MissingPriceError) Error() string {
	if e.CategoryID == "" {
		return apperrors.ErrNoPriceForCategory.Error() + ": shape has no category"
	}
	return fmt.Sprintf("%s: %q", apperrors.ErrNoPriceForCategory, e.CategoryID)
}

func (e *MissingPriceError) Unwrap() error {
	return apperrors.ErrNoPriceForCategory
}

// Lookup returns the price for a category. A missing price is a hard error:
// a selection must never default to a wrong price.
func (t PriceTable) Lookup(categoryID string) (models.CategoryPrice, error) {
	p, ok := t[categoryID]
	if categoryID == "" || !ok {
		return models.CategoryPrice{}, &MissingPriceError{CategoryID: categoryID}
	}
	return p, nil
}

// With returns a copy of the table with one price added.
func (t PriceTable) With(p models.CategoryPrice) PriceTable {
	out := make(PriceTable, len(t)+1)
	for k, v := range t {
		out[k] = v
	}
	out[p.CategoryID] = p
	return out
}
