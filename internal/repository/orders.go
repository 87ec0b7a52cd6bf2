package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"

	"github.com/lib/pq"
)

const orderColumns = `id, event_id, status, total_price, currency,
		       customer_name, customer_email, customer_phone, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }, o *models.Order) error {
	var name, email, phone sql.NullString
	err := row.Scan(
		&o.ID,
		&o.EventID,
		&o.Status,
		&o.TotalPrice,
		&o.Currency,
		&name,
		&email,
		&phone,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	o.Contact = models.Contact{Name: name.String, Email: email.String, Phone: phone.String}
	return err
}

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, event_id, status, total_price, currency,
		                    customer_name, customer_email, customer_phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.q(ctx).ExecContext(ctx, query,
		order.ID,
		order.EventID,
		order.Status,
		order.TotalPrice,
		order.Currency,
		order.Contact.Name,
		order.Contact.Email,
		order.Contact.Phone,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (s *Store) SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	query := `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`

	res, err := s.q(ctx).ExecContext(ctx, query, orderID, status)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrOrderNotFound, orderID)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	err := scanOrder(s.q(ctx).QueryRowContext(ctx, query, orderID), order)
	if err == sql.ErrNoRows || isInvalidUUID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	return order, nil
}

func (s *Store) ListOrders(ctx context.Context, limit, offset int) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at, id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	} else if offset > 0 {
		query += ` OFFSET $1`
		args = append(args, offset)
	}

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// CreateOrderLine relies on the partial unique index over active lines: a
// second active line for the same ticket is a lost race.
func (s *Store) CreateOrderLine(ctx context.Context, line *models.OrderLine) error {
	query := `
		INSERT INTO order_lines (id, order_id, ticket_id, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.q(ctx).ExecContext(ctx, query, line.ID, line.OrderID, line.TicketID, line.UnitPrice, line.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", apperrors.ErrUnitNoLongerAvailable, line.TicketID)
		}
		return fmt.Errorf("failed to insert order line: %w", err)
	}
	return nil
}

const lineColumns = `id, order_id, ticket_id, unit_price, released_at, created_at`

func scanLine(row interface{ Scan(...interface{}) error }, l *models.OrderLine) error {
	return row.Scan(&l.ID, &l.OrderID, &l.TicketID, &l.UnitPrice, &l.ReleasedAt, &l.CreatedAt)
}

func (s *Store) FindOrderLineByUnit(ctx context.Context, unitID string) (*models.OrderLine, error) {
	line := &models.OrderLine{}
	query := `SELECT ` + lineColumns + ` FROM order_lines WHERE ticket_id = $1 AND released_at IS NULL`

	err := scanLine(s.q(ctx).QueryRowContext(ctx, query, unitID), line)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order line for ticket %s: %w", unitID, err)
	}
	return line, nil
}

func (s *Store) ListOrderLines(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	return s.listLines(ctx, `SELECT `+lineColumns+` FROM order_lines WHERE order_id = $1 ORDER BY ticket_id`, orderID)
}

// ListOrderLinesFor returns the lines of several orders at once.
func (s *Store) ListOrderLinesFor(ctx context.Context, orderIDs []string) ([]models.OrderLine, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	return s.listLines(ctx, `SELECT `+lineColumns+` FROM order_lines WHERE order_id = ANY($1::uuid[]) ORDER BY order_id, ticket_id`, pq.Array(orderIDs))
}

func (s *Store) listLines(ctx context.Context, query string, args ...interface{}) ([]models.OrderLine, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}
	defer rows.Close()

	var lines []models.OrderLine
	for rows.Next() {
		var l models.OrderLine
		if err := scanLine(rows, &l); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}

	return lines, rows.Err()
}

func (s *Store) ReleaseOrderLine(ctx context.Context, lineID string, at time.Time) error {
	query := `UPDATE order_lines SET released_at = $2 WHERE id = $1 AND released_at IS NULL`

	if _, err := s.q(ctx).ExecContext(ctx, query, lineID, at); err != nil {
		return fmt.Errorf("failed to release order line %s: %w", lineID, err)
	}
	return nil
}
