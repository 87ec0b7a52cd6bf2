package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createVenuesTable,
		createEventsTable,
		createZonesTable,
		createSeatsTable,
		createTicketsTable,
		createCategoryPricesTable,
		createOrdersTable,
		createOrderLinesTable,
		createTicketsIndexes,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createVenuesTable = `
CREATE TABLE IF NOT EXISTS venues (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    layout JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id BIGSERIAL PRIMARY KEY,
    venue_id BIGINT NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
    title VARCHAR(500) NOT NULL,
    starts_at TIMESTAMP NOT NULL
);`

const createZonesTable = `
CREATE TABLE IF NOT EXISTS zones (
    id VARCHAR(100) PRIMARY KEY,
    venue_id BIGINT NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
    category_id VARCHAR(100),
    name VARCHAR(255) NOT NULL,
    capacity INTEGER NOT NULL DEFAULT 0,
    shape JSONB NOT NULL DEFAULT '{}'::jsonb,

    CHECK (capacity >= 0)
);`

const createSeatsTable = `
CREATE TABLE IF NOT EXISTS seats (
    id VARCHAR(100) PRIMARY KEY,
    venue_id BIGINT NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
    label VARCHAR(50) NOT NULL,
    category_id VARCHAR(100),
    x DOUBLE PRECISION NOT NULL DEFAULT 0,
    y DOUBLE PRECISION NOT NULL DEFAULT 0
);`

const createTicketsTable = `
CREATE TABLE IF NOT EXISTS tickets (
    id UUID PRIMARY KEY,
    event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    seat_id VARCHAR(100) REFERENCES seats(id),
    zone_id VARCHAR(100) REFERENCES zones(id),
    status VARCHAR(20) NOT NULL DEFAULT 'free',
    hold_expiry TIMESTAMP,
    order_line_id UUID,

    CHECK (status IN ('free', 'held', 'sold'))
);`

const createCategoryPricesTable = `
CREATE TABLE IF NOT EXISTS category_prices (
    event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    category_id VARCHAR(100) NOT NULL,
    price DECIMAL(10,2) NOT NULL,
    currency CHAR(3) NOT NULL,

    PRIMARY KEY (event_id, category_id)
);`

const createOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
    id UUID PRIMARY KEY,
    event_id BIGINT NOT NULL REFERENCES events(id),
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    total_price DECIMAL(12,2) NOT NULL,
    currency CHAR(3) NOT NULL,
    customer_name VARCHAR(255),
    customer_email VARCHAR(255),
    customer_phone VARCHAR(50),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('pending', 'paid', 'refunded'))
);`

// A ticket has at most one order line that is not released.
const createOrderLinesTable = `
CREATE TABLE IF NOT EXISTS order_lines (
    id UUID PRIMARY KEY,
    order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    ticket_id UUID NOT NULL REFERENCES tickets(id),
    unit_price DECIMAL(10,2) NOT NULL,
    released_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_order_lines_active_ticket ON order_lines(ticket_id) WHERE released_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_order_lines_order_id ON order_lines(order_id);`

const createTicketsIndexes = `
CREATE INDEX IF NOT EXISTS idx_tickets_event_id ON tickets(event_id);
CREATE INDEX IF NOT EXISTS idx_tickets_held_expiry ON tickets(hold_expiry) WHERE status = 'held';
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);`
