package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"boxoffice/internal/config"
	"boxoffice/internal/database"
	"boxoffice/internal/logger"
	"boxoffice/internal/models"
	"boxoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	clearExisting = flag.Bool("clear", false, "Delete unsold tickets before generating new ones")
	eventID       = flag.Int64("event", 0, "Generate tickets only for a specific event ID (0 = all events)")
	dryRun        = flag.Bool("dry-run", false, "Show what would be generated without making changes")
	defaultPrice  = flag.String("default-price", "", "Price for categories that have none yet (empty = leave unpriced)")
	currency      = flag.String("currency", "USD", "Currency of -default-price")
)

// TicketGenerator creates the sellable inventory of events from their
// venue's zones and seats
type TicketGenerator struct {
	store *repository.Store
	price *models.CategoryPrice
}

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Starting ticket generator...")

	var price *models.CategoryPrice
	if *defaultPrice != "" {
		p, err := decimal.NewFromString(*defaultPrice)
		if err != nil || p.IsNegative() {
			logger.Fatal("Invalid -default-price", "value", *defaultPrice)
		}
		price = &models.CategoryPrice{Price: p, Currency: *currency}
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	generator := &TicketGenerator{store: repository.NewStore(db), price: price}

	if err := generator.GenerateTickets(context.Background()); err != nil {
		slog.Error("Failed to generate tickets", "error", err)
		os.Exit(1)
	}

	slog.Info("Ticket generation completed successfully!")
}

func (g *TicketGenerator) GenerateTickets(ctx context.Context) error {
	events, err := g.store.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to get events: %w", err)
	}

	if *eventID > 0 {
		filtered := events[:0]
		for _, e := range events {
			if e.ID == *eventID {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	if len(events) == 0 {
		slog.Info("No events found for ticket generation")
		return nil
	}

	slog.Info("Found events for ticket generation", "count", len(events))

	for _, event := range events {
		if err := g.generateForEvent(ctx, event); err != nil {
			slog.Error("Failed to generate tickets for event", "event_id", event.ID, "title", event.Title, "error", err)
			continue
		}
	}

	return nil
}

func (g *TicketGenerator) generateForEvent(ctx context.Context, event models.Event) error {
	if !*clearExisting {
		existing, err := g.store.CountTickets(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("failed to check existing tickets: %w", err)
		}
		if existing > 0 {
			slog.Info("Event already has tickets, skipping (use -clear to override)", "event_id", event.ID, "existing_count", existing)
			return nil
		}
	}

	zones, err := g.store.FetchZonesForVenue(ctx, event.VenueID)
	if err != nil {
		return err
	}
	seats, err := g.store.ListSeatsForVenue(ctx, event.VenueID)
	if err != nil {
		return err
	}

	tickets := planTickets(event.ID, zones, seats, func() string { return uuid.New().String() })
	categories := categoriesOf(zones, seats)

	if *dryRun {
		slog.Info("[DRY RUN] Would generate tickets for event",
			"event_id", event.ID,
			"title", event.Title,
			"tickets", len(tickets),
			"categories", categories)
		return nil
	}

	return g.store.WithTx(ctx, func(txCtx context.Context) error {
		if *clearExisting {
			deleted, err := g.store.DeleteUnsoldTickets(txCtx, event.ID)
			if err != nil {
				return fmt.Errorf("failed to clear existing tickets: %w", err)
			}
			slog.Info("Cleared unsold tickets", "event_id", event.ID, "deleted", deleted)
		}

		if err := g.store.CreateTickets(txCtx, tickets); err != nil {
			return fmt.Errorf("failed to insert tickets: %w", err)
		}

		if g.price != nil {
			if err := g.priceMissing(txCtx, event.ID, categories); err != nil {
				return err
			}
		}

		slog.Info("Generated tickets for event", "event_id", event.ID, "tickets", len(tickets))
		return nil
	})
}

func (g *TicketGenerator) priceMissing(ctx context.Context, eventID int64, categories []string) error {
	prices, err := g.store.FetchCategoryPrices(ctx, eventID)
	if err != nil {
		return err
	}
	priced := make(map[string]bool, len(prices))
	for _, p := range prices {
		priced[p.CategoryID] = true
	}

	for _, c := range categories {
		if priced[c] {
			continue
		}
		p := *g.price
		p.EventID = eventID
		p.CategoryID = c
		if err := g.store.UpsertCategoryPrice(ctx, p); err != nil {
			return fmt.Errorf("failed to price category %s: %w", c, err)
		}
		slog.Info("Priced category", "event_id", eventID, "category_id", c, "price", p.Price.String())
	}
	return nil
}

// planTickets issues capacity tickets per zone and one ticket per seat
func planTickets(eventID int64, zones []models.Zone, seats []models.Seat, newID func() string) []models.Ticket {
	var tickets []models.Ticket

	for _, z := range zones {
		zoneID := z.ID
		for i := 0; i < z.Capacity; i++ {
			tickets = append(tickets, models.Ticket{ID: newID(), EventID: eventID, ZoneID: &zoneID, Status: models.UnitFree})
		}
	}

	for _, s := range seats {
		seatID := s.ID
		tickets = append(tickets, models.Ticket{ID: newID(), EventID: eventID, SeatID: &seatID, Status: models.UnitFree})
	}

	return tickets
}

func categoriesOf(zones []models.Zone, seats []models.Seat) []string {
	seen := map[string]bool{}
	for _, z := range zones {
		if z.CategoryID != nil && *z.CategoryID != "" {
			seen[*z.CategoryID] = true
		}
	}
	for _, s := range seats {
		if s.CategoryID != nil && *s.CategoryID != "" {
			seen[*s.CategoryID] = true
		}
	}

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
