package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"boxoffice/internal/config"
	"boxoffice/internal/database"
	"boxoffice/internal/logger"
	"boxoffice/internal/models"
	"boxoffice/internal/repository"
	"boxoffice/internal/search"
)

// OrderSource pages through stored orders
type OrderSource interface {
	ListOrders(ctx context.Context, limit, offset int) ([]models.Order, error)
	ListOrderLinesFor(ctx context.Context, orderIDs []string) ([]models.OrderLine, error)
}

// BulkIndexer writes a batch of order documents
type BulkIndexer interface {
	BulkIndex(ctx context.Context, docs []search.OrderDocument) error
}

func main() {
	var batchSize int
	flag.IntVar(&batchSize, "batch", 500, "Orders per bulk request")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if cfg.Elasticsearch.URL == "" {
		logger.Fatal("ELASTICSEARCH_URL is required")
	}

	slog.Info("Starting order reindex", "batch", batchSize)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	es, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		logger.Fatal("Failed to connect to Elasticsearch", "error", err)
	}

	start := time.Now()
	total, err := reindex(context.Background(), repository.NewStore(db), es, batchSize)
	if err != nil {
		logger.Fatal("Reindex failed", "error", err, "indexed", total)
	}

	slog.Info("Reindex completed successfully", "indexed", total, "duration", time.Since(start).String())
}

func reindex(ctx context.Context, src OrderSource, dst BulkIndexer, batchSize int) (int, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	total := 0
	for offset := 0; ; offset += batchSize {
		orders, err := src.ListOrders(ctx, batchSize, offset)
		if err != nil {
			return total, fmt.Errorf("failed to list orders at offset %d: %w", offset, err)
		}
		if len(orders) == 0 {
			return total, nil
		}

		ids := make([]string, len(orders))
		for i, o := range orders {
			ids[i] = o.ID
		}
		lines, err := src.ListOrderLinesFor(ctx, ids)
		if err != nil {
			return total, fmt.Errorf("failed to list order lines: %w", err)
		}

		byOrder := make(map[string][]models.OrderLine, len(orders))
		for _, l := range lines {
			byOrder[l.OrderID] = append(byOrder[l.OrderID], l)
		}

		docs := make([]search.OrderDocument, len(orders))
		for i := range orders {
			orders[i].Lines = byOrder[orders[i].ID]
			docs[i] = search.DocumentFromOrder(&orders[i])
		}

		if err := dst.BulkIndex(ctx, docs); err != nil {
			return total, fmt.Errorf("failed to index batch at offset %d: %w", offset, err)
		}

		total += len(docs)
		slog.Info("Indexed batch", "offset", offset, "orders", len(docs), "total", total)

		if len(orders) < batchSize {
			return total, nil
		}
	}
}
