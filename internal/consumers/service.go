// Package consumers keeps the admin order index in step with the domain
// events published by the storefront.
package consumers

import (
	"context"
	"log/slog"

	"boxoffice/internal/messaging"
	"boxoffice/internal/models"

	"github.com/nats-io/stan.go"
)

// QueueGroup load-balances events across consumer instances
const QueueGroup = "indexers"

type ConsumerService struct {
	nats     *messaging.NATSClient
	handlers *Handlers
	subs     []stan.Subscription
}

func NewConsumerService(nats *messaging.NATSClient, handlers *Handlers) *ConsumerService {
	return &ConsumerService{
		nats:     nats,
		handlers: handlers,
	}
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	routes := []struct {
		subject string
		handler stan.MsgHandler
	}{
		{models.EventOrderCompleted, cs.handlers.HandleOrderCompleted},
		{models.EventOrderRefunded, cs.handlers.HandleOrderRefunded},
		{models.EventCheckoutConflict, cs.handlers.HandleCheckoutConflict},
		{models.EventHoldsExpired, cs.handlers.HandleHoldsExpired},
	}

	for _, r := range routes {
		sub, err := cs.nats.SubscribeQueue(r.subject, QueueGroup, r.handler)
		if err != nil {
			return err
		}
		cs.subs = append(cs.subs, sub)
	}

	slog.Info("All consumers started successfully", "subjects", len(routes))
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	for _, sub := range cs.subs {
		if err := sub.Close(); err != nil {
			slog.Error("Error closing subscription", "error", err)
		}
	}

	return nil
}
