// Package notify fans scanned transfer events out to the subscribers of
// each watched address.
package notify

import (
	"context"

	"go.uber.org/zap"

	"walletScope/internal/model"
)

// SubscriberResolver resolves the subscribers of an address, each with
// their private label for it.
type SubscriberResolver interface {
	SubscribersOf(ctx context.Context, address string) ([]model.Subscriber, error)
}

// Transport delivers one rendered message to one subscriber. May fail
// per call; the dispatcher makes exactly one attempt.
type Transport interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Dispatcher delivers each (event, subscriber) pair once. One recipient's
// failure never blocks the others or the rest of the batch.
type Dispatcher struct {
	resolver  SubscriberResolver
	transport Transport
	logger    *zap.Logger
}

func NewDispatcher(resolver SubscriberResolver, transport Transport, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{resolver: resolver, transport: transport, logger: logger}
}

// Dispatch processes one event batch. Failed deliveries are dropped after
// the single attempt; duplicates across restarts are accepted.
func (d *Dispatcher) Dispatch(ctx context.Context, events []model.TransferEvent) {
	for _, event := range events {
		subscribers, err := d.resolver.SubscribersOf(ctx, event.Address)
		if err != nil {
			d.logger.Warn("subscriber lookup failed",
				zap.String("address", event.Address),
				zap.String("tx", event.TxHash),
				zap.Error(err),
			)
			continue
		}

		for _, subscriber := range subscribers {
			text := FormatTransfer(subscriber.Label, event)
			if err := d.transport.Send(ctx, subscriber.ChatID, text); err != nil {
				d.logger.Warn("delivery failed",
					zap.Int64("chat_id", subscriber.ChatID),
					zap.String("tx", event.TxHash),
					zap.Error(err),
				)
				continue
			}
		}
	}
}
