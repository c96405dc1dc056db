// Package subs holds the subscription store boundary and the read-through
// index the scan loop and dispatcher consult. Addresses crossing the store
// boundary are always canonicalized first.
package subs

import (
	"context"

	"walletScope/internal/model"
)

// Store is the persistence boundary for address subscriptions.
// (address, chat) is unique; AddSubscription reports false for a
// duplicate instead of overwriting.
type Store interface {
	AddSubscription(ctx context.Context, chatID int64, address, label string) (bool, error)
	RemoveSubscription(ctx context.Context, chatID int64, address string) (bool, error)
	SubscriptionsOf(ctx context.Context, chatID int64) ([]model.Subscription, error)
	AllAddressesWithSubscribers(ctx context.Context) (map[string][]int64, error)
	LabelFor(ctx context.Context, chatID int64, address string) (string, bool, error)
}
