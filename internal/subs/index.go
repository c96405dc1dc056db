package subs

import (
	"context"

	"walletScope/internal/model"
)

// Index answers the scan loop's questions about who watches what. Every
// call reads through to the store; nothing is cached across scan ticks,
// so out-of-band adds and removes take effect on the next tick.
type Index struct {
	store Store
}

func NewIndex(store Store) *Index {
	return &Index{store: store}
}

// AllWatchedAddresses returns the canonical set of addresses that have at
// least one subscription row.
func (ix *Index) AllWatchedAddresses(ctx context.Context) ([]string, error) {
	byAddress, err := ix.store.AllAddressesWithSubscribers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(byAddress))
	for address := range byAddress {
		canonical, err := model.CanonicalAddress(address)
		if err != nil {
			continue
		}
		out = append(out, canonical)
	}
	return out, nil
}

// SubscribersOf returns the subscribers of an address with their private
// labels. An address with no subscribers yields an empty list, not an
// error. A subscriber whose label row is missing is skipped.
func (ix *Index) SubscribersOf(ctx context.Context, address string) ([]model.Subscriber, error) {
	canonical, err := model.CanonicalAddress(address)
	if err != nil {
		return nil, err
	}

	byAddress, err := ix.store.AllAddressesWithSubscribers(ctx)
	if err != nil {
		return nil, err
	}

	chatIDs := byAddress[canonical]
	out := make([]model.Subscriber, 0, len(chatIDs))
	for _, chatID := range chatIDs {
		label, ok, err := ix.store.LabelFor(ctx, chatID, canonical)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, model.Subscriber{ChatID: chatID, Label: label})
	}
	return out, nil
}
