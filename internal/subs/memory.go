package subs

import (
	"context"
	"sync"

	"walletScope/internal/model"
)

// MemoryStore is an in-process Store. Used when no database DSN is
// configured and in tests. Subscriptions do not survive a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	subs []model.Subscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AddSubscription(_ context.Context, chatID int64, address, label string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.ChatID == chatID && sub.Address == address {
			return false, nil
		}
	}
	s.subs = append(s.subs, model.Subscription{ChatID: chatID, Address: address, Label: label})
	return true, nil
}

func (s *MemoryStore) RemoveSubscription(_ context.Context, chatID int64, address string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.ChatID == chatID && sub.Address == address {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) SubscriptionsOf(_ context.Context, chatID int64) ([]model.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Subscription
	for _, sub := range s.subs {
		if sub.ChatID == chatID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *MemoryStore) AllAddressesWithSubscribers(_ context.Context) (map[string][]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]int64)
	for _, sub := range s.subs {
		out[sub.Address] = append(out[sub.Address], sub.ChatID)
	}
	return out, nil
}

func (s *MemoryStore) LabelFor(_ context.Context, chatID int64, address string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		if sub.ChatID == chatID && sub.Address == address {
			return sub.Label, true, nil
		}
	}
	return "", false, nil
}
