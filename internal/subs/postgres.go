package subs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"walletScope/internal/model"
)

// PostgresStore provides Postgres persistence for subscriptions.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the subscriptions table when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS subscriptions (
			id BIGSERIAL PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			address TEXT NOT NULL,
			label TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (chat_id, address)
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddSubscription(ctx context.Context, chatID int64, address, label string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (chat_id, address, label)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id, address) DO NOTHING
	`, chatID, address, label)
	if err != nil {
		return false, fmt.Errorf("add subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) RemoveSubscription(ctx context.Context, chatID int64, address string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM subscriptions WHERE chat_id = $1 AND address = $2
	`, chatID, address)
	if err != nil {
		return false, fmt.Errorf("remove subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) SubscriptionsOf(ctx context.Context, chatID int64) ([]model.Subscription, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chat_id, address, label FROM subscriptions
		WHERE chat_id = $1
		ORDER BY created_at
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []model.Subscription
	for rows.Next() {
		var sub model.Subscription
		if err := rows.Scan(&sub.ChatID, &sub.Address, &sub.Label); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AllAddressesWithSubscribers(ctx context.Context) (map[string][]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT address, chat_id FROM subscriptions`)
	if err != nil {
		return nil, fmt.Errorf("list watched addresses: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]int64)
	for rows.Next() {
		var (
			address string
			chatID  int64
		)
		if err := rows.Scan(&address, &chatID); err != nil {
			return nil, fmt.Errorf("scan watched address: %w", err)
		}
		out[address] = append(out[address], chatID)
	}
	return out, rows.Err()
}

func (s *PostgresStore) LabelFor(ctx context.Context, chatID int64, address string) (string, bool, error) {
	var label string
	err := s.pool.QueryRow(ctx, `
		SELECT label FROM subscriptions WHERE chat_id = $1 AND address = $2
	`, chatID, address).Scan(&label)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("label lookup: %w", err)
	}
	return label, true, nil
}
