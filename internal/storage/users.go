package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nur1slam20/tg-profession-bot/core/logger"
	"github.com/nur1slam20/tg-profession-bot/internal/domain"
)

// UpsertUser creates or updates a user keyed by Telegram ID.
// Re-registration overwrites prior name and phone fields.
func (s *Store) UpsertUser(ctx context.Context, telegramID int64, firstName, lastName, phone string) (*domain.User, error) {
	const query = `
		INSERT INTO users (telegram_id, first_name, last_name, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (telegram_id) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name  = EXCLUDED.last_name,
		    phone      = EXCLUDED.phone,
		    updated_at = now()
		RETURNING id, telegram_id, first_name, last_name, phone, created_at, updated_at`

	var user domain.User
	if err := s.db.GetContext(ctx, &user, query, telegramID, firstName, lastName, phone); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	logger.DB.LogAttrs(ctx, slog.LevelDebug, "user.upsert",
		slog.String("status", "ok"),
		slog.Int64("user_id", user.ID),
		slog.Int64("chat_id", telegramID),
	)
	return &user, nil
}

// UserByTelegramID returns the user registered under the given Telegram ID.
func (s *Store) UserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	const query = `
		SELECT id, telegram_id, first_name, last_name, phone, created_at, updated_at
		FROM users WHERE telegram_id = $1`

	var user domain.User
	if err := s.db.GetContext(ctx, &user, query, telegramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	return &user, nil
}
