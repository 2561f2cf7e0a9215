package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nur1slam20/tg-profession-bot/core/logger"
	"github.com/nur1slam20/tg-profession-bot/internal/domain"
)

// CreateSession opens a new quiz attempt for a user.
func (s *Store) CreateSession(ctx context.Context, userID int64) (*domain.TestSession, error) {
	const query = `
		INSERT INTO test_sessions (user_id, started_at)
		VALUES ($1, now())
		RETURNING id, user_id, started_at, finished_at, result_profession`

	var session domain.TestSession
	if err := s.db.GetContext(ctx, &session, query, userID); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	logger.DB.LogAttrs(ctx, slog.LevelDebug, "session.create",
		slog.String("status", "ok"),
		slog.Int64("session_id", session.ID),
		slog.Int64("user_id", userID),
	)
	return &session, nil
}

// RecordAnswer appends a chosen answer to a session.
func (s *Store) RecordAnswer(ctx context.Context, sessionID, questionID, answerID int64) error {
	const query = `
		INSERT INTO recorded_answers (session_id, question_id, answer_id, created_at)
		VALUES ($1, $2, $3, now())`

	if _, err := s.db.ExecContext(ctx, query, sessionID, questionID, answerID); err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	return nil
}

// FinishSession stamps completion time and the result profession code.
// The result is written once; a finished session is never updated again.
func (s *Store) FinishSession(ctx context.Context, sessionID int64, resultCode string) error {
	const query = `
		UPDATE test_sessions
		SET finished_at = now(), result_profession = NULLIF($2, '')
		WHERE id = $1 AND finished_at IS NULL`

	res, err := s.db.ExecContext(ctx, query, sessionID, resultCode)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		logger.DB.LogAttrs(ctx, slog.LevelWarn, "session.finish.noop",
			slog.Int64("session_id", sessionID),
		)
	}
	return nil
}

// RecentSessions returns up to limit sessions for a user, newest first.
func (s *Store) RecentSessions(ctx context.Context, userID int64, limit int) ([]domain.TestSession, error) {
	const query = `
		SELECT id, user_id, started_at, finished_at, result_profession
		FROM test_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2`

	var sessions []domain.TestSession
	if err := s.db.SelectContext(ctx, &sessions, query, userID, limit); err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	return sessions, nil
}
