package storage

import (
	"context"
	"fmt"
)

// Counts returns aggregate totals for the stats endpoint.
func (s *Store) Counts(ctx context.Context) (users, sessions, finished int, err error) {
	const query = `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM test_sessions),
			(SELECT count(*) FROM test_sessions WHERE finished_at IS NOT NULL)`

	if err = s.db.QueryRowContext(ctx, query).Scan(&users, &sessions, &finished); err != nil {
		return 0, 0, 0, fmt.Errorf("stats counts: %w", err)
	}
	return users, sessions, finished, nil
}
