package storage

import (
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("storage: not found")

// Store provides Postgres-backed persistence for users, the quiz catalog,
// sessions, and recorded answers.
type Store struct {
	db *sqlx.DB
}

// New wraps an established database connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}
