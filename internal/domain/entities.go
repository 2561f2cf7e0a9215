package domain

import (
	"database/sql"
	"time"
)

// User is a registered quiz participant keyed by Telegram account ID.
type User struct {
	ID         int64     `db:"id"`
	TelegramID int64     `db:"telegram_id"`
	FirstName  string    `db:"first_name"`
	LastName   string    `db:"last_name"`
	Phone      string    `db:"phone"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Profession is an immutable catalog entry describing a quiz outcome.
type Profession struct {
	ID          int64  `db:"id"`
	Code        string `db:"code"`
	Title       string `db:"title"`
	Description string `db:"description"`
}

// Question is an ordered quiz prompt. Ord is 1-based and unique.
type Question struct {
	ID      int64  `db:"id"`
	Ord     int    `db:"ord"`
	Text    string `db:"text"`
	Answers []Answer
}

// Answer belongs to exactly one question and carries per-profession weights.
type Answer struct {
	ID         int64     `db:"id"`
	QuestionID int64     `db:"question_id"`
	Text       string    `db:"text"`
	Weights    WeightMap `db:"weights"`
}

// TestSession is one quiz attempt by one user.
type TestSession struct {
	ID               int64          `db:"id"`
	UserID           int64          `db:"user_id"`
	StartedAt        time.Time      `db:"started_at"`
	FinishedAt       sql.NullTime   `db:"finished_at"`
	ResultProfession sql.NullString `db:"result_profession"`
}

// Finished reports whether the session reached the last question.
func (s TestSession) Finished() bool {
	return s.FinishedAt.Valid
}

// RecordedAnswer is an append-only join row linking a session to a chosen answer.
type RecordedAnswer struct {
	ID         int64     `db:"id"`
	SessionID  int64     `db:"session_id"`
	QuestionID int64     `db:"question_id"`
	AnswerID   int64     `db:"answer_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// HistoryEntry is a session annotated with a human-readable result title.
type HistoryEntry struct {
	StartedAt   time.Time
	Finished    bool
	ResultTitle string
}

// Stats aggregates store counts for the reporting endpoint.
type Stats struct {
	Users            int `json:"users"`
	Sessions         int `json:"sessions"`
	FinishedSessions int `json:"finishedSessions"`
	CompletionRate   int `json:"completionRate"`
}
