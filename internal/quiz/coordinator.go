package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nur1slam20/tg-profession-bot/core/logger"
	"github.com/nur1slam20/tg-profession-bot/internal/domain"
	"github.com/nur1slam20/tg-profession-bot/internal/storage"
)

var (
	// ErrEmptyCatalog indicates a quiz start with no seeded questions.
	ErrEmptyCatalog = errors.New("quiz: question catalog is empty")
	// ErrUnknownAnswer indicates a selection referencing a nonexistent answer.
	ErrUnknownAnswer = errors.New("quiz: unknown answer id")
)

// HistoryLimit caps the number of sessions returned by History.
const HistoryLimit = 10

// Catalog reads the immutable question and profession catalog.
type Catalog interface {
	FirstQuestion(ctx context.Context) (*domain.Question, error)
	QuestionAfter(ctx context.Context, ord int) (*domain.Question, error)
	AnswerByID(ctx context.Context, id int64) (*domain.Answer, error)
	ProfessionByCode(ctx context.Context, code string) (*domain.Profession, error)
}

// Sessions persists quiz attempts and their recorded answers.
type Sessions interface {
	CreateSession(ctx context.Context, userID int64) (*domain.TestSession, error)
	RecordAnswer(ctx context.Context, sessionID, questionID, answerID int64) error
	FinishSession(ctx context.Context, sessionID int64, resultCode string) error
	RecentSessions(ctx context.Context, userID int64, limit int) ([]domain.TestSession, error)
}

// Coordinator orchestrates quiz session lifecycle over the data store.
// It is stateless; the conversation layer owns the per-user cursor.
type Coordinator struct {
	catalog  Catalog
	sessions Sessions
}

// NewCoordinator wires a coordinator over catalog and session storage.
func NewCoordinator(catalog Catalog, sessions Sessions) *Coordinator {
	return &Coordinator{catalog: catalog, sessions: sessions}
}

// StartResult carries the opened session and the first question to present.
type StartResult struct {
	Session  *domain.TestSession
	Question *domain.Question
}

// Start opens a session for a registered user and returns the first question.
// The catalog is checked before the session row is created so an empty
// catalog never leaves an orphan session behind.
func (c *Coordinator) Start(ctx context.Context, userID int64) (*StartResult, error) {
	first, err := c.catalog.FirstQuestion(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrEmptyCatalog
		}
		return nil, fmt.Errorf("quiz start: %w", err)
	}

	session, err := c.sessions.CreateSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("quiz start: %w", err)
	}

	logger.SVCQuiz.LogAttrs(ctx, slog.LevelInfo, "quiz.start",
		slog.String("status", "ok"),
		slog.Int64("session_id", session.ID),
		slog.Int64("user_id", userID),
		slog.Int("question_ord", first.Ord),
	)
	return &StartResult{Session: session, Question: first}, nil
}

// Outcome is the final recommendation of a finished session.
// Profession is nil when the code is absent from the catalog, and Code is
// empty when no positive score was accumulated.
type Outcome struct {
	Code       string
	Profession *domain.Profession
	Totals     map[string]int
}

// AdvanceResult is the effect of recording one answer: either the next
// question to present or, on the last question, the final outcome.
type AdvanceResult struct {
	Next    *domain.Question
	Outcome *Outcome
}

// Finished reports whether the session completed on this advance.
func (r *AdvanceResult) Finished() bool {
	return r.Outcome != nil
}

// Advance records the chosen answer, merges its weights into the board, and
// moves the session to the next question or finalizes it.
func (c *Coordinator) Advance(ctx context.Context, sessionID int64, currentOrd int, answerID int64, board *ScoreBoard) (*AdvanceResult, error) {
	answer, err := c.catalog.AnswerByID(ctx, answerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnknownAnswer
		}
		return nil, fmt.Errorf("quiz advance: %w", err)
	}

	if err := c.sessions.RecordAnswer(ctx, sessionID, answer.QuestionID, answer.ID); err != nil {
		return nil, fmt.Errorf("quiz advance: %w", err)
	}
	board.Add(answer.Weights)

	next, err := c.catalog.QuestionAfter(ctx, currentOrd)
	if err == nil {
		logger.SVCQuiz.LogAttrs(ctx, slog.LevelDebug, "quiz.advance",
			slog.String("status", "ok"),
			slog.Int64("session_id", sessionID),
			slog.Int64("answer_id", answerID),
			slog.Int("question_ord", next.Ord),
		)
		return &AdvanceResult{Next: next}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("quiz advance: %w", err)
	}

	return c.finish(ctx, sessionID, board)
}

func (c *Coordinator) finish(ctx context.Context, sessionID int64, board *ScoreBoard) (*AdvanceResult, error) {
	code, _ := board.Best()
	if err := c.sessions.FinishSession(ctx, sessionID, code); err != nil {
		return nil, fmt.Errorf("quiz finish: %w", err)
	}

	outcome := &Outcome{Code: code, Totals: board.Totals()}
	if code != "" {
		prof, err := c.catalog.ProfessionByCode(ctx, code)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("quiz finish: %w", err)
		}
		outcome.Profession = prof
	}

	logger.SVCQuiz.LogAttrs(ctx, slog.LevelInfo, "quiz.finish",
		slog.String("status", "ok"),
		slog.Int64("session_id", sessionID),
		slog.String("profession", code),
	)
	return &AdvanceResult{Outcome: outcome}, nil
}

// History returns up to HistoryLimit recent sessions for a user, newest
// first. ResultTitle carries the profession title, falling back to the raw
// code; it is empty when the session has no determined result.
func (c *Coordinator) History(ctx context.Context, userID int64) ([]domain.HistoryEntry, error) {
	sessions, err := c.sessions.RecentSessions(ctx, userID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("quiz history: %w", err)
	}

	entries := make([]domain.HistoryEntry, 0, len(sessions))
	for _, s := range sessions {
		entry := domain.HistoryEntry{
			StartedAt: s.StartedAt,
			Finished:  s.Finished(),
		}
		if s.ResultProfession.Valid && s.ResultProfession.String != "" {
			code := s.ResultProfession.String
			entry.ResultTitle = code
			if prof, err := c.catalog.ProfessionByCode(ctx, code); err == nil && prof != nil {
				entry.ResultTitle = prof.Title
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
