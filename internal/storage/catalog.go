package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nur1slam20/tg-profession-bot/internal/domain"
)

// FirstQuestion returns the question with the smallest order, with its answers.
func (s *Store) FirstQuestion(ctx context.Context) (*domain.Question, error) {
	const query = `
		SELECT id, ord, text FROM questions
		ORDER BY ord ASC LIMIT 1`
	return s.questionWithAnswers(ctx, query)
}

// QuestionAfter returns the question with the smallest order strictly greater
// than the given position, or ErrNotFound when the quiz is exhausted.
func (s *Store) QuestionAfter(ctx context.Context, ord int) (*domain.Question, error) {
	const query = `
		SELECT id, ord, text FROM questions
		WHERE ord > $1
		ORDER BY ord ASC LIMIT 1`
	return s.questionWithAnswers(ctx, query, ord)
}

func (s *Store) questionWithAnswers(ctx context.Context, query string, args ...interface{}) (*domain.Question, error) {
	var q domain.Question
	if err := s.db.GetContext(ctx, &q, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}

	const answersQuery = `
		SELECT id, question_id, text, weights FROM answers
		WHERE question_id = $1
		ORDER BY id ASC`
	if err := s.db.SelectContext(ctx, &q.Answers, answersQuery, q.ID); err != nil {
		return nil, fmt.Errorf("get answers: %w", err)
	}
	return &q, nil
}

// AnswerByID returns an answer by its primary key.
func (s *Store) AnswerByID(ctx context.Context, id int64) (*domain.Answer, error) {
	const query = `SELECT id, question_id, text, weights FROM answers WHERE id = $1`

	var answer domain.Answer
	if err := s.db.GetContext(ctx, &answer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get answer: %w", err)
	}
	return &answer, nil
}

// ProfessionByCode returns a profession catalog entry by its unique code.
func (s *Store) ProfessionByCode(ctx context.Context, code string) (*domain.Profession, error) {
	const query = `SELECT id, code, title, description FROM professions WHERE code = $1`

	var prof domain.Profession
	if err := s.db.GetContext(ctx, &prof, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profession: %w", err)
	}
	return &prof, nil
}
