package quiz

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nur1slam20/tg-profession-bot/internal/domain"
	"github.com/nur1slam20/tg-profession-bot/internal/storage"
)

type fakeStore struct {
	questions   []*domain.Question
	answers     map[int64]*domain.Answer
	professions map[string]*domain.Profession

	nextSessionID int64
	created       []*domain.TestSession
	recorded      []domain.RecordedAnswer
	finished      map[int64]string
	recent        []domain.TestSession
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		answers:       make(map[int64]*domain.Answer),
		professions:   make(map[string]*domain.Profession),
		finished:      make(map[int64]string),
		nextSessionID: 1,
	}
}

func (f *fakeStore) addQuestion(ord int, text string, answers ...*domain.Answer) {
	q := &domain.Question{ID: int64(ord), Ord: ord, Text: text}
	for _, a := range answers {
		a.QuestionID = q.ID
		q.Answers = append(q.Answers, *a)
		f.answers[a.ID] = a
	}
	f.questions = append(f.questions, q)
}

func (f *fakeStore) FirstQuestion(ctx context.Context) (*domain.Question, error) {
	if len(f.questions) == 0 {
		return nil, storage.ErrNotFound
	}
	return f.questions[0], nil
}

func (f *fakeStore) QuestionAfter(ctx context.Context, ord int) (*domain.Question, error) {
	for _, q := range f.questions {
		if q.Ord > ord {
			return q, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) AnswerByID(ctx context.Context, id int64) (*domain.Answer, error) {
	a, ok := f.answers[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) ProfessionByCode(ctx context.Context, code string) (*domain.Profession, error) {
	p, ok := f.professions[code]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) CreateSession(ctx context.Context, userID int64) (*domain.TestSession, error) {
	s := &domain.TestSession{ID: f.nextSessionID, UserID: userID, StartedAt: time.Now()}
	f.nextSessionID++
	f.created = append(f.created, s)
	return s, nil
}

func (f *fakeStore) RecordAnswer(ctx context.Context, sessionID, questionID, answerID int64) error {
	f.recorded = append(f.recorded, domain.RecordedAnswer{SessionID: sessionID, QuestionID: questionID, AnswerID: answerID})
	return nil
}

func (f *fakeStore) FinishSession(ctx context.Context, sessionID int64, resultCode string) error {
	f.finished[sessionID] = resultCode
	return nil
}

func (f *fakeStore) RecentSessions(ctx context.Context, userID int64, limit int) ([]domain.TestSession, error) {
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func seedFiveQuestionCatalog(f *fakeStore) {
	codes := []string{"DataAnalyst", "BackendDev", "FrontendDev", "PM"}
	for i, code := range codes {
		f.professions[code] = &domain.Profession{ID: int64(i + 1), Code: code, Title: code + " title"}
	}
	answerID := int64(1)
	for ord := 1; ord <= 5; ord++ {
		var answers []*domain.Answer
		for _, code := range codes {
			answers = append(answers, &domain.Answer{
				ID:      answerID,
				Text:    code + " option",
				Weights: domain.WeightMap{code: 2},
			})
			answerID++
		}
		f.addQuestion(ord, "question", answers...)
	}
}

func analystAnswerID(f *fakeStore, ord int) int64 {
	for _, q := range f.questions {
		if q.Ord != ord {
			continue
		}
		for _, a := range q.Answers {
			if a.Weights["DataAnalyst"] > 0 {
				return a.ID
			}
		}
	}
	return 0
}

func TestStartEmptyCatalog(t *testing.T) {
	f := newFakeStore()
	coord := NewCoordinator(f, f)

	_, err := coord.Start(context.Background(), 1)
	require.ErrorIs(t, err, ErrEmptyCatalog)
	assert.Empty(t, f.created, "no session may be created when the catalog is empty")
}

func TestStartReturnsFirstQuestion(t *testing.T) {
	f := newFakeStore()
	seedFiveQuestionCatalog(f)
	coord := NewCoordinator(f, f)

	res, err := coord.Start(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Question.Ord)
	assert.Len(t, res.Question.Answers, 4)
	assert.Equal(t, int64(42), res.Session.UserID)
}

func TestFullRunDataAnalyst(t *testing.T) {
	f := newFakeStore()
	seedFiveQuestionCatalog(f)
	coord := NewCoordinator(f, f)
	ctx := context.Background()

	res, err := coord.Start(ctx, 42)
	require.NoError(t, err)

	board := NewScoreBoard()
	ord := res.Question.Ord
	var adv *AdvanceResult
	for {
		adv, err = coord.Advance(ctx, res.Session.ID, ord, analystAnswerID(f, ord), board)
		require.NoError(t, err)
		if adv.Finished() {
			break
		}
		ord = adv.Next.Ord
	}

	require.NotNil(t, adv.Outcome)
	assert.Equal(t, "DataAnalyst", adv.Outcome.Code)
	assert.Equal(t, 10, adv.Outcome.Totals["DataAnalyst"])
	require.NotNil(t, adv.Outcome.Profession)
	assert.Equal(t, "DataAnalyst title", adv.Outcome.Profession.Title)

	assert.Len(t, f.recorded, 5, "one recorded answer per question")
	assert.Equal(t, "DataAnalyst", f.finished[res.Session.ID])
}

func TestAdvanceUnknownAnswer(t *testing.T) {
	f := newFakeStore()
	seedFiveQuestionCatalog(f)
	coord := NewCoordinator(f, f)

	board := NewScoreBoard()
	_, err := coord.Advance(context.Background(), 1, 1, 999999, board)
	require.ErrorIs(t, err, ErrUnknownAnswer)
	assert.Empty(t, f.recorded, "unknown selections must not mutate the store")
	_, ok := board.Best()
	assert.False(t, ok)
}

func TestFinishWithoutScores(t *testing.T) {
	f := newFakeStore()
	f.addQuestion(1, "only question", &domain.Answer{ID: 1, Text: "neutral", Weights: domain.WeightMap{}})
	coord := NewCoordinator(f, f)

	board := NewScoreBoard()
	adv, err := coord.Advance(context.Background(), 7, 1, 1, board)
	require.NoError(t, err)
	require.True(t, adv.Finished())
	assert.Empty(t, adv.Outcome.Code)
	assert.Nil(t, adv.Outcome.Profession)
	assert.Equal(t, "", f.finished[7])
}

func TestHistoryTitles(t *testing.T) {
	f := newFakeStore()
	f.professions["PM"] = &domain.Profession{Code: "PM", Title: "Проектный менеджер"}
	now := time.Now()
	f.recent = []domain.TestSession{
		{
			ID: 3, StartedAt: now,
			FinishedAt:       sql.NullTime{Time: now, Valid: true},
			ResultProfession: sql.NullString{String: "PM", Valid: true},
		},
		{
			ID: 2, StartedAt: now.Add(-time.Hour),
			FinishedAt:       sql.NullTime{Time: now, Valid: true},
			ResultProfession: sql.NullString{String: "GameDev", Valid: true},
		},
		{
			ID: 1, StartedAt: now.Add(-2 * time.Hour),
		},
	}
	coord := NewCoordinator(f, f)

	entries, err := coord.History(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "Проектный менеджер", entries[0].ResultTitle)
	assert.True(t, entries[0].Finished)
	assert.Equal(t, "GameDev", entries[1].ResultTitle, "unknown codes fall back to the raw code")
	assert.Empty(t, entries[2].ResultTitle)
	assert.False(t, entries[2].Finished)
}

func TestHistoryLimit(t *testing.T) {
	f := newFakeStore()
	for i := 0; i < 15; i++ {
		f.recent = append(f.recent, domain.TestSession{ID: int64(i + 1), StartedAt: time.Now()})
	}
	coord := NewCoordinator(f, f)

	entries, err := coord.History(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, entries, HistoryLimit)
}
