package bot

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tgstate "github.com/nur1slam20/tg-profession-bot/core/telegram/state"
	"github.com/nur1slam20/tg-profession-bot/internal/domain"
	"github.com/nur1slam20/tg-profession-bot/internal/storage"
)

// fakeContext implements the slice of tele.Context the handlers touch.
// Unused methods panic via the embedded nil interface.
type fakeContext struct {
	tele.Context

	sender  *tele.User
	message *tele.Message
	values  map[string]interface{}

	sent   []string
	edited []string
}

func newFakeContext(userID int64, text string) *fakeContext {
	return &fakeContext{
		sender:  &tele.User{ID: userID},
		message: &tele.Message{Text: text},
		values:  make(map[string]interface{}),
	}
}

func newContactContext(userID int64, phone string) *fakeContext {
	c := newFakeContext(userID, "")
	c.message.Contact = &tele.Contact{PhoneNumber: phone}
	return c
}

func (c *fakeContext) Sender() *tele.User      { return c.sender }
func (c *fakeContext) Message() *tele.Message  { return c.message }
func (c *fakeContext) Chat() *tele.Chat        { return &tele.Chat{ID: c.sender.ID} }
func (c *fakeContext) Text() string            { return c.message.Text }
func (c *fakeContext) Update() tele.Update     { return tele.Update{ID: 1, Message: c.message} }
func (c *fakeContext) Callback() *tele.Callback {
	return &tele.Callback{Sender: c.sender, Data: c.message.Text}
}
func (c *fakeContext) Respond(...*tele.CallbackResponse) error { return nil }

func (c *fakeContext) Get(key string) interface{} { return c.values[key] }
func (c *fakeContext) Set(key string, v interface{}) {
	c.values[key] = v
}

func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		c.sent = append(c.sent, s)
	}
	return nil
}

func (c *fakeContext) EditOrSend(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		c.edited = append(c.edited, s)
	}
	return nil
}

func (c *fakeContext) lastSent() string {
	if len(c.sent) == 0 {
		return ""
	}
	return c.sent[len(c.sent)-1]
}

// fakeBackend implements userStore, quiz.Catalog, quiz.Sessions, and
// stats.Counter over in-memory maps.
type fakeBackend struct {
	users       map[int64]*domain.User
	questions   []*domain.Question
	answers     map[int64]*domain.Answer
	professions map[string]*domain.Profession

	nextUserID    int64
	nextSessionID int64
	sessions      []*domain.TestSession
	recorded      []domain.RecordedAnswer
	finished      map[int64]string

	// usersErr simulates a store outage on user lookups.
	usersErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users:         make(map[int64]*domain.User),
		answers:       make(map[int64]*domain.Answer),
		professions:   make(map[string]*domain.Profession),
		finished:      make(map[int64]string),
		nextUserID:    1,
		nextSessionID: 1,
	}
}

func (f *fakeBackend) UpsertUser(ctx context.Context, telegramID int64, firstName, lastName, phone string) (*domain.User, error) {
	u, ok := f.users[telegramID]
	if !ok {
		u = &domain.User{ID: f.nextUserID, TelegramID: telegramID}
		f.nextUserID++
		f.users[telegramID] = u
	}
	u.FirstName, u.LastName, u.Phone = firstName, lastName, phone
	return u, nil
}

func (f *fakeBackend) UserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	u, ok := f.users[telegramID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeBackend) FirstQuestion(ctx context.Context) (*domain.Question, error) {
	if len(f.questions) == 0 {
		return nil, storage.ErrNotFound
	}
	return f.questions[0], nil
}

func (f *fakeBackend) QuestionAfter(ctx context.Context, ord int) (*domain.Question, error) {
	for _, q := range f.questions {
		if q.Ord > ord {
			return q, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeBackend) AnswerByID(ctx context.Context, id int64) (*domain.Answer, error) {
	a, ok := f.answers[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return a, nil
}

func (f *fakeBackend) ProfessionByCode(ctx context.Context, code string) (*domain.Profession, error) {
	p, ok := f.professions[code]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeBackend) CreateSession(ctx context.Context, userID int64) (*domain.TestSession, error) {
	s := &domain.TestSession{ID: f.nextSessionID, UserID: userID, StartedAt: time.Now()}
	f.nextSessionID++
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeBackend) RecordAnswer(ctx context.Context, sessionID, questionID, answerID int64) error {
	f.recorded = append(f.recorded, domain.RecordedAnswer{SessionID: sessionID, QuestionID: questionID, AnswerID: answerID})
	return nil
}

func (f *fakeBackend) FinishSession(ctx context.Context, sessionID int64, resultCode string) error {
	f.finished[sessionID] = resultCode
	return nil
}

func (f *fakeBackend) RecentSessions(ctx context.Context, userID int64, limit int) ([]domain.TestSession, error) {
	var out []domain.TestSession
	for i := len(f.sessions) - 1; i >= 0 && len(out) < limit; i-- {
		if f.sessions[i].UserID == userID {
			out = append(out, *f.sessions[i])
		}
	}
	return out, nil
}

func (f *fakeBackend) Counts(ctx context.Context) (int, int, int, error) {
	return len(f.users), len(f.sessions), len(f.finished), nil
}

func (f *fakeBackend) seedCatalog(questionCount int) {
	codes := []string{"DataAnalyst", "BackendDev"}
	for _, code := range codes {
		f.professions[code] = &domain.Profession{Code: code, Title: "Титул " + code, Description: "Описание"}
	}
	answerID := int64(1)
	for ord := 1; ord <= questionCount; ord++ {
		q := &domain.Question{ID: int64(ord), Ord: ord, Text: "Вопрос"}
		for _, code := range codes {
			a := domain.Answer{ID: answerID, QuestionID: q.ID, Text: code, Weights: domain.WeightMap{code: 2}}
			q.Answers = append(q.Answers, a)
			f.answers[answerID] = &a
			answerID++
		}
		f.questions = append(f.questions, q)
	}
}

func testConfig() *Config {
	cfg := &Config{}
	cfg.Core.Dialog.MinNameLen = 2
	cfg.Core.Dialog.MinPhoneLen = 10
	return cfg
}

func newTestApp(f *fakeBackend) *App {
	return newApp(testConfig(), f, f, f, f)
}

func answerFor(f *fakeBackend, ord int, code string) int64 {
	for _, q := range f.questions {
		if q.Ord != ord {
			continue
		}
		for _, a := range q.Answers {
			if a.Weights[code] > 0 {
				return a.ID
			}
		}
	}
	return 0
}

const testUserID int64 = 100

func register(t *testing.T, app *App, backend *fakeBackend) {
	t.Helper()
	require.NoError(t, app.handleStart(newFakeContext(testUserID, "/start")))
	require.NoError(t, app.handleFirstName(newFakeContext(testUserID, "Иван")))
	require.NoError(t, app.handleLastName(newFakeContext(testUserID, "Петров")))
	require.NoError(t, app.handlePhone(newFakeContext(testUserID, "+70001112233")))
	require.Contains(t, backend.users, testUserID)
}

func TestRegistrationFlow(t *testing.T) {
	backend := newFakeBackend()
	app := newTestApp(backend)

	c := newFakeContext(testUserID, "/start")
	require.NoError(t, app.handleStart(c))
	assert.Equal(t, app.texts.askFirstName, c.lastSent())
	assert.Equal(t, tgstate.StateAwaitingFirstName, app.fsm.GetState(testUserID))

	// Too-short first name is re-prompted without advancing.
	c = newFakeContext(testUserID, "И")
	require.NoError(t, app.handleFirstName(c))
	assert.Equal(t, app.texts.invalidFirstName, c.lastSent())
	assert.Equal(t, tgstate.StateAwaitingFirstName, app.fsm.GetState(testUserID))

	c = newFakeContext(testUserID, "  Иван  ")
	require.NoError(t, app.handleFirstName(c))
	assert.Equal(t, tgstate.StateAwaitingLastName, app.fsm.GetState(testUserID))

	c = newFakeContext(testUserID, "Петров")
	require.NoError(t, app.handleLastName(c))
	assert.Equal(t, tgstate.StateAwaitingPhone, app.fsm.GetState(testUserID))

	// Too-short phone is re-prompted.
	c = newFakeContext(testUserID, "12345")
	require.NoError(t, app.handlePhone(c))
	assert.Equal(t, app.texts.invalidPhone, c.lastSent())
	assert.NotContains(t, backend.users, testUserID)

	c = newFakeContext(testUserID, "+70001112233")
	require.NoError(t, app.handlePhone(c))
	assert.Equal(t, tgstate.StateIdle, app.fsm.GetState(testUserID))

	user := backend.users[testUserID]
	require.NotNil(t, user)
	assert.Equal(t, "Иван", user.FirstName)
	assert.Equal(t, "Петров", user.LastName)
	assert.Equal(t, "+70001112233", user.Phone)
}

func TestRegistrationViaContactShare(t *testing.T) {
	backend := newFakeBackend()
	app := newTestApp(backend)

	require.NoError(t, app.handleStart(newFakeContext(testUserID, "/start")))
	require.NoError(t, app.handleFirstName(newFakeContext(testUserID, "Анна")))
	require.NoError(t, app.handleLastName(newFakeContext(testUserID, "Сидорова")))

	// Shared contacts are accepted regardless of the text length rule.
	require.NoError(t, app.handlePhone(newContactContext(testUserID, "+7911")))

	user := backend.users[testUserID]
	require.NotNil(t, user)
	assert.Equal(t, "+7911", user.Phone)
	assert.Equal(t, tgstate.StateIdle, app.fsm.GetState(testUserID))
}

func TestReRegistrationOverwrites(t *testing.T) {
	backend := newFakeBackend()
	app := newTestApp(backend)
	register(t, app, backend)

	require.NoError(t, app.handleStart(newFakeContext(testUserID, "/start")))
	require.NoError(t, app.handleFirstName(newFakeContext(testUserID, "Пётр")))
	require.NoError(t, app.handleLastName(newFakeContext(testUserID, "Иванов")))
	require.NoError(t, app.handlePhone(newFakeContext(testUserID, "+79998887766")))

	user := backend.users[testUserID]
	assert.Equal(t, "Пётр", user.FirstName)
	assert.Equal(t, "+79998887766", user.Phone)
	assert.Equal(t, int64(1), user.ID, "upsert must not create a second user")
}

func TestQuizRequiresRegistration(t *testing.T) {
	backend := newFakeBackend()
	backend.seedCatalog(3)
	app := newTestApp(backend)

	c := newFakeContext(testUserID, "/test")
	require.NoError(t, app.handleTest(c))

	assert.Empty(t, backend.sessions, "no session may be created for unregistered users")
	assert.Equal(t, tgstate.StateAwaitingFirstName, app.fsm.GetState(testUserID))
	assert.Equal(t, app.texts.needRegistration, c.lastSent())
}

func TestQuizEmptyCatalog(t *testing.T) {
	backend := newFakeBackend()
	app := newTestApp(backend)
	register(t, app, backend)

	c := newFakeContext(testUserID, "/test")
	require.NoError(t, app.handleTest(c))

	assert.Empty(t, backend.sessions)
	assert.Equal(t, app.texts.emptyCatalog, c.lastSent())
	assert.Equal(t, tgstate.StateIdle, app.fsm.GetState(testUserID))
}

func callbackContext(answerID int64) *fakeContext {
	return newFakeContext(testUserID, "\fans|"+strconv.FormatInt(answerID, 10))
}

func TestFullQuizRun(t *testing.T) {
	backend := newFakeBackend()
	backend.seedCatalog(3)
	app := newTestApp(backend)
	register(t, app, backend)

	c := newFakeContext(testUserID, "/test")
	require.NoError(t, app.handleTest(c))
	require.Len(t, backend.sessions, 1)
	assert.Equal(t, tgstate.StateInQuiz, app.fsm.GetState(testUserID))
	assert.Contains(t, c.lastSent(), "Вопрос 1:")

	for ord := 1; ord <= 3; ord++ {
		cb := callbackContext(answerFor(backend, ord, "DataAnalyst"))
		require.NoError(t, app.handleAnswer(cb))
		if ord < 3 {
			require.Len(t, cb.edited, 1, "question %d must edit in place", ord)
		}
	}

	assert.Len(t, backend.recorded, 3)
	assert.Equal(t, "DataAnalyst", backend.finished[backend.sessions[0].ID])
	assert.Equal(t, tgstate.StateIdle, app.fsm.GetState(testUserID))
}

func TestStoreFailureSendsGenericReply(t *testing.T) {
	backend := newFakeBackend()
	backend.seedCatalog(1)
	backend.usersErr = errors.New("dial tcp: connection refused")
	app := newTestApp(backend)

	c := newFakeContext(testUserID, "/test")
	err := app.withErrorReply(app.handleTest)(c)
	require.Error(t, err)
	assert.Equal(t, app.texts.transientError, c.lastSent())
	assert.Empty(t, backend.sessions)
}

func TestTestCommandDropsUnfinishedDialogue(t *testing.T) {
	backend := newFakeBackend()
	backend.seedCatalog(1)
	app := newTestApp(backend)
	register(t, app, backend)

	// Restart registration, stop halfway, then jump straight to the quiz.
	require.NoError(t, app.handleStart(newFakeContext(testUserID, "/start")))
	require.NoError(t, app.handleFirstName(newFakeContext(testUserID, "Олег")))

	require.NoError(t, app.handleTest(newFakeContext(testUserID, "/test")))
	assert.Equal(t, tgstate.StateInQuiz, app.fsm.GetState(testUserID))
	_, ok := app.fsm.GetTempString(testUserID, regFirstNameKey)
	assert.False(t, ok, "stale registration temps must not survive into the quiz")
}

func TestAnswerWithoutQuizStateIsNoop(t *testing.T) {
	backend := newFakeBackend()
	backend.seedCatalog(1)
	app := newTestApp(backend)

	cb := callbackContext(1)
	require.NoError(t, app.handleAnswer(cb))
	assert.Empty(t, backend.recorded)
	assert.Empty(t, cb.edited)
	assert.Empty(t, cb.sent)
}

func TestUnknownAnswerIsNoop(t *testing.T) {
	backend := newFakeBackend()
	backend.seedCatalog(2)
	app := newTestApp(backend)
	register(t, app, backend)
	require.NoError(t, app.handleTest(newFakeContext(testUserID, "/test")))

	cb := callbackContext(999999)
	require.NoError(t, app.handleAnswer(cb))
	assert.Empty(t, backend.recorded)
	assert.Equal(t, tgstate.StateInQuiz, app.fsm.GetState(testUserID), "quiz stays active after an invalid selection")
}

func TestHistoryBeforeRegistration(t *testing.T) {
	backend := newFakeBackend()
	app := newTestApp(backend)

	c := newFakeContext(testUserID, "/history")
	require.NoError(t, app.handleHistory(c))
	assert.Equal(t, app.texts.historyRegistration, c.lastSent())
}

func TestHistoryAfterQuiz(t *testing.T) {
	backend := newFakeBackend()
	backend.seedCatalog(2)
	app := newTestApp(backend)
	register(t, app, backend)

	require.NoError(t, app.handleTest(newFakeContext(testUserID, "/test")))
	for ord := 1; ord <= 2; ord++ {
		require.NoError(t, app.handleAnswer(callbackContext(answerFor(backend, ord, "BackendDev"))))
	}
	// The fake never stamps result codes onto rows; emulate the store.
	backend.sessions[0].FinishedAt.Valid = true
	backend.sessions[0].FinishedAt.Time = time.Now()
	backend.sessions[0].ResultProfession.Valid = true
	backend.sessions[0].ResultProfession.String = backend.finished[backend.sessions[0].ID]

	c := newFakeContext(testUserID, "/history")
	require.NoError(t, app.handleHistory(c))
	assert.Contains(t, c.lastSent(), app.texts.historyHeader)
	assert.Contains(t, c.lastSent(), "Титул BackendDev")
}

func TestIdleTextHint(t *testing.T) {
	backend := newFakeBackend()
	app := newTestApp(backend)

	c := newFakeContext(testUserID, "привет")
	require.NoError(t, app.handleIdleText(c))
	assert.Equal(t, app.texts.idleHint, c.lastSent())
}

func TestAdminStatsMessage(t *testing.T) {
	backend := newFakeBackend()
	backend.seedCatalog(1)
	app := newTestApp(backend)
	register(t, app, backend)
	require.NoError(t, app.handleTest(newFakeContext(testUserID, "/test")))
	require.NoError(t, app.handleAnswer(callbackContext(answerFor(backend, 1, "DataAnalyst"))))

	c := newFakeContext(testUserID, "/stats")
	require.NoError(t, app.handleStats(c))
	assert.Contains(t, c.lastSent(), "Пользователи: 1")
	assert.Contains(t, c.lastSent(), "Сессии: 1")
	assert.Contains(t, c.lastSent(), "100%")
}

func TestRelaxedDialogAcceptsShortInput(t *testing.T) {
	backend := newFakeBackend()
	cfg := testConfig()
	cfg.Core.Dialog.Relaxed = true
	app := newApp(cfg, backend, backend, backend, backend)

	require.NoError(t, app.handleStart(newFakeContext(testUserID, "/start")))
	require.NoError(t, app.handleFirstName(newFakeContext(testUserID, "И")))
	assert.Equal(t, tgstate.StateAwaitingLastName, app.fsm.GetState(testUserID))

	require.NoError(t, app.handleLastName(newFakeContext(testUserID, "П")))
	require.NoError(t, app.handlePhone(newFakeContext(testUserID, "123")))
	assert.Contains(t, backend.users, testUserID)
}
