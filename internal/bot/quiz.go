package bot

import (
	"errors"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/nur1slam20/tg-profession-bot/core/telegram/callbacks"
	tghelpers "github.com/nur1slam20/tg-profession-bot/core/telegram/helpers"
	"github.com/nur1slam20/tg-profession-bot/core/telegram/keyboard"
	tgstate "github.com/nur1slam20/tg-profession-bot/core/telegram/state"
	"github.com/nur1slam20/tg-profession-bot/internal/domain"
	"github.com/nur1slam20/tg-profession-bot/internal/quiz"
	"github.com/nur1slam20/tg-profession-bot/internal/storage"
)

const (
	// answerCallbackKey tags inline answer buttons; payload is the answer id.
	answerCallbackKey = "ans"

	quizSessionKey = "quiz_session_id"
	quizOrderKey   = "quiz_order"
	quizScoresKey  = "quiz_scores"

	answersPerRow = 2
)

// handleTest starts a quiz for a registered user or redirects to registration.
func (a *App) handleTest(c tele.Context) error {
	userID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	user, err := tghelpers.CurrentUser[*domain.User](ctx, a.users, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.fsm.Clear(userID)
			a.fsm.SetState(userID, tgstate.StateAwaitingFirstName)
			return tghelpers.SendText(c, a.texts.needRegistration)
		}
		return err
	}

	res, err := a.coord.Start(ctx, user.ID)
	if err != nil {
		if errors.Is(err, quiz.ErrEmptyCatalog) {
			a.fsm.ClearState(userID)
			return tghelpers.SendText(c, a.texts.emptyCatalog)
		}
		return err
	}

	// Any unfinished dialogue is dropped so its temps do not leak into the quiz.
	a.fsm.Clear(userID)
	a.fsm.SetState(userID, tgstate.StateInQuiz)
	a.fsm.SetTemp(userID, quizSessionKey, res.Session.ID)
	a.fsm.SetTemp(userID, quizOrderKey, res.Question.Ord)
	a.fsm.SetTemp(userID, quizScoresKey, quiz.NewScoreBoard().Snapshot())

	return tghelpers.SendKeyboard(c, a.texts.formatQuestion(res.Question), answersMarkup(res.Question))
}

// handleAnswer advances a quiz on an inline answer selection. Out-of-quiz or
// malformed selections are acknowledged without effect.
func (a *App) handleAnswer(c tele.Context) error {
	userID := c.Sender().ID
	if a.fsm.GetState(userID) != tgstate.StateInQuiz {
		return nil
	}
	sessionID, ok := a.fsm.GetTempInt64(userID, quizSessionKey)
	if !ok {
		return nil
	}

	answerID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return nil
	}

	currentOrd := 0
	if v, ok := a.fsm.GetTemp(userID, quizOrderKey); ok {
		if ord, ok := v.(int); ok {
			currentOrd = ord
		}
	}

	board := quiz.NewScoreBoard()
	if v, ok := a.fsm.GetTemp(userID, quizScoresKey); ok {
		if snap, ok := v.(quiz.Snapshot); ok {
			board = quiz.Restore(snap)
		}
	}

	ctx := tghelpers.BuildContext(c)
	adv, err := a.coord.Advance(ctx, sessionID, currentOrd, answerID, board)
	if err != nil {
		if errors.Is(err, quiz.ErrUnknownAnswer) {
			return nil
		}
		return err
	}

	if adv.Finished() {
		a.fsm.ClearTemp(userID, quizSessionKey)
		a.fsm.ClearTemp(userID, quizOrderKey)
		a.fsm.ClearTemp(userID, quizScoresKey)
		a.fsm.ClearState(userID)

		view := resultView{code: adv.Outcome.Code}
		if adv.Outcome.Profession != nil {
			view.title = adv.Outcome.Profession.Title
			view.description = adv.Outcome.Profession.Description
		}
		return tghelpers.EditOrSendText(c, a.texts.formatResult(view))
	}

	a.fsm.SetTemp(userID, quizOrderKey, adv.Next.Ord)
	a.fsm.SetTemp(userID, quizScoresKey, board.Snapshot())
	return tghelpers.EditOrSendText(c, a.texts.formatQuestion(adv.Next), answersMarkup(adv.Next))
}

func answersMarkup(q *domain.Question) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(q.Answers))
	for _, ans := range q.Answers {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   ans.Text,
			Unique: answerCallbackKey,
			Data:   strconv.FormatInt(ans.ID, 10),
		})
	}
	return keyboard.InlineButtonsNPerRow(buttons, answersPerRow)
}
