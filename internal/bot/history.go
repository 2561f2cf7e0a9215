package bot

import (
	"errors"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/nur1slam20/tg-profession-bot/core/telegram/helpers"
	"github.com/nur1slam20/tg-profession-bot/internal/domain"
	"github.com/nur1slam20/tg-profession-bot/internal/storage"
)

// handleHistory lists the user's recent quiz results.
func (a *App) handleHistory(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	user, err := tghelpers.CurrentUser[*domain.User](ctx, a.users, c.Sender().ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return tghelpers.SendText(c, a.texts.historyRegistration)
		}
		return err
	}

	entries, err := a.coord.History(ctx, user.ID)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, a.texts.formatHistory(entries))
}
