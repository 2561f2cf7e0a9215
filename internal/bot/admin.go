package bot

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/nur1slam20/tg-profession-bot/core/telegram/helpers"
	"github.com/nur1slam20/tg-profession-bot/internal/stats"
)

// handleStats reports store aggregates in chat. Admin-only and hidden from
// the command menu; the same numbers are served over HTTP.
func (a *App) handleStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	users, sessions, finished, err := a.counter.Counts(ctx)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, a.texts.formatStats(stats.Compute(users, sessions, finished)))
}
