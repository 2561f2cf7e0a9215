package bot

import (
	"strings"
	"unicode/utf8"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/nur1slam20/tg-profession-bot/core/telegram/helpers"
	"github.com/nur1slam20/tg-profession-bot/core/telegram/keyboard"
	tgstate "github.com/nur1slam20/tg-profession-bot/core/telegram/state"
)

const (
	regFirstNameKey = "reg_first_name"
	regLastNameKey  = "reg_last_name"
)

// handleStart resets any in-flight conversation and begins registration.
func (a *App) handleStart(c tele.Context) error {
	userID := c.Sender().ID
	a.fsm.Clear(userID)
	a.fsm.SetState(userID, tgstate.StateAwaitingFirstName)
	return tghelpers.SendText(c, a.texts.askFirstName)
}

func (a *App) validName(s string) bool {
	s = strings.TrimSpace(s)
	if a.cfg.Core.Dialog.Relaxed {
		return s != ""
	}
	return utf8.RuneCountInString(s) >= a.cfg.Core.Dialog.MinNameLen
}

func (a *App) validPhone(s string) bool {
	s = strings.TrimSpace(s)
	if a.cfg.Core.Dialog.Relaxed {
		return s != ""
	}
	return utf8.RuneCountInString(s) >= a.cfg.Core.Dialog.MinPhoneLen
}

func (a *App) handleFirstName(c tele.Context) error {
	userID := c.Sender().ID
	name := strings.TrimSpace(c.Text())
	if !a.validName(name) {
		return tghelpers.SendText(c, a.texts.invalidFirstName)
	}

	a.fsm.SetTemp(userID, regFirstNameKey, name)
	a.fsm.SetState(userID, tgstate.StateAwaitingLastName)
	return tghelpers.SendText(c, a.texts.askLastName)
}

func (a *App) handleLastName(c tele.Context) error {
	userID := c.Sender().ID
	name := strings.TrimSpace(c.Text())
	if !a.validName(name) {
		return tghelpers.SendText(c, a.texts.invalidLastName)
	}

	a.fsm.SetTemp(userID, regLastNameKey, name)
	a.fsm.SetState(userID, tgstate.StateAwaitingPhone)
	return tghelpers.SendKeyboard(c, a.texts.askPhone, keyboard.ContactRequest(a.texts.shareContactButton))
}

func (a *App) handlePhone(c tele.Context) error {
	userID := c.Sender().ID

	var phone string
	if msg := c.Message(); msg != nil && msg.Contact != nil {
		// A shared contact is trusted as-is.
		phone = strings.TrimSpace(msg.Contact.PhoneNumber)
	} else {
		phone = strings.TrimSpace(c.Text())
		if !a.validPhone(phone) {
			return tghelpers.SendText(c, a.texts.invalidPhone)
		}
	}
	if phone == "" {
		return tghelpers.SendText(c, a.texts.invalidPhone)
	}

	firstName, okFirst := a.fsm.GetTempString(userID, regFirstNameKey)
	lastName, okLast := a.fsm.GetTempString(userID, regLastNameKey)
	if !okFirst || !okLast {
		// Provisional names were lost; restart the dialogue.
		a.fsm.Clear(userID)
		a.fsm.SetState(userID, tgstate.StateAwaitingFirstName)
		return tghelpers.SendText(c, a.texts.askFirstName)
	}

	ctx := tghelpers.BuildContext(c)
	if _, err := a.users.UpsertUser(ctx, userID, firstName, lastName, phone); err != nil {
		return err
	}

	a.fsm.ClearTemp(userID, regFirstNameKey)
	a.fsm.ClearTemp(userID, regLastNameKey)
	a.fsm.ClearState(userID)
	return tghelpers.SendKeyboard(c, a.texts.registered, keyboard.RemoveKeyboard())
}

// handleIdleText answers free text outside any conversation with a hint.
func (a *App) handleIdleText(c tele.Context) error {
	return tghelpers.SendText(c, a.texts.idleHint)
}
