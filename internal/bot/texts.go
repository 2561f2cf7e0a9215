package bot

import (
	"fmt"
	"strings"

	coreconfig "github.com/nur1slam20/tg-profession-bot/core/config"
	"github.com/nur1slam20/tg-profession-bot/internal/domain"
)

// texts holds user-facing message strings. Dialog prompts can be overridden
// from configuration; the rest are fixed.
type texts struct {
	askFirstName     string
	askLastName      string
	askPhone         string
	invalidFirstName string
	invalidLastName  string
	invalidPhone     string
	registered       string
	transientError   string

	needRegistration     string
	historyRegistration  string
	emptyCatalog         string
	idleHint             string
	historyEmpty         string
	historyHeader        string
	undetermined         string
	shareContactButton   string
	resultWithProfession string
	resultFallback       string
}

func buildTexts(msgs coreconfig.DialogMessages) texts {
	t := texts{
		askFirstName:     "Привет! Давай зарегистрируемся. Как тебя зовут? Введи имя.",
		askLastName:      "Отлично. Теперь фамилия:",
		askPhone:         "Укажи номер телефона (можешь поделиться контактом кнопкой):",
		invalidFirstName: "Имя слишком короткое. Введи имя ещё раз.",
		invalidLastName:  "Фамилия слишком короткая. Введи фамилию ещё раз.",
		invalidPhone:     "Номер слишком короткий. Введи номер текстом или поделись контактом.",
		registered:       "Регистрация завершена. Напиши /test чтобы пройти тест.",
		transientError:   "Что-то пошло не так. Попробуй ещё раз позже.",

		needRegistration:     "Сначала зарегистрируйся. Введи имя:",
		historyRegistration:  "Сначала зарегистрируйся: /start",
		emptyCatalog:         "Вопросы не найдены. Обратись к администратору.",
		idleHint:             "Доступные команды: /test — пройти тест, /history — история.",
		historyEmpty:         "История пуста.",
		historyHeader:        "Последние результаты:",
		undetermined:         "не определено",
		shareContactButton:   "Поделиться контактом",
		resultWithProfession: "Готово!\nВам больше всего подходит профессия: %s\n\n%s",
		resultFallback:       "Готово! Итог: %s",
	}

	if msgs.AskFirstName != "" {
		t.askFirstName = msgs.AskFirstName
	}
	if msgs.AskLastName != "" {
		t.askLastName = msgs.AskLastName
	}
	if msgs.AskPhone != "" {
		t.askPhone = msgs.AskPhone
	}
	if msgs.InvalidFirstName != "" {
		t.invalidFirstName = msgs.InvalidFirstName
	}
	if msgs.InvalidLastName != "" {
		t.invalidLastName = msgs.InvalidLastName
	}
	if msgs.InvalidPhone != "" {
		t.invalidPhone = msgs.InvalidPhone
	}
	if msgs.Registered != "" {
		t.registered = msgs.Registered
	}
	if msgs.TransientError != "" {
		t.transientError = msgs.TransientError
	}
	return t
}

func (t texts) formatQuestion(q *domain.Question) string {
	return fmt.Sprintf("Вопрос %d:\n%s", q.Ord, q.Text)
}

func (t texts) formatResult(outcome resultView) string {
	if outcome.title != "" {
		return fmt.Sprintf(t.resultWithProfession, outcome.title, outcome.description)
	}
	code := outcome.code
	if code == "" {
		code = t.undetermined
	}
	return fmt.Sprintf(t.resultFallback, code)
}

type resultView struct {
	code        string
	title       string
	description string
}

func (t texts) formatHistory(entries []domain.HistoryEntry) string {
	if len(entries) == 0 {
		return t.historyEmpty
	}
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, t.historyHeader)
	for _, e := range entries {
		title := e.ResultTitle
		if title == "" {
			title = t.undetermined
		}
		if !e.Finished {
			title += " (не завершён)"
		}
		lines = append(lines, fmt.Sprintf("• %s — %s", e.StartedAt.Format("02.01.2006 15:04"), title))
	}
	return strings.Join(lines, "\n")
}

func (t texts) formatStats(stats domain.Stats) string {
	return fmt.Sprintf(
		"Пользователи: %d\nСессии: %d\nЗавершено: %d\nДоля завершённых: %d%%",
		stats.Users, stats.Sessions, stats.FinishedSessions, stats.CompletionRate,
	)
}
