package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nur1slam20/tg-profession-bot/core/logger"
	"github.com/nur1slam20/tg-profession-bot/internal/domain"
)

type seedAnswer struct {
	text    string
	weights domain.WeightMap
}

type seedQuestion struct {
	text    string
	answers []seedAnswer
}

var seedProfessions = []domain.Profession{
	{Code: "DataAnalyst", Title: "Аналитик данных", Description: "Работает с данными, дашбордами и SQL."},
	{Code: "BackendDev", Title: "Бэкенд-разработчик", Description: "Пишет серверную логику и API."},
	{Code: "FrontendDev", Title: "Фронтенд-разработчик", Description: "Создаёт UI в браузере."},
	{Code: "PM", Title: "Проектный менеджер", Description: "Управляет проектами и коммуникациями."},
}

var seedQuestions = []seedQuestion{
	{
		text: "Что вам ближе?",
		answers: []seedAnswer{
			{"Работа с таблицами и метриками", domain.WeightMap{"DataAnalyst": 2}},
			{"Проектирование API", domain.WeightMap{"BackendDev": 2}},
			{"Создание интерфейсов", domain.WeightMap{"FrontendDev": 2}},
			{"Организация людей и процессов", domain.WeightMap{"PM": 2}},
		},
	},
	{
		text: "Какую задачу выберете?",
		answers: []seedAnswer{
			{"Написать SQL отчёт", domain.WeightMap{"DataAnalyst": 2, "BackendDev": 1}},
			{"Сделать REST endpoint", domain.WeightMap{"BackendDev": 2}},
			{"Сверстать форму", domain.WeightMap{"FrontendDev": 2}},
			{"Составить план релиза", domain.WeightMap{"PM": 2}},
		},
	},
	{
		text: "Что вызывает интерес?",
		answers: []seedAnswer{
			{"BI и аналитика", domain.WeightMap{"DataAnalyst": 2}},
			{"Базы данных и микросервисы", domain.WeightMap{"BackendDev": 2}},
			{"UX и компоненты", domain.WeightMap{"FrontendDev": 2}},
			{"Коммуникации с командой", domain.WeightMap{"PM": 2}},
		},
	},
	{
		text: "Какие навыки хотите прокачать?",
		answers: []seedAnswer{
			{"Статистика и SQL", domain.WeightMap{"DataAnalyst": 2}},
			{"Архитектура серверов", domain.WeightMap{"BackendDev": 2}},
			{"Дизайн-системы", domain.WeightMap{"FrontendDev": 2}},
			{"Управление рисками", domain.WeightMap{"PM": 2}},
		},
	},
	{
		text: "В чём комфортнее работать?",
		answers: []seedAnswer{
			{"Данные и отчёты", domain.WeightMap{"DataAnalyst": 2}},
			{"Сервер и логика", domain.WeightMap{"BackendDev": 2}},
			{"Браузер и UI", domain.WeightMap{"FrontendDev": 2}},
			{"Люди и сроки", domain.WeightMap{"PM": 2}},
		},
	},
}

// Seed loads the profession and question catalog. Professions are upserted by
// code; questions, answers, sessions, and recorded answers are fully replaced
// so reruns always produce the canonical catalog.
func (s *Store) Seed(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsertProfession = `
		INSERT INTO professions (code, title, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO NOTHING`
	for _, p := range seedProfessions {
		if _, err := tx.ExecContext(ctx, upsertProfession, p.Code, p.Title, p.Description); err != nil {
			return fmt.Errorf("seed: profession %s: %w", p.Code, err)
		}
	}

	for _, table := range []string{"recorded_answers", "test_sessions", "answers", "questions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("seed: clear %s: %w", table, err)
		}
	}

	const insertQuestion = `INSERT INTO questions (ord, text) VALUES ($1, $2) RETURNING id`
	const insertAnswer = `INSERT INTO answers (question_id, text, weights) VALUES ($1, $2, $3)`
	for i, q := range seedQuestions {
		var questionID int64
		if err := tx.QueryRowContext(ctx, insertQuestion, i+1, q.text).Scan(&questionID); err != nil {
			return fmt.Errorf("seed: question %d: %w", i+1, err)
		}
		for _, a := range q.answers {
			if _, err := tx.ExecContext(ctx, insertAnswer, questionID, a.text, a.weights); err != nil {
				return fmt.Errorf("seed: answer for question %d: %w", i+1, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit: %w", err)
	}

	logger.SEED.LogAttrs(ctx, slog.LevelInfo, "seed.complete",
		slog.String("status", "ok"),
		slog.Int("questions", len(seedQuestions)),
	)
	return nil
}
