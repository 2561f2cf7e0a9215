package bot

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nur1slam20/tg-profession-bot/core/bootstrap"
	coreconfig "github.com/nur1slam20/tg-profession-bot/core/config"
	"github.com/nur1slam20/tg-profession-bot/core/logger"
	coretelegram "github.com/nur1slam20/tg-profession-bot/core/telegram"
	"github.com/nur1slam20/tg-profession-bot/core/telegram/commands"
	tghelpers "github.com/nur1slam20/tg-profession-bot/core/telegram/helpers"
	"github.com/nur1slam20/tg-profession-bot/core/telegram/middleware"
	"github.com/nur1slam20/tg-profession-bot/core/telegram/router"
	tgstate "github.com/nur1slam20/tg-profession-bot/core/telegram/state"
	"github.com/nur1slam20/tg-profession-bot/internal/domain"
	"github.com/nur1slam20/tg-profession-bot/internal/quiz"
	"github.com/nur1slam20/tg-profession-bot/internal/stats"
	"github.com/nur1slam20/tg-profession-bot/internal/storage"

	tele "gopkg.in/telebot.v4"
)

// userStore is the slice of storage the registration and history flows need.
type userStore interface {
	UpsertUser(ctx context.Context, telegramID int64, firstName, lastName, phone string) (*domain.User, error)
	UserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
}

// App wires the conversation flows over storage, the quiz coordinator, and
// the stats server.
type App struct {
	cfg     *Config
	db      *sqlx.DB
	fsm     tgstate.Manager
	users   userStore
	coord   *quiz.Coordinator
	counter stats.Counter
	texts   texts

	statsSrv *stats.Server
}

// New bootstraps infrastructure (logger, database, migrations, optional
// seeding) and assembles the application.
func New(cfg *Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   &cfg.Core,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	store := storage.New(res.DB)
	if cfg.Core.Seed.Enabled {
		if err := bootstrap.RunSeeders(context.Background(), store); err != nil {
			_ = res.DB.Close()
			return nil, err
		}
	}

	app := newApp(cfg, store, store, store, store)
	app.db = res.DB
	return app, nil
}

// newApp assembles the application over explicit collaborators.
func newApp(cfg *Config, users userStore, catalog quiz.Catalog, sessions quiz.Sessions, counter stats.Counter) *App {
	a := &App{
		cfg:     cfg,
		fsm:     tgstate.NewMemoryManager(),
		users:   users,
		coord:   quiz.NewCoordinator(catalog, sessions),
		counter: counter,
		texts:   buildTexts(cfg.Core.Dialog.Messages),
	}
	a.statsSrv = stats.NewServer(cfg.Core.Stats.Listen, cfg.Core.Stats.Port, counter)

	tgstate.RegisterHandler(tgstate.StateAwaitingFirstName, a.withErrorReply(a.handleFirstName))
	tgstate.RegisterHandler(tgstate.StateAwaitingLastName, a.withErrorReply(a.handleLastName))
	tgstate.RegisterHandler(tgstate.StateAwaitingPhone, a.withErrorReply(a.handlePhone))

	return a
}

// withErrorReply answers failed updates with a generic message so the user is
// not left in silence when a collaborator is down. The error still propagates
// to the router for logging.
func (a *App) withErrorReply(h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		err := h(c)
		if err != nil {
			_ = tghelpers.SendText(c, a.texts.transientError)
		}
		return err
	}
}

// CoreConfig exposes the platform configuration to the runner.
func (a *App) CoreConfig() *coreconfig.Config {
	return &a.cfg.Core
}

// TelegramRunOptions builds the registry, routes, and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.withErrorReply(a.handleStart),
		Description: "Регистрация",
	})
	reg.RegisterCommand("/test", commands.Command{
		Handler:     a.withErrorReply(a.handleTest),
		Description: "Пройти тест",
	})
	reg.RegisterCommand("/history", commands.Command{
		Handler:     a.withErrorReply(a.handleHistory),
		Description: "История результатов",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.withErrorReply(a.handleStats),
		Description: "Статистика",
		AdminOnly:   true,
		Hidden:      true,
	})

	if err := reg.RegisterCallback(answerCallbackKey, a.withErrorReply(a.handleAnswer)); err != nil {
		return coretelegram.RunOptions{}, err
	}
	reg.SetTextFallback(a.withErrorReply(a.handleIdleText))

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Core.Telegram.AdminID,
	})
	routes = append(routes, router.TextRoutes(a.fsm, reg, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	// Contacts are only meaningful while the dialogue waits for a phone.
	contactHandler := middleware.State(a.fsm, tgstate.StateAwaitingPhone)(a.withErrorReply(a.handlePhone))
	routes = append(routes, coretelegram.Route{
		Endpoint: tele.OnContact,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(contactHandler)),
	})

	return coretelegram.RunOptions{
		Config:      &a.cfg.Core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Core, nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	go func() {
		if err := a.statsSrv.Start(); err != nil {
			logger.STATS.Error("stats server stopped: " + err.Error())
		}
	}()
	return nil
}

func (a *App) onStop(ctx context.Context, rt coretelegram.Runtime) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.statsSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
