package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/nur1slam20/tg-profession-bot/core/config"
	coredatabase "github.com/nur1slam20/tg-profession-bot/core/database"
	"github.com/nur1slam20/tg-profession-bot/core/logger"
)

// Options control the generic bootstrap pipeline.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger, connects to the database, and applies migrations.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(opts.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	return &Result{DB: db}, nil
}

// Seeder loads reference data into the storage layer.
type Seeder interface {
	Seed(ctx context.Context) error
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc func(ctx context.Context) error

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context) error {
	return f(ctx)
}

// RunSeeders executes seeders sequentially, stopping at the first failure.
func RunSeeders(ctx context.Context, seeders ...Seeder) error {
	for _, s := range seeders {
		if s == nil {
			continue
		}
		if err := s.Seed(ctx); err != nil {
			return fmt.Errorf("bootstrap: seeding failed: %w", err)
		}
	}
	return nil
}
