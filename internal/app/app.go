// Package app assembles the stockroom services from a configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nvaprinting/stockroom/internal/api"
	"github.com/nvaprinting/stockroom/internal/archive"
	"github.com/nvaprinting/stockroom/internal/auth"
	"github.com/nvaprinting/stockroom/internal/checkout"
	"github.com/nvaprinting/stockroom/internal/config"
	"github.com/nvaprinting/stockroom/internal/db"
	"github.com/nvaprinting/stockroom/internal/ledger"
	"github.com/nvaprinting/stockroom/internal/model"
	"github.com/nvaprinting/stockroom/internal/store"
	"github.com/nvaprinting/stockroom/internal/txlog"
)

// primary is everything the services need from the relational store.
type primary interface {
	ledger.Primary
	archive.Primary
	txlog.Primary
	checkout.SaleStore
}

// App owns the services and their shutdown order.
type App struct {
	Config   config.Config
	DB       *sql.DB // nil when the database could not be opened
	Ledger   *ledger.Ledger
	Archive  *archive.Log
	Txlog    *txlog.Log
	Checkout *checkout.Coordinator
	Tokens   *auth.Tokens

	log *slog.Logger
}

// New opens the database and builds the services. A database that cannot be
// opened is logged and the services run on their local files.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	a := &App{Config: cfg, log: slog.Default().With("component", "app")}

	database, err := OpenDatabase(cfg)
	if err != nil {
		a.log.Warn("database unavailable, running on local files", "path", cfg.DBPath, "error", err)
	} else {
		a.DB = database
	}

	var backend primary = store.Unavailable{}
	if a.DB != nil && cfg.DBEnabled {
		backend = store.NewBackend(a.DB, cfg.DBTimeout)
	}

	secret := uuid.NewString()
	if a.DB != nil {
		if secret, err = store.GetJWTSecret(ctx, a.DB); err != nil {
			a.DB.Close()
			return nil, fmt.Errorf("loading token secret: %w", err)
		}
	}
	a.Tokens = auth.NewTokens(secret)

	a.Txlog = txlog.New(backend, cfg.DataFile(config.TransactionsFile), txlog.WithQueueSize(cfg.QueueSize))
	a.Archive = archive.New(backend, cfg.DataFile(config.ArchiveFile), archive.WithQueueSize(cfg.QueueSize))
	a.Ledger = ledger.New(backend, ledger.Files{
		Items:      cfg.DataFile(config.ItemsFile),
		Suppliers:  cfg.DataFile(config.SuppliersFile),
		Categories: cfg.DataFile(config.CategoriesFile),
	}, a.Archive, a.Txlog, ledger.WithQueueSize(cfg.QueueSize))
	a.Checkout = checkout.New(a.Ledger, a.Archive, backend, checkout.WithQueueSize(cfg.QueueSize))

	return a, nil
}

// OpenDatabase opens the configured SQLite file and brings its schema up to date.
func OpenDatabase(cfg config.Config) (*sql.DB, error) {
	database, err := db.OpenWithOptions(cfg.DBPath, db.Options{MaxOpenConns: cfg.DBMaxOpen})
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return database, nil
}

// Start loads the histories and then the inventory.
func (a *App) Start(ctx context.Context) (ledger.Source, error) {
	var g errgroup.Group
	g.Go(a.Txlog.Load)
	g.Go(a.Archive.Load)
	if err := g.Wait(); err != nil {
		a.log.Warn("history not fully loaded", "error", err)
	}

	source, err := a.Ledger.Load(ctx)
	if err != nil {
		return source, fmt.Errorf("loading inventory: %w", err)
	}
	return source, nil
}

// Handler returns the HTTP API with request logging.
func (a *App) Handler() http.Handler {
	return api.LoggingMiddleware(api.NewRouter(api.Services{
		Ledger:   a.Ledger,
		Archive:  a.Archive,
		Txlog:    a.Txlog,
		Checkout: a.Checkout,
		DB:       a.DB,
		Tokens:   a.Tokens,
	}))
}

// CreateAdmin adds an administrator account.
func (a *App) CreateAdmin(ctx context.Context, username, password string) (*model.User, error) {
	if a.DB == nil {
		return nil, errors.New("database is not available")
	}
	return store.CreateUserWithPassword(ctx, a.DB, username, password, model.RoleAdmin)
}

// Close drains every queue, saves the local files and closes the database.
// Checkout goes first since it writes through the ledger and the archive.
func (a *App) Close(ctx context.Context) error {
	errs := []error{
		a.Checkout.Close(ctx),
		a.Ledger.Close(ctx),
		a.Archive.Close(ctx),
		a.Txlog.Shutdown(ctx),
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	err := errors.Join(errs...)
	if err != nil {
		a.log.Error("shutdown incomplete", "error", err)
	}
	return err
}
