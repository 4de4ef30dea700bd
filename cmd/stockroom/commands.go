package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nvaprinting/stockroom/internal/app"
	"github.com/nvaprinting/stockroom/internal/config"
	"github.com/nvaprinting/stockroom/internal/migrate"
	"github.com/nvaprinting/stockroom/internal/model"
	"github.com/nvaprinting/stockroom/internal/snapshot"
)

// rootOptions holds the global flags and the configuration they resolve to.
type rootOptions struct {
	ConfigPath string
	LogPath    string
	LogLevel   string

	cfg      config.Config
	closeLog func()
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "stockroom",
		Short:         "Inventory ledger and checkout service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if opts.LogPath != "" {
				cfg.LogPath = opts.LogPath
			}
			if opts.LogLevel != "" {
				cfg.LogLevel = opts.LogLevel
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			closeLog, err := setupLogger(cfg.LogPath, cfg.Level())
			if err != nil {
				return err
			}
			opts.cfg, opts.closeLog = cfg, closeLog
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.closeLog != nil {
				opts.closeLog()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVarP(&opts.LogPath, "log", "l", "", "log file path (default: stdout/stderr only)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "debug, info, warn or error (default from config)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newInitCommand(opts))
	cmd.AddCommand(newEndOfDayCommand(opts))
	cmd.AddCommand(newUndoEndOfDayCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newExportSQLCommand(opts))

	return cmd
}

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr, adminUser string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until SIGINT or SIGTERM.

A missing database is created with an admin account whose generated
password is printed once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if addr != "" {
				cfg.Addr = addr
			}
			return serve(cmd.Context(), cfg, adminUser)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config)")
	cmd.Flags().StringVarP(&adminUser, "user", "u", "Admin", "admin username on first run")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, adminUser string) error {
	_, statErr := os.Stat(cfg.DBPath)
	firstRun := errors.Is(statErr, os.ErrNotExist)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	if firstRun && a.DB != nil {
		if err := createAdmin(ctx, a, cfg.DBPath, adminUser); err != nil {
			a.Close(ctx)
			return err
		}
	}

	source, err := a.Start(ctx)
	if err != nil {
		a.Close(ctx)
		return err
	}
	slog.Info("inventory ready", "source", string(source), "items", a.Ledger.Len())

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, shutdownCtx := errgroup.WithContext(shutdownCtx)

	g.Go(func() error {
		slog.Info("server started", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-shutdownCtx.Done()
		slog.Info("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	serveErr := g.Wait()

	slog.Info("server stopped, saving data")
	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return errors.Join(serveErr, a.Close(closeCtx))
}

func newInitCommand(root *rootOptions) *cobra.Command {
	var adminUser string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database and an admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if _, err := os.Stat(cfg.DBPath); err == nil {
				return fmt.Errorf("database file %s already exists", cfg.DBPath)
			}

			database, err := app.OpenDatabase(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			a := &app.App{DB: database}
			return createAdmin(cmd.Context(), a, cfg.DBPath, adminUser)
		},
	}

	cmd.Flags().StringVarP(&adminUser, "user", "u", "Admin", "admin username")
	return cmd
}

func createAdmin(ctx context.Context, a *app.App, dbPath, username string) error {
	password, err := generatePassword(4)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}
	if _, err := a.CreateAdmin(ctx, username, password); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}
	printInitResult(dbPath, username, password)
	fmt.Println()
	return nil
}

func newEndOfDayCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "end-of-day",
		Short: "Reset the daily stock in and stock out counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), root.cfg, func(ctx context.Context, a *app.App) error {
				if err := a.Ledger.EndOfDay(ctx); err != nil {
					return err
				}
				fmt.Println("Daily counters reset. Run undo-end-of-day to restore them.")
				return nil
			})
		},
	}
}

func newUndoEndOfDayCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "undo-end-of-day",
		Short: "Restore the inventory saved before the last end of day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), root.cfg, func(ctx context.Context, a *app.App) error {
				if !a.Ledger.RestoreFromBackup(ctx) {
					return errors.New("no inventory backup to restore")
				}
				fmt.Printf("Inventory restored: %d items.\n", a.Ledger.Len())
				return nil
			})
		},
	}
}

// withApp starts the services, runs fn and shuts them down.
func withApp(ctx context.Context, cfg config.Config, fn func(context.Context, *app.App) error) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	if _, err := a.Start(ctx); err != nil {
		a.Close(ctx)
		return err
	}
	return errors.Join(fn(ctx, a), a.Close(ctx))
}

func newMigrateCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy local data files into the database",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "items [file]",
		Short: "Insert the items snapshot keeping item ids",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fileArg(args, root.cfg.DataFile(config.ItemsFile))
			return runMigration(cmd.Context(), root.cfg, func(ctx context.Context, database *sql.DB) (migrate.Result, error) {
				return migrate.ItemsFromFile(ctx, database, path)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "transactions [file]",
		Short: "Insert the transaction history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fileArg(args, root.cfg.DataFile(config.TransactionsFile))
			return runMigration(cmd.Context(), root.cfg, func(ctx context.Context, database *sql.DB) (migrate.Result, error) {
				return migrate.TransactionsFromFile(ctx, database, path)
			})
		},
	})

	return cmd
}

func runMigration(ctx context.Context, cfg config.Config, run func(context.Context, *sql.DB) (migrate.Result, error)) error {
	database, err := app.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	res, err := run(ctx, database)
	if err != nil {
		return err
	}
	fmt.Printf("Migrated %d of %d records.\n", res.Migrated, res.Total)
	if res.Failed() > 0 {
		return fmt.Errorf("%d records failed to migrate", res.Failed())
	}
	return nil
}

func newExportSQLCommand(root *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export-sql [file]",
		Short: "Write the items snapshot as SQL INSERT statements",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fileArg(args, root.cfg.DataFile(config.ItemsFile))
			items, err := snapshot.New[model.Item](path).Load()
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			w := io.Writer(os.Stdout)
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			n, err := migrate.ExportSQL(w, items)
			if err != nil {
				return err
			}
			slog.Info("sql export written", "items", n, "out", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func fileArg(args []string, fallback string) string {
	if len(args) > 0 {
		return args[0]
	}
	return fallback
}
