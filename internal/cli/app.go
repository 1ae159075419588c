package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/roach88/pathway/internal/catalog"
	"github.com/roach88/pathway/internal/config"
	"github.com/roach88/pathway/internal/engine"
	"github.com/roach88/pathway/internal/ledger"
	"github.com/roach88/pathway/internal/logger"
	"github.com/roach88/pathway/internal/observability"
	"github.com/roach88/pathway/internal/pgstore"
	"github.com/roach88/pathway/internal/store"
)

// ledgerStore is a ledger backend that owns a connection.
type ledgerStore interface {
	ledger.Ledger
	io.Closer
}

// app is everything a command needs, built from the config file.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	metrics  *observability.Metrics
	catalog  *catalog.Memory
	ledger   ledgerStore
	svc      *engine.Service
	location *time.Location
}

// openApp loads config, catalog and ledger. Every failure is a command
// error (exit 2). The caller must Close the app.
func openApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "init logger", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load default time zone", err)
	}

	cat, err := catalog.LoadDir(cfg.Catalog.Dir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load catalog", err)
	}

	l, err := openLedger(ctx, cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open ledger", err)
	}

	metrics := observability.NewMetrics()
	return &app{
		cfg:      cfg,
		log:      log,
		metrics:  metrics,
		catalog:  cat,
		ledger:   l,
		location: loc,
		svc: engine.New(l, cat,
			engine.WithLogger(log),
			engine.WithMetrics(metrics),
			engine.WithDefaultLocation(loc),
		),
	}, nil
}

func openLedger(ctx context.Context, db config.DatabaseConfig) (ledgerStore, error) {
	switch db.Driver {
	case "postgres":
		s, err := pgstore.Open(ctx, db.URL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := store.Open(db.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", db.Driver)
	}
}

// Close releases the ledger and flushes the logger.
func (a *app) Close() error {
	a.log.Sync()
	return a.ledger.Close()
}

// withApp opens the app, runs fn and closes the app.
func withApp(ctx context.Context, opts *RootOptions, fn func(*app) error) error {
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
