package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finledger/internal/amqp"
	"finledger/internal/cache"
	"finledger/internal/config"
	"finledger/internal/currency"
	"finledger/internal/services"
	"finledger/internal/storage"
)

// Engine bundles the ledger components one process needs.
type Engine struct {
	Config    *config.Config
	Location  *time.Location
	Store     *storage.SQLiteRepository
	Converter *currency.Converter
	Caches    *cache.Manager
	Events    *amqp.Client // nil when no broker is reachable

	Ledger  *services.LedgerService
	Holds   *services.HoldManager
	Rules   *services.RecurringProcessor
	Budgets *services.BudgetTracker
}

// NewEngine wires store, converter and event publisher into the services.
// A broker that cannot be reached leaves Events nil: the engine keeps
// working and events are skipped.
func NewEngine(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*Engine, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	e := &Engine{
		Config:   cfg,
		Location: loc,
		Store:    InitSQLite(logger, cfg),
		Caches:   cache.NewManager(),
	}

	e.Converter = currency.NewConverter(
		currency.NewHTTPSource(cfg.RatesURL, cfg.RatesTimeout),
		currency.Options{
			Base:     cfg.RatesBaseCurrency,
			Timeout:  cfg.RatesTimeout,
			CacheTTL: cfg.RatesCacheTTL,
		})
	e.Caches.Register(e.Converter.Cache())

	opts := []services.Option{
		services.WithLocation(loc),
		services.WithDefaultCurrency(cfg.DefaultCurrency),
	}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			e.Events = client
			opts = append(opts, services.WithEvents(client))
			logger.InfoContext(ctx, "AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.InfoContext(ctx, "AMQP disabled - ledger events will not be published")
	}

	e.Ledger = services.NewLedgerService(e.Store, e.Converter, opts...)
	e.Holds = services.NewHoldManager(e.Ledger)
	e.Rules = services.NewRecurringProcessor(e.Ledger)
	e.Budgets = services.NewBudgetTracker(e.Ledger)
	return e, nil
}

// Close releases the broker connection, cache cleanup and the store.
func (e *Engine) Close() {
	e.Caches.Stop()
	if e.Events != nil {
		if err := e.Events.Close(); err != nil {
			slog.Warn("Failed to close AMQP client", "error", err)
		}
	}
	if err := e.Store.Close(); err != nil {
		slog.Warn("Failed to close SQLite repository", "error", err)
	}
}
