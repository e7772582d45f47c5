// Package bootstrap wires the stock ledger engine from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	appinventory "github.com/hms/backend/internal/application/inventory"
	apppurchasing "github.com/hms/backend/internal/application/purchasing"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/infrastructure/cache"
	"github.com/hms/backend/internal/infrastructure/config"
	"github.com/hms/backend/internal/infrastructure/event"
	"github.com/hms/backend/internal/infrastructure/persistence"
	"github.com/hms/backend/internal/infrastructure/scheduler"
	"github.com/hms/backend/internal/infrastructure/telemetry"
)

// Engine holds the services of a running stock ledger
type Engine struct {
	DB         *persistence.Database
	Reconciler *appinventory.StockReconciler
	Invoices   *apppurchasing.InvoiceService
	Queries    *appinventory.StockQueryService
	Metrics    *telemetry.LedgerMetrics
	Events     *event.InMemoryEventBus
	// Sweeper is nil when the low stock sweep is disabled
	Sweeper *scheduler.LowStockSweeper

	alertStore shared.IdempotencyStore
	logger     *zap.Logger
}

// New opens the database and builds every service on top of it
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if db.Driver() == "sqlite" || cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	alertStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	itemRepo := persistence.NewGormInventoryItemRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	recipeRepo := persistence.NewGormLabRecipeRepository(db.DB)
	invoiceRepo := persistence.NewGormPurchaseInvoiceRepository(db.DB)

	metrics := telemetry.NewLedgerMetrics(telemetry.DefaultLedgerMetricsConfig())

	bus := event.NewInMemoryEventBus(log)
	lowStock := appinventory.NewLowStockHandler(log).
		WithNotifier(appinventory.NewLoggingStockAlertNotifier(log)).
		WithDeduplication(alertStore, cfg.Inventory.AlertDedupTTL)
	bus.Subscribe(lowStock, lowStock.EventTypes()...)

	reconciler := appinventory.NewStockReconciler(
		persistence.NewGormTransactionScope(db.DB),
		itemRepo,
		appinventory.NewConcurrencyGuard(cfg.Inventory.DefaultReorderLevel),
		log,
	)
	reconciler.SetEventPublisher(bus)
	reconciler.SetMetrics(metrics)

	invoices := apppurchasing.NewInvoiceService(
		persistence.NewGormPurchasingTransactionScope(db.DB),
		invoiceRepo,
		reconciler,
		log,
	)
	invoices.SetEventPublisher(bus)

	e := &Engine{
		DB:         db,
		Reconciler: reconciler,
		Invoices:   invoices,
		Queries:    appinventory.NewStockQueryService(itemRepo, ledgerRepo, recipeRepo),
		Metrics:    metrics,
		Events:     bus,
		alertStore: alertStore,
		logger:     log,
	}

	if interval := cfg.Inventory.LowStockSweepInterval; interval > 0 {
		sweepCfg := scheduler.DefaultLowStockSweeperConfig()
		sweepCfg.Interval = interval
		if e.Sweeper, err = scheduler.NewLowStockSweeper(sweepCfg, reconciler, metrics, log); err != nil {
			_ = e.Close(ctx)
			return nil, err
		}
	}
	return e, nil
}

// Start starts the event bus and the low stock sweep
func (e *Engine) Start(ctx context.Context) error {
	if err := e.Events.Start(ctx); err != nil {
		return err
	}
	if e.Sweeper != nil {
		return e.Sweeper.Start(ctx)
	}
	return nil
}

// Close stops background work and releases the alert store and database
func (e *Engine) Close(ctx context.Context) error {
	var errs []error
	if e.Sweeper != nil {
		if err := e.Sweeper.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, fmt.Errorf("stop sweeper: %w", err))
		}
	}
	if e.Events.Running() {
		if err := e.Events.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop event bus: %w", err))
		}
	}
	if err := e.alertStore.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close alert store: %w", err))
	}
	if err := e.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
