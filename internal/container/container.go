// Package container - dependency injection for the device agent.
//
// The Container owns the lifecycle of every dependency:
// - construction (staged Initialize)
// - access (getters)
// - teardown (Shutdown, reverse order)
//
// Pattern: Composition Root
// - Everything is wired in one place
// - Replacing an implementation means touching one stage
package container

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	httpadapter "github.com/mimi6060/festivals-pos/internal/adapters/http"
	"github.com/mimi6060/festivals-pos/internal/adapters/http/middleware"
	"github.com/mimi6060/festivals-pos/internal/adapters/push"
	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/application/syncqueue"
	catalogusecase "github.com/mimi6060/festivals-pos/internal/application/usecases/catalog"
	pushusecase "github.com/mimi6060/festivals-pos/internal/application/usecases/push"
	syncusecase "github.com/mimi6060/festivals-pos/internal/application/usecases/sync"
	txusecase "github.com/mimi6060/festivals-pos/internal/application/usecases/transaction"
	walletusecase "github.com/mimi6060/festivals-pos/internal/application/usecases/wallet"
	"github.com/mimi6060/festivals-pos/internal/config"
	"github.com/mimi6060/festivals-pos/internal/domain/entities"
	domainerrors "github.com/mimi6060/festivals-pos/internal/domain/errors"
	"github.com/mimi6060/festivals-pos/internal/domain/events"
	"github.com/mimi6060/festivals-pos/internal/domain/signing"
	"github.com/mimi6060/festivals-pos/internal/infrastructure/eventbus"
	"github.com/mimi6060/festivals-pos/internal/infrastructure/persistence/sqlite"
	"github.com/mimi6060/festivals-pos/internal/infrastructure/replay"
	"github.com/mimi6060/festivals-pos/internal/infrastructure/reporting"
	"github.com/mimi6060/festivals-pos/internal/infrastructure/telemetry"
	"github.com/mimi6060/festivals-pos/internal/pkg/logger"
)

// Container holds all initialised dependencies of the agent.
type Container struct {
	cfg *config.Config
	log *slog.Logger

	db              *sql.DB
	recoveredFrom   string // quarantine path when the store was corrupt at startup
	tracingShutdown func(context.Context) error

	// Repositories
	pendingRepo ports.PendingTransactionRepository
	walletRepo  ports.WalletCacheRepository
	catalogRepo ports.CatalogRepository
	historyRepo ports.CachedTransactionRepository
	queueRepo   ports.SyncQueueRepository
	uow         ports.UnitOfWork
	stats       ports.StatsProvider

	// Events & telemetry
	bus       ports.EventBus
	collector *telemetry.MetricsCollector

	// Use cases
	createPending *txusecase.CreatePendingTransactionUseCase
	getPending    *txusecase.GetPendingTransactionUseCase
	listPending   *txusecase.ListPendingTransactionsUseCase
	getWallet     *walletusecase.GetWalletUseCase
	applySnapshot *walletusecase.ApplyWalletSnapshotUseCase
	listCatalog   *catalogusecase.ListCatalogUseCase
	refreshCat    *catalogusecase.RefreshCatalogUseCase
	getStats      *syncusecase.GetSyncStatsUseCase
	listFailed    *syncusecase.ListFailedItemsUseCase
	retryFailed   *syncusecase.RetryFailedItemUseCase
	applyPush     *pushusecase.ApplyPushUseCase

	// Sync machinery
	queue    *syncqueue.Queue
	consumer *push.Consumer

	// HTTP
	server *httpadapter.Server
}

// New creates an uninitialised container.
func New(cfg *config.Config) *Container {
	return &Container{cfg: cfg}
}

// Initialize builds every dependency in order. A failed stage aborts the
// whole startup: a half-wired agent must not sell.
func (c *Container) Initialize(ctx context.Context) error {
	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"logger", c.initLogger},
		{"sentry", c.initSentry},
		{"tracing", c.initTracing},
		{"store", c.initStore},
		{"repositories", c.initRepositories},
		{"event bus", c.initEventBus},
		{"use cases", c.initUseCases},
		{"sync queue", c.initSyncQueue},
		{"push consumer", c.initPushConsumer},
		{"http server", c.initHTTPServer},
	}

	for _, stage := range stages {
		if err := stage.fn(ctx); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", stage.name, err)
		}
		if c.log != nil {
			c.log.Debug("initialized", "stage", stage.name)
		}
	}

	return nil
}

func (c *Container) initLogger(context.Context) error {
	c.log = logger.New(&logger.Config{
		Level:  c.cfg.Log.Level,
		Format: c.cfg.Log.Format,
	})
	slog.SetDefault(c.log)
	return nil
}

func (c *Container) initSentry(context.Context) error {
	return reporting.Setup(reporting.Config{
		DSN:         c.cfg.Sentry.DSN,
		Environment: c.cfg.App.Environment,
		Release:     c.cfg.App.Version,
		DeviceID:    c.cfg.Device.ID,
	})
}

func (c *Container) initTracing(ctx context.Context) error {
	shutdown, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		Enabled:     c.cfg.Tracing.Enabled,
		Endpoint:    c.cfg.Tracing.OTLPEndpoint,
		ServiceName: c.cfg.App.Name,
		DeviceID:    c.cfg.Device.ID,
		SampleRatio: c.cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return err
	}
	c.tracingShutdown = shutdown
	return nil
}

// initStore opens the SQLite store and runs migrations. A corrupt file is
// quarantined and replaced with a fresh store; the loss is surfaced via
// the store.recovered event once the bus is up.
func (c *Container) initStore(ctx context.Context) error {
	storeCfg := sqlite.Config{
		Path:        c.cfg.Store.Path,
		BusyTimeout: c.cfg.Store.BusyTimeout(),
	}

	db, err := sqlite.Open(storeCfg)
	if domainerrors.IsStoreCorrupt(err) && storeCfg.Path != ":memory:" {
		c.log.Error("local store is corrupt, quarantining", "path", storeCfg.Path)

		quarantine, qerr := sqlite.Quarantine(storeCfg.Path)
		if qerr != nil {
			return qerr
		}
		c.recoveredFrom = quarantine

		db, err = sqlite.Open(storeCfg)
	}
	if err != nil {
		return err
	}

	if err := sqlite.Initialize(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	c.db = db
	return nil
}

func (c *Container) initRepositories(context.Context) error {
	c.pendingRepo = sqlite.NewPendingTransactionRepository(c.db)
	c.walletRepo = sqlite.NewWalletCacheRepository(c.db)
	c.catalogRepo = sqlite.NewCatalogRepository(c.db)
	c.historyRepo = sqlite.NewCachedTransactionRepository(c.db)
	c.queueRepo = sqlite.NewSyncQueueRepository(c.db)
	c.uow = sqlite.NewUnitOfWork(c.db)
	c.stats = sqlite.NewStatsProvider(c.db)
	return nil
}

func (c *Container) initEventBus(context.Context) error {
	c.bus = eventbus.New(c.log)

	c.collector = telemetry.NewMetricsCollector(c.stats)
	c.collector.Register(c.bus)

	if c.cfg.Sentry.DSN != "" {
		reporting.Subscribe(c.bus)
	}
	return nil
}

func (c *Container) initUseCases(context.Context) error {
	deviceID, err := uuid.Parse(c.cfg.Device.ID)
	if err != nil {
		return fmt.Errorf("invalid device id: %w", err)
	}

	signer, err := signing.NewSigner(c.cfg.Device.HMACKey)
	if err != nil {
		return err
	}

	c.createPending = txusecase.NewCreatePendingTransactionUseCase(
		c.walletRepo, c.pendingRepo, c.queueRepo, c.bus, c.uow,
		signer, signing.NewCounter(), deviceID,
	)
	c.getPending = txusecase.NewGetPendingTransactionUseCase(c.pendingRepo)
	c.listPending = txusecase.NewListPendingTransactionsUseCase(c.pendingRepo)

	c.getWallet = walletusecase.NewGetWalletUseCase(c.walletRepo)
	c.applySnapshot = walletusecase.NewApplyWalletSnapshotUseCase(c.walletRepo, c.uow)

	c.listCatalog = catalogusecase.NewListCatalogUseCase(c.catalogRepo)
	c.refreshCat = catalogusecase.NewRefreshCatalogUseCase(c.catalogRepo, c.uow)

	c.getStats = syncusecase.NewGetSyncStatsUseCase(c.stats)
	c.listFailed = syncusecase.NewListFailedItemsUseCase(c.queueRepo)
	c.retryFailed = syncusecase.NewRetryFailedItemUseCase(c.queueRepo, c.uow)

	c.applyPush = pushusecase.NewApplyPushUseCase(c.applySnapshot, c.historyRepo, c.bus, c.uow)

	return nil
}

func (c *Container) initSyncQueue(context.Context) error {
	deviceID, err := uuid.Parse(c.cfg.Device.ID)
	if err != nil {
		return fmt.Errorf("invalid device id: %w", err)
	}

	gateway := replay.NewClient(replay.Config{
		BaseURL:  c.cfg.Sync.BaseURL,
		Token:    c.cfg.Device.Token,
		DeviceID: deviceID,
	}, c.log)

	handler := syncqueue.NewReplayHandler(
		gateway, c.pendingRepo, c.walletRepo, c.historyRepo, c.uow, c.bus, c.log,
	)

	c.queue = syncqueue.New(c.queueRepo, c.uow, c.bus, c.log, syncqueue.Config{
		BatchSize:   c.cfg.Sync.BatchSize,
		Heartbeat:   c.cfg.Sync.Heartbeat(),
		MaxInFlight: c.cfg.Sync.MaxInFlight,
	})
	c.queue.RegisterHandler(entities.EntityTypePendingTransaction, handler)
	c.queue.SetSweeper(syncqueue.NewSweeper(
		c.pendingRepo, c.queueRepo, c.log,
		c.cfg.Retention.QueueTTL(), c.cfg.Retention.PendingTTL(),
	))

	// The queue exists now; let the write paths wake it.
	c.createPending.SetTrigger(c.queue)
	c.retryFailed.SetTrigger(c.queue)

	return nil
}

func (c *Container) initPushConsumer(context.Context) error {
	deviceID, err := uuid.Parse(c.cfg.Device.ID)
	if err != nil {
		return fmt.Errorf("invalid device id: %w", err)
	}

	c.consumer = push.NewConsumer(push.Config{
		URL:      c.cfg.Sync.PushURL(),
		Token:    c.cfg.Device.Token,
		DeviceID: deviceID,
	}, c.applyPush, c.bus, c.log)

	return nil
}

func (c *Container) initHTTPServer(context.Context) error {
	authCfg := middleware.DefaultAuthConfig()
	authCfg.DeviceToken = c.cfg.Ops.LocalToken

	router := httpadapter.NewRouterBuilder(&httpadapter.RouterConfig{
		Logger:         c.log,
		DB:             c.db,
		Version:        c.cfg.App.Version,
		Environment:    c.cfg.App.Environment,
		AllowedOrigins: c.cfg.Ops.AllowedOrigins,
		Auth:           authCfg,
		TracingEnabled: c.cfg.Tracing.Enabled,
	}).
		WithPaymentUseCases(&httpadapter.PaymentUseCases{
			CreatePayment: c.createPending,
			GetPayment:    c.getPending,
			ListPayments:  c.listPending,
		}).
		WithWalletUseCases(&httpadapter.WalletUseCases{
			GetWallet: c.getWallet,
		}).
		WithCatalogUseCases(&httpadapter.CatalogUseCases{
			ListCatalog:    c.listCatalog,
			RefreshCatalog: c.refreshCat,
		}).
		WithSyncUseCases(&httpadapter.SyncUseCases{
			GetStats:   c.getStats,
			ListFailed: c.listFailed,
			RetryItem:  c.retryFailed,
			Trigger:    c.queue,
		}).
		Build()

	c.server = httpadapter.NewServer(&httpadapter.ServerConfig{
		Host:            c.cfg.Ops.Host(),
		Port:            c.cfg.Ops.Port(),
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		Logger:          c.log,
	}, router)

	return nil
}

// Start launches the background components. The HTTP server is run by the
// caller so it controls the blocking lifecycle.
func (c *Container) Start(ctx context.Context) {
	c.queue.Start(ctx)
	go c.consumer.Run(ctx)
	c.collector.StartGaugeLoop(ctx, 30*time.Second)

	// Now that subscribers are listening, report a startup recovery.
	if c.recoveredFrom != "" {
		c.bus.Publish(ctx, events.NewStoreRecovered(c.recoveredFrom))
		c.log.Warn("store was corrupt at startup; pending work before the quarantine is lost",
			"quarantine_path", c.recoveredFrom)
	}
}

// Shutdown tears the container down in reverse order of initialisation.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	if c.queue != nil {
		if err := c.queue.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("sync queue shutdown: %w", err))
		}
	}

	if c.tracingShutdown != nil {
		if err := c.tracingShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
		}
	}

	reporting.Flush(2 * time.Second)

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container shutdown errors: %v", errs)
	}
	return nil
}

// ============================================
// Getters
// ============================================

// Config returns the loaded configuration.
func (c *Container) Config() *config.Config { return c.cfg }

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger { return c.log }

// DB returns the store handle.
func (c *Container) DB() *sql.DB { return c.db }

// EventBus returns the in-process event bus.
func (c *Container) EventBus() ports.EventBus { return c.bus }

// Queue returns the sync dispatcher.
func (c *Container) Queue() *syncqueue.Queue { return c.queue }

// Server returns the ops API server.
func (c *Container) Server() *httpadapter.Server { return c.server }

// RecoveredFrom returns the quarantine path when startup recovered a
// corrupt store, empty otherwise.
func (c *Container) RecoveredFrom() string { return c.recoveredFrom }
