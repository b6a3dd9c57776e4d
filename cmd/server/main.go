package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmtrack/internal/config"
	"github.com/mamadbah2/farmtrack/internal/repository"
	"github.com/mamadbah2/farmtrack/internal/repository/mongodb"
	"github.com/mamadbah2/farmtrack/internal/repository/rediscache"
	"github.com/mamadbah2/farmtrack/internal/repository/sheets"
	"github.com/mamadbah2/farmtrack/internal/repository/sqlstore"
	"github.com/mamadbah2/farmtrack/internal/repository/tablestore"
	"github.com/mamadbah2/farmtrack/internal/scheduler"
	"github.com/mamadbah2/farmtrack/internal/server/handlers"
	"github.com/mamadbah2/farmtrack/internal/server/router"
	"github.com/mamadbah2/farmtrack/internal/service/ledger"
	"github.com/mamadbah2/farmtrack/internal/service/reporting"
	"github.com/mamadbah2/farmtrack/internal/service/trips"
	whatsappclient "github.com/mamadbah2/farmtrack/pkg/clients/whatsapp"
	"github.com/mamadbah2/farmtrack/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init quantity store", zap.Error(err))
	}
	defer closeStore()

	ledgerSvc := ledger.NewService(store, baseLogger.Named("svc.ledger"))
	tripSvc := trips.NewService(store, ledgerSvc, baseLogger.Named("svc.trips"),
		trips.WithRejectOverCapacity(cfg.Ledger.RejectOverCapacity))

	var sinks []reporting.Option

	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		sinks = append(sinks, reporting.WithArchive(mongoRepo))
	} else {
		baseLogger.Warn("mongodb uri missing, reconciliation archive disabled")
	}

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sinks = append(sinks, reporting.WithExporter(sheetsRepo))
	}

	if cfg.WhatsApp.Enabled() {
		sinks = append(sinks, reporting.WithAlerter(whatsappclient.NewClient(cfg.WhatsApp)))
		baseLogger.Info("whatsapp over-allocation alerts enabled")
	}

	reportingSvc := reporting.NewService(ledgerSvc, baseLogger.Named("svc.reporting"), sinks...)

	engine := router.New(router.Handlers{
		Ledger:         handlers.NewLedgerHandler(ledgerSvc, baseLogger.Named("handlers.ledger")),
		Trips:          handlers.NewTripHandler(tripSvc, baseLogger.Named("handlers.trips")),
		Reconciliation: handlers.NewReconciliationHandler(reportingSvc, baseLogger.Named("handlers.reconciliation")),
	}, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStore builds the configured quantity store, wrapped in the origin cache
// when REDIS_URL is set.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.TripStore, func(), error) {
	var (
		store   repository.TripStore
		closers []func()
	)

	switch cfg.Store.Driver {
	case config.DriverTables:
		store = tablestore.NewClient(cfg.Tables, log.Named("repo.tables"))
	case config.DriverSQLite, config.DriverPostgres:
		s, err := sqlstore.Open(cfg.Store.Driver, cfg.Store.DSN, log.Named("repo.sql"))
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() {
			if err := s.Close(); err != nil {
				log.Error("failed to close sql store", zap.Error(err))
			}
		})
		store = s
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	if cfg.Redis.URL != "" {
		rdb, err := rediscache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		store = rediscache.New(store, rdb, cfg.Redis.TTL, log.Named("repo.cache"))
		log.Info("origin cache enabled", zap.Duration("ttl", cfg.Redis.TTL))
	}

	return store, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}
