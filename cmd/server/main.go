package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/katwe/bakeledger/internal/config"
	"github.com/katwe/bakeledger/internal/domain/models"
	"github.com/katwe/bakeledger/internal/repository/localstore"
	"github.com/katwe/bakeledger/internal/repository/mongodb"
	"github.com/katwe/bakeledger/internal/repository/postgres"
	"github.com/katwe/bakeledger/internal/repository/sheets"
	"github.com/katwe/bakeledger/internal/resolver"
	"github.com/katwe/bakeledger/internal/scheduler"
	"github.com/katwe/bakeledger/internal/server/handlers"
	"github.com/katwe/bakeledger/internal/server/router"
	"github.com/katwe/bakeledger/internal/session"
	exportsvc "github.com/katwe/bakeledger/internal/service/export"
	insightsvc "github.com/katwe/bakeledger/internal/service/insights"
	rangesvc "github.com/katwe/bakeledger/internal/service/rangereader"
	"github.com/katwe/bakeledger/pkg/clients/anthropic"
	"github.com/katwe/bakeledger/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	catalog, err := config.LoadCatalog(cfg.Products.Path)
	if err != nil {
		baseLogger.Fatal("failed to load product catalog", zap.Error(err))
	}

	local, err := localstore.Open(cfg.LocalStore.Path)
	if err != nil {
		baseLogger.Fatal("failed to open durable local store", zap.Error(err))
	}
	defer func() {
		if err := local.Close(); err != nil {
			baseLogger.Error("failed to close local store", zap.Error(err))
		}
	}()

	// A dead remote at boot is not fatal: the store stays local-only and
	// the re-sync job catches up once the remote is reachable again.
	var remote resolver.RemoteStore
	switch cfg.Remote.Backend {
	case config.BackendMongo:
		bootCtx, cancel := context.WithTimeout(context.Background(), cfg.Remote.WriteTimeout)
		repo, err := mongodb.NewRepository(bootCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		cancel()
		if err != nil {
			baseLogger.Warn("mongodb unreachable, continuing local-only", zap.Error(err))
		} else {
			remote = repo
			defer func() {
				if err := repo.Close(context.Background()); err != nil {
					baseLogger.Error("failed to close mongodb connection", zap.Error(err))
				}
			}()
		}
	case config.BackendPostgres:
		bootCtx, cancel := context.WithTimeout(context.Background(), cfg.Remote.WriteTimeout)
		repo, err := postgres.NewRepository(bootCtx, cfg.Postgres.DSN)
		cancel()
		if err != nil {
			baseLogger.Warn("postgres unreachable, continuing local-only", zap.Error(err))
		} else {
			remote = repo
			defer func() {
				if err := repo.Close(); err != nil {
					baseLogger.Error("failed to close postgres pool", zap.Error(err))
				}
			}()
		}
	default:
		baseLogger.Info("no remote backend configured, running local-only")
	}

	res := resolver.New(remote, local, cfg.Remote.WriteTimeout, baseLogger.Named("resolver"))

	limits := models.Limits{
		MaxFlourKgPerProduct: cfg.Limits.MaxFlourKgPerProduct,
		MaxSaleUGX:           cfg.Limits.MaxSaleUGX,
		MaxAdjustmentUGX:     cfg.Limits.MaxAdjustmentUGX,
	}
	sessions := session.NewManager(res, catalog, limits, baseLogger.Named("session"))
	ranges := rangesvc.NewService(res, catalog, baseLogger.Named("svc.ranges"))

	var insights *insightsvc.Service
	if cfg.AI.AnthropicKey != "" {
		aiClient := anthropic.NewClient(cfg.AI.AnthropicKey)
		insights = insightsvc.NewService(ranges, aiClient, baseLogger.Named("svc.insights"))
		baseLogger.Info("anthropic insight client enabled")
	} else {
		baseLogger.Warn("anthropic api key missing, sales insights disabled")
	}

	var exporter *exportsvc.Service
	if cfg.Sheets.CredentialsPath != "" {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(),
			cfg.Sheets.CredentialsPath, cfg.Sheets.SpreadsheetID, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Warn("sheets export unavailable", zap.Error(err))
		} else {
			exporter = exportsvc.NewService(ranges, sheetsRepo, catalog, baseLogger.Named("svc.export"))
		}
	}

	recordHandler := handlers.NewRecordHandler(sessions, baseLogger.Named("handlers.records"))
	summaryHandler := handlers.NewSummaryHandler(ranges, insights, exporter, baseLogger.Named("handlers.summaries"))
	engine := router.New(recordHandler, summaryHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Autosave, sessions, res, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
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
