package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appaudit "github.com/bizmob/backend/internal/application/audit"
	appbackup "github.com/bizmob/backend/internal/application/backup"
	appcatalog "github.com/bizmob/backend/internal/application/catalog"
	"github.com/bizmob/backend/internal/application/identity"
	apppartner "github.com/bizmob/backend/internal/application/partner"
	"github.com/bizmob/backend/internal/application/report"
	appsettings "github.com/bizmob/backend/internal/application/settings"
	appsync "github.com/bizmob/backend/internal/application/sync"
	apptrade "github.com/bizmob/backend/internal/application/trade"
	"github.com/bizmob/backend/internal/infrastructure/auth"
	"github.com/bizmob/backend/internal/infrastructure/config"
	"github.com/bizmob/backend/internal/infrastructure/logger"
	"github.com/bizmob/backend/internal/infrastructure/persistence"
	"github.com/bizmob/backend/internal/interfaces/http/handler"
	"github.com/bizmob/backend/internal/interfaces/http/middleware"
	"github.com/bizmob/backend/internal/interfaces/http/router"
	"github.com/bizmob/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting bizmob backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	kv, err := openKV(cfg)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Error("Error closing storage", zap.Error(err))
		}
	}()
	log.Info("Storage opened", zap.String("driver", cfg.Storage.Driver))

	snaps := persistence.NewSnapshotStore(kv, log)

	st := store.New()
	data, err := snaps.Load(context.Background())
	if err != nil {
		log.Fatal("Failed to load snapshot", zap.Error(err))
	}
	st.Mutate(func(state *store.State) {
		state.Load(data)
	})
	log.Info("Snapshot loaded", zap.Int("version", data.Version))

	rec := appaudit.NewRecorder(log)

	var jwtService *auth.JWTService
	if cfg.Sync.TokenSecret != "" {
		jwtService = auth.NewJWTService(cfg.Sync.TokenSecret, cfg.Sync.TokenExpiration, cfg.Sync.Issuer)
	}

	var remote *appsync.Client
	if cfg.Sync.Endpoint != "" {
		var token string
		if jwtService != nil {
			var userName string
			st.View(func(state *store.State) {
				userName = state.UserName()
			})
			if userName != "" {
				if token, err = jwtService.Generate(userName); err != nil {
					log.Fatal("Failed to issue sync token", zap.Error(err))
				}
			}
		}
		remote = appsync.NewClient(cfg.Sync.Endpoint, token, cfg.Sync.Timeout, log)
		log.Info("Sync peer configured", zap.String("endpoint", cfg.Sync.Endpoint))
	}

	identityService := identity.NewService(st, snaps, jwtService, rec, log)
	settingsService := appsettings.NewService(st, rec, log)
	productService := appcatalog.NewProductService(st, rec, log)
	saleService := apptrade.NewSaleService(st, rec, log)
	purchaseService := apptrade.NewPurchaseService(st, rec, log)
	clientService := apppartner.NewClientService(st, rec, log)
	debtService := apppartner.NewDebtService(st, rec, log)
	reportService := report.NewService(st, log)
	syncService := appsync.NewService(st, remote, rec, log)
	backupService := appbackup.NewService(st, snaps, rec, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	router.Build(engine, router.Handlers{
		Auth:     handler.NewAuthHandler(identityService, settingsService),
		Products: handler.NewProductHandler(productService),
		Trade:    handler.NewTradeHandler(saleService, purchaseService),
		Partners: handler.NewPartnerHandler(clientService, debtService),
		Reports:  handler.NewReportHandler(reportService),
		Sync:     handler.NewSyncHandler(st, syncService, rec),
		Backups:  handler.NewBackupHandler(backupService),
		SyncAuth: middleware.RequireSyncAuth(jwtService, cfg.Sync.AuthRequired),
	})

	// Flush state changes to the key-value backend in the background.
	persistCtx, stopPersister := context.WithCancel(context.Background())
	persister := persistence.NewPersister(st, snaps, cfg.Persist.Debounce, log)
	persistDone := make(chan struct{})
	go func() {
		persister.Run(persistCtx)
		close(persistDone)
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// The persister writes a final snapshot before exiting.
	stopPersister()
	<-persistDone

	log.Info("Server exited gracefully")
}

func openKV(cfg *config.Config) (persistence.KV, error) {
	if cfg.Storage.Driver == "redis" {
		return persistence.NewRedisKV(cfg.Redis.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	}
	return persistence.NewSQLiteKV(cfg.Storage.SQLitePath)
}
