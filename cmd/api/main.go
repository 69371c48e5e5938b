package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cinalli-racing/lubricentro-backend/api/routes"
	"github.com/cinalli-racing/lubricentro-backend/internal/connectivity"
	productsvc "github.com/cinalli-racing/lubricentro-backend/internal/products"
	purchasesvc "github.com/cinalli-racing/lubricentro-backend/internal/purchasing"
	"github.com/cinalli-racing/lubricentro-backend/internal/reconcile"
	"github.com/cinalli-racing/lubricentro-backend/internal/remote"
	salesvc "github.com/cinalli-racing/lubricentro-backend/internal/sales"
	"github.com/cinalli-racing/lubricentro-backend/internal/syncstate"
	"github.com/cinalli-racing/lubricentro-backend/pkg/config"
	"github.com/cinalli-racing/lubricentro-backend/pkg/localstore"
	"github.com/cinalli-racing/lubricentro-backend/pkg/logger"
	"github.com/cinalli-racing/lubricentro-backend/pkg/metrics"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	store, err := openStore(cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open local store", err)
		os.Exit(1)
	}
	defer func() {
		if closer, ok := store.(localstore.Closer); ok {
			if err := closer.Close(); err != nil {
				logg.Error(context.Background(), "error closing local store", err)
			}
		}
	}()

	remoteClient, err := remote.NewClient(cfg.Remote, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build remote client", err)
		os.Exit(1)
	}

	repo := syncstate.NewRepository(store, logg)

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	prober := connectivity.NewProber(remoteClient, cfg.Sync.ProbeInterval, logg)
	engine := reconcile.NewEngine(repo, remoteClient, prober, logg, syncMetrics)
	syncCtrl := reconcile.NewController(engine, repo, prober, logg)

	productService, err := productsvc.NewService(repo, remoteClient, prober, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build product service", err)
		os.Exit(1)
	}
	saleService, err := salesvc.NewService(repo, remoteClient, prober, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build sale service", err)
		os.Exit(1)
	}
	purchaseService, err := purchasesvc.NewService(repo, remoteClient, prober, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build purchase service", err)
		os.Exit(1)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prober.Start(runCtx)
	defer prober.Stop()
	syncCtrl.Start(runCtx)
	defer syncCtrl.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":   cfg.App.Env,
		"addr":  addr,
		"store": cfg.Store.Driver,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, store, repo, prober, syncCtrl,
			productService, saleService, purchaseService, registry,
		),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logg.Info(ctx, "shutting down api server")
		if err := server.Shutdown(context.Background()); err != nil {
			logg.Error(ctx, "error during shutdown", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config, logg *logger.Logger) (localstore.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverSQLite:
		return localstore.OpenSQLite(cfg.Store.SQLitePath)
	case config.StoreDriverRedis:
		return localstore.OpenRedis(context.Background(), cfg.Redis)
	default:
		logg.Warn(context.Background(), "using in-memory store, local state will not survive restarts")
		return localstore.NewMemory(), nil
	}
}
