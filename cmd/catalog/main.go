package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/rocketshoes/internal/catalog/httpserver"
	"github.com/Skotchmaster/rocketshoes/internal/catalog/repo"
	"github.com/Skotchmaster/rocketshoes/internal/catalog/search"
	"github.com/Skotchmaster/rocketshoes/internal/catalog/service"
	"github.com/Skotchmaster/rocketshoes/internal/config"
	"github.com/Skotchmaster/rocketshoes/internal/db"
	"github.com/Skotchmaster/rocketshoes/internal/logging"
	loggingmw "github.com/Skotchmaster/rocketshoes/internal/middleware/logging"
)

func main() {
	cfg, overridden := config.Load().ForCatalog()

	logger := logging.New(logging.Options{Service: cfg.ServiceName, Level: cfg.LogLevel})
	slog.SetDefault(logger)
	if overridden != "" {
		logger.Warn("catalog_driver_overridden", "requested", overridden, "using", cfg.StorageDriver, "dsn", cfg.DatabaseURL)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gdb, err := db.Open(initCtx, cfg.StorageDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	catalogRepo := &repo.GormRepo{DB: gdb}
	if err := catalogRepo.Migrate(initCtx); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	svc := &service.CatalogService{Repo: catalogRepo}

	if cfg.ESURL != "" {
		es, err := search.NewClient(search.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword, Index: cfg.ESIndex})
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		svc.Search = &search.Index{ES: es, Name: cfg.ESIndex}
	}

	if cfg.CatalogSeedFile != "" {
		n, err := svc.SeedFromFile(initCtx, cfg.CatalogSeedFile)
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		logger.Info("catalog_seeded", "products", n, "file", cfg.CatalogSeedFile)

		if ix, ok := svc.Search.(*search.Index); ok && n > 0 {
			_, products, err := svc.GetProducts(initCtx, 0, n)
			if err == nil {
				err = ix.IndexProducts(initCtx, products)
			}
			if err != nil {
				logger.Error("catalog_index_failed", "error", err)
			}
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORS())

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler: &httpserver.CatalogHTTP{Svc: svc},
	})

	go func() {
		logger.Info("catalog_service_starting", "addr", cfg.Addr())
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close", "error", err)
	}

	logger.Info("server_stopped")
}
