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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Skotchmaster/rocketshoes/internal/cart"
	"github.com/Skotchmaster/rocketshoes/internal/catalogclient"
	"github.com/Skotchmaster/rocketshoes/internal/config"
	"github.com/Skotchmaster/rocketshoes/internal/httpserver"
	"github.com/Skotchmaster/rocketshoes/internal/logging"
	loggingmw "github.com/Skotchmaster/rocketshoes/internal/middleware/logging"
	"github.com/Skotchmaster/rocketshoes/internal/metrics"
	"github.com/Skotchmaster/rocketshoes/internal/mykafka"
	"github.com/Skotchmaster/rocketshoes/internal/notify"
	"github.com/Skotchmaster/rocketshoes/internal/storage"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(logging.Options{Service: cfg.ServiceName, Level: cfg.LogLevel})
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	slot, closer, err := storage.Open(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}

	deps := cart.Deps{
		Catalog:  catalogclient.NewClient(cfg.CatalogURL),
		Storage:  slot,
		Notifier: notify.Logger{Log: logger},
		Recorder: metrics.NewCart(prometheus.DefaultRegisterer),
	}

	var prod *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod, err = mykafka.NewProducer(cfg.KafkaBrokers, cfg.CartTopic)
		if err != nil {
			log.Fatalf("kafka init error: %v", err)
		}
		deps.Publisher = prod
	}

	loadCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := cart.New(logging.IntoContext(loadCtx, logger), deps)
	cancel()
	if err != nil {
		log.Fatalf("cart load error: %v", err)
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
		CartHandler: &httpserver.CartHTTP{Store: store},
		Metrics:     promhttp.Handler(),
	})

	go func() {
		logger.Info("cart_service_starting", "addr", cfg.Addr(), "storage", cfg.StorageDriver)
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
	if err := closer.Close(); err != nil {
		logger.Error("storage_close", "error", err)
	}
	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka_close", "error", err)
		}
	}

	logger.Info("server_stopped")
}
