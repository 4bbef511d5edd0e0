package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitos/crypto_price_tracker/internal/domain"
	"github.com/vitos/crypto_price_tracker/internal/infrastructure/config"
	"github.com/vitos/crypto_price_tracker/internal/infrastructure/exchange"
	"github.com/vitos/crypto_price_tracker/internal/infrastructure/logger"
	"github.com/vitos/crypto_price_tracker/internal/infrastructure/metrics"
	"github.com/vitos/crypto_price_tracker/internal/infrastructure/storage"
	"github.com/vitos/crypto_price_tracker/internal/usecase"
	"github.com/vitos/crypto_price_tracker/internal/web"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	var log *zap.Logger
	if cfg.Logging.File != "" {
		log, err = logger.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	} else {
		log, err = logger.NewLogger(cfg.Logging.Level)
	}
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage
	store, err := storage.NewSQLiteStore(cfg.Storage.Path, log)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	// 4. Init Sources, in fallback order
	client := exchange.NewHTTPClient(cfg.Sources.Timeout)
	sources := []domain.PriceSource{
		exchange.NewBinanceAdapter(cfg.Sources.BinanceURL, client),
		exchange.NewCoinGeckoAdapter(cfg.Sources.ProxyURL, cfg.Sources.CoinGeckoURL, exchange.HighLowPolicy(cfg.Sources.HighLowPolicy), client),
		exchange.NewKrakenAdapter(cfg.Sources.KrakenURL, client),
	}

	// 5. Init Services
	m := metrics.NewMetrics(cfg.Metrics.Namespace)
	hub := web.NewHub(log)
	resolver := usecase.NewPriceResolver(sources, m, log)
	alerts := usecase.NewAlertService(store, log)

	selected, _ := domain.LookupAsset(cfg.Assets.Default)
	session := usecase.NewTrackerSession(selected)
	session.SetCompare(cfg.Assets.Compare)

	tracker := usecase.NewTrackerService(resolver, alerts, session, hub, m, log)
	compare := usecase.NewCompareService(resolver, hub, log)

	// 6. Start Polling
	scheduler := usecase.NewScheduler(cfg.Polling.Interval, usecase.RefreshTick(tracker, compare, log), log)
	scheduler.Start(context.Background())

	// 7. Init Web Server
	server := web.NewServer(cfg.Server.Port, tracker, resolver, compare, alerts, scheduler, hub, m, log)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 8. Start Server
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 9. Wait for Shutdown
	<-stop

	log.Info("Shutting down...")
	scheduler.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}
