package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"cryptometrics/config"
	"cryptometrics/internal/api"
	"cryptometrics/internal/app"
	"cryptometrics/internal/collector"
	"cryptometrics/internal/query"
	"cryptometrics/logger"
	"cryptometrics/pkg/storage"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// zap logger
	log, err := logger.New(cfg.Log, "collector")
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer store.Close()

	metrics := collector.NewMetrics()
	scheduler := collector.NewScheduler(app.NewFetcher(cfg.Coingecko), store, log, collector.Options{
		Coins:         cfg.Collector.Coins,
		Interval:      cfg.Collector.Interval,
		AppendTimeout: cfg.Collector.AppendTimeout,
		Metrics:       metrics,
	})

	if cfg.Collector.StatusSpec != "" {
		status, err := collector.StartStatusReporter(cfg.Collector.StatusSpec, store, scheduler, log)
		if err != nil {
			log.Fatal("invalid collector.status_spec", zap.Error(err))
		}
		defer status.Stop()
	}

	var wg sync.WaitGroup
	if cfg.API.Addr != "" {
		server := api.NewServer(query.NewEngine(store), log, cfg.API.StreamInterval)
		if hc, ok := store.(storage.HealthChecker); ok {
			server.WithHealthCheck(hc)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.Serve(ctx, cfg.API.Addr, server.Router(metrics.Registry), log)
		}()
	}
	if cfg.Metrics.Addr != "" && cfg.Metrics.Addr != cfg.API.Addr {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.Serve(ctx, cfg.Metrics.Addr, api.MetricsRouter(metrics.Registry), log)
		}()
	}

	// blocks until SIGINT/SIGTERM; an in-flight tick finishes first
	scheduler.Run(ctx)
	wg.Wait()
}
