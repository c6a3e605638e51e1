package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cryptometrics/config"
	"cryptometrics/internal/app"
	"cryptometrics/internal/dashboard"
	"cryptometrics/internal/query"
	"cryptometrics/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Log, "dashboard")
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenReadStore(cfg)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer store.Close()

	poller := &dashboard.Poller{
		Engine:  query.NewEngine(store),
		CoinID:  cfg.Dashboard.Coin,
		Refresh: cfg.Dashboard.Refresh,
		Out:     os.Stdout,
		Logger:  log,
	}
	poller.Run(ctx)
}
