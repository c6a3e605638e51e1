// Package app wires configured components for the command entry points.
package app

import (
	"fmt"

	"cryptometrics/config"
	"cryptometrics/pkg/coingecko"
	"cryptometrics/pkg/storage"
	"cryptometrics/pkg/storage/memory"
	"cryptometrics/pkg/storage/sqlstore"

	"go.uber.org/zap"
)

// OpenStore opens the configured series store and makes sure its schema exists.
// The caller owns the returned store and must Close it.
func OpenStore(cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, observations are lost on exit")
		return memory.NewStore(), nil
	case config.DriverPostgres, config.DriverMySQL:
		client, err := sqlstore.InitializeAndMigrate(cfg.Store, cfg.Log.Environment)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
		}
		logger.Info("series store ready", zap.String("driver", cfg.Store.Driver))
		return client, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// OpenReadStore opens an existing SQL series store for a reader process. It
// neither creates the database nor migrates; a missing table reads as empty.
func OpenReadStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres, config.DriverMySQL:
		client, err := sqlstore.Open(cfg.Store, cfg.Log.Environment)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
		}
		return client, nil
	case config.DriverMemory:
		return nil, fmt.Errorf("the %s driver cannot be shared with another process", cfg.Store.Driver)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func NewFetcher(cfg config.CoingeckoConfig) *coingecko.Client {
	return coingecko.NewClient(coingecko.Options{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		VsCurrency: cfg.VsCurrency,
		Order:      cfg.Order,
		Timeout:    cfg.Timeout,
		RatePerMin: cfg.RatePerMin,
	})
}
