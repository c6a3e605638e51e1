// Package sqlstore keeps the crypto_metrics series in Postgres or MySQL through gorm.
package sqlstore

import (
	"context"
	"fmt"
	"sync"

	"cryptometrics/config"
	"cryptometrics/pkg/storage"

	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Client struct {
	DB *gorm.DB

	writeMu sync.Mutex // serializes Append
}

var _ storage.Store = (*Client)(nil)

// NewClient opens a gorm handle on the given dialector. Appends run in explicit
// transactions, so gorm's implicit per-statement transaction is disabled.
func NewClient(dialector gorm.Dialector) (*Client, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Client{DB: db}, nil
}

// NewPostgresClient connects with a key/value or URL style DSN.
func NewPostgresClient(dsn string) (*Client, error) {
	return NewClient(postgres.Open(dsn))
}

func NewMySQLClient(dsn string) (*Client, error) {
	return NewClient(mysqldriver.Open(dsn))
}

// InitializeAndMigrate connects to the configured SQL backend, optionally
// creates the Postgres database, and makes sure crypto_metrics exists.
// Calling it against an already initialized database changes nothing.
func InitializeAndMigrate(cfg config.StoreConfig, env string) (*Client, error) {
	if cfg.Driver == config.DriverPostgres && cfg.CreateDatabase {
		if err := CreateDatabase(cfg.Postgres, env); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	client, err := Open(cfg, env)
	if err != nil {
		return nil, err
	}

	if err := client.AutoMigrateObservations(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

// Open connects without touching the schema. Readers use it so that only the
// collector creates the database and table.
func Open(cfg config.StoreConfig, env string) (*Client, error) {
	var (
		client *Client
		err    error
	)

	switch cfg.Driver {
	case config.DriverPostgres:
		client, err = NewPostgresClient(cfg.Postgres.DSN(env))
		if err == nil {
			err = client.configurePool(cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns, cfg.Postgres.ConnMaxLifetime)
		}
	case config.DriverMySQL:
		client, err = NewMySQLClient(cfg.MySQL.DSN())
		if err == nil {
			err = client.configurePool(cfg.MySQL.MaxOpenConns, cfg.MySQL.MaxIdleConns, cfg.MySQL.ConnMaxLifetime)
		}
	default:
		return nil, fmt.Errorf("sqlstore does not handle driver %q", cfg.Driver)
	}
	if err != nil {
		if client != nil {
			_ = client.Close()
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return client, nil
}

func (p *Client) AutoMigrateObservations() error {
	if err := p.DB.AutoMigrate(&ObservationRecord{}); err != nil {
		return fmt.Errorf("auto-migrate %s table: %w", ObservationRecord{}.TableName(), err)
	}
	return nil
}

func (p *Client) IsHealthy(ctx context.Context) bool {
	db, err := p.DB.DB()
	if err != nil {
		return false
	}
	return db.PingContext(ctx) == nil
}

func (p *Client) Close() error {
	db, err := p.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve raw DB: %w", err)
	}
	return db.Close()
}
