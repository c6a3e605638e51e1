package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Coingecko CoingeckoConfig `mapstructure:"coingecko"`
	Collector CollectorConfig `mapstructure:"collector"`
	Store     StoreConfig     `mapstructure:"store"`
	API       APIConfig       `mapstructure:"api"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

// CoingeckoConfig configures the upstream markets endpoint.
type CoingeckoConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`     // optional demo/pro key
	VsCurrency string        `mapstructure:"vs_currency"` // quote currency, e.g. "usd"
	Order      string        `mapstructure:"order"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RatePerMin int           `mapstructure:"rate_per_min"` // 0 disables pacing
}

type CollectorConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	Coins         []string      `mapstructure:"coins"`
	AppendTimeout time.Duration `mapstructure:"append_timeout"`
	StatusSpec    string        `mapstructure:"status_spec"` // cron spec for the stored-count report, "" disables
}

type APIConfig struct {
	Addr           string        `mapstructure:"addr"` // "" disables the query API
	StreamInterval time.Duration `mapstructure:"stream_interval"`
}

type DashboardConfig struct {
	Refresh time.Duration `mapstructure:"refresh"`
	Coin    string        `mapstructure:"coin"` // coin id selected for trend and statistics
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // "" disables the /metrics listener
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// DefaultCoins is the tracked set used when no coin list is configured.
var DefaultCoins = []string{"bitcoin", "ethereum", "solana", "binancecoin", "cardano"}

// setDefaults registers every key. AutomaticEnv is only consulted for keys
// viper already knows, so keys without a useful default get a zero one.
func setDefaults(v *viper.Viper) {
	v.SetDefault("coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("coingecko.api_key", "")
	v.SetDefault("coingecko.vs_currency", "usd")
	v.SetDefault("coingecko.order", "market_cap_desc")
	v.SetDefault("coingecko.timeout", 10*time.Second)
	v.SetDefault("coingecko.rate_per_min", 30)

	v.SetDefault("collector.interval", 30*time.Second)
	v.SetDefault("collector.coins", DefaultCoins)
	v.SetDefault("collector.append_timeout", 5*time.Second)
	v.SetDefault("collector.status_spec", "@every 5m")

	v.SetDefault("store.driver", DriverPostgres)
	v.SetDefault("store.create_database", true)
	v.SetDefault("store.postgres.host", "localhost")
	v.SetDefault("store.postgres.port", 5432)
	v.SetDefault("store.postgres.dbname", "cryptometrics")
	v.SetDefault("store.postgres.user", "")
	v.SetDefault("store.postgres.password", "")
	v.SetDefault("store.postgres.sslmode", "disable")
	v.SetDefault("store.postgres.timezone", "")
	v.SetDefault("store.postgres.max_open_conns", 0)
	v.SetDefault("store.postgres.max_idle_conns", 0)
	v.SetDefault("store.postgres.conn_max_lifetime", time.Duration(0))
	v.SetDefault("store.mysql.host", "localhost")
	v.SetDefault("store.mysql.port", 3306)
	v.SetDefault("store.mysql.user", "")
	v.SetDefault("store.mysql.password", "")
	v.SetDefault("store.mysql.dbname", "cryptometrics")
	v.SetDefault("store.mysql.max_open_conns", 0)
	v.SetDefault("store.mysql.max_idle_conns", 0)
	v.SetDefault("store.mysql.conn_max_lifetime", time.Duration(0))

	v.SetDefault("api.addr", ":8080")
	v.SetDefault("api.stream_interval", 15*time.Second)

	v.SetDefault("dashboard.refresh", 15*time.Second)
	v.SetDefault("dashboard.coin", "bitcoin")

	v.SetDefault("metrics.addr", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "dev")
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
// A .env file in the working directory is loaded into the environment first.
// A missing config.yaml is not an error; defaults and environment apply.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	if dir := os.Getenv("CONFIG_PATH"); dir != "" {
		v.AddConfigPath(dir)
	}
	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "config"))
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}

	// Support environment variables with dot notation (e.g., COLLECTOR_INTERVAL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the collector cannot run with.
func (c *Config) Validate() error {
	if c.Collector.Interval <= 0 {
		return fmt.Errorf("collector.interval must be positive, got %s", c.Collector.Interval)
	}
	if len(c.Collector.Coins) == 0 {
		return errors.New("collector.coins must list at least one coin id")
	}
	for _, id := range c.Collector.Coins {
		if strings.TrimSpace(id) == "" {
			return errors.New("collector.coins contains an empty coin id")
		}
	}
	if c.Coingecko.Timeout <= 0 {
		return fmt.Errorf("coingecko.timeout must be positive, got %s", c.Coingecko.Timeout)
	}
	switch c.Store.Driver {
	case DriverPostgres, DriverMySQL, DriverMemory:
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	return nil
}
