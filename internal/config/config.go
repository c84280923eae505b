// Package config loads the service configuration from the environment and an optional pricing file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/discount"
	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/fjod/go_cart/pos-service/internal/tax"
	"github.com/fjod/go_cart/pos-service/internal/transaction"
)

const (
	CatalogMemory = "memory"
	CatalogSQLite = "sqlite"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	LogLevel       string
	LogDevelopment bool

	CatalogStore string
	SQLiteDSN    string
	RedisAddr    string
	CacheTTL     time.Duration

	KafkaBrokers   []string
	KafkaTopic     string
	OutboxInterval time.Duration

	StoreName string
	Currency  string

	PricingFile string
	Discount    discount.Config
	Tax         tax.Config
	PointValue  int64
}

// Load reads the environment, applies the pricing file when PRICING_FILE is set and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CatalogStore:    strings.ToLower(getEnv("CATALOG_STORE", CatalogMemory)),
		SQLiteDSN:       getEnv("SQLITE_DSN", "file:catalog?mode=memory&cache=shared"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "pos.transactions"),
		StoreName:       getEnv("STORE_NAME", "Go Mart"),
		Currency:        getEnv("CURRENCY", "Rp"),
		PricingFile:     getEnv("PRICING_FILE", ""),
		Discount:        discount.DefaultConfig(),
		Tax:             tax.DefaultConfig(),
		PointValue:      transaction.DefaultPointValue,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CacheTTL:        5 * time.Minute,
		OutboxInterval:  time.Second,
	}

	var err error
	if cfg.LogDevelopment, err = getEnvBool("LOG_DEV", false); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getEnvDuration("CACHE_TTL", cfg.CacheTTL); err != nil {
		return nil, err
	}
	if cfg.OutboxInterval, err = getEnvDuration("OUTBOX_INTERVAL", cfg.OutboxInterval); err != nil {
		return nil, err
	}

	if cfg.PricingFile != "" {
		if err := cfg.applyPricingFile(cfg.PricingFile); err != nil {
			return nil, err
		}
	}

	// Environment wins over the pricing file for the two knobs operators flip most.
	if mode := os.Getenv("TAX_MODE"); mode != "" {
		if cfg.Tax.Mode, err = tax.ParseMode(mode); err != nil {
			return nil, err
		}
	}
	if cfg.PointValue, err = getEnvInt64("POINT_VALUE", cfg.PointValue); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("%w: HTTP_PORT must not be empty", domain.ErrValidation)
	}
	if c.CatalogStore != CatalogMemory && c.CatalogStore != CatalogSQLite {
		return fmt.Errorf("%w: CATALOG_STORE must be %q or %q, got %q", domain.ErrValidation, CatalogMemory, CatalogSQLite, c.CatalogStore)
	}
	if c.CatalogStore == CatalogSQLite && c.SQLiteDSN == "" {
		return fmt.Errorf("%w: SQLITE_DSN is required for the sqlite catalog", domain.ErrValidation)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("%w: KAFKA_TOPIC is required when brokers are set", domain.ErrValidation)
	}
	if c.PointValue <= 0 {
		return fmt.Errorf("%w: POINT_VALUE must be positive", domain.ErrValidation)
	}
	if c.OutboxInterval <= 0 {
		return fmt.Errorf("%w: OUTBOX_INTERVAL must be positive", domain.ErrValidation)
	}
	if err := c.Discount.Validate(); err != nil {
		return err
	}
	return c.Tax.Validate()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", domain.ErrValidation, key, err)
	}
	return b, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrValidation, key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrValidation, key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
