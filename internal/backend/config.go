package backend

import (
	"fmt"
	"time"

	"bilancio/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	SQLiteDBPath string

	// Empty AMQPURL disables ledger events.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	SummaryConcurrency int

	CategoryCacheSize int
	CategoryCacheTTL  time.Duration
	CacheSweep        time.Duration
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	return Config{
		SQLiteDBPath:       appConfig.SQLiteDBPath,
		AMQPURL:            appConfig.AMQPURL,
		AMQPExchange:       appConfig.AMQPExchange,
		AMQPQueue:          appConfig.AMQPQueue,
		SummaryConcurrency: appConfig.SummaryConcurrency,
		CategoryCacheSize:  1000,
		CategoryCacheTTL:   10 * time.Minute,
		CacheSweep:         time.Minute,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when AMQP URL is set")
	}
	if c.CategoryCacheSize < 0 {
		return fmt.Errorf("invalid category cache size %d", c.CategoryCacheSize)
	}
	return nil
}
