// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Enrich    EnrichConfig    `mapstructure:"enrich"`
	Delivery  DeliveryConfig  `mapstructure:"delivery"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// FetchConfig governs the relay fetch stage.
type FetchConfig struct {
	RelayURL       string `mapstructure:"relay_url"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
	RetryDelayMs   int    `mapstructure:"retry_delay_ms"`
}

// HeadlessConfig configures the headless rendering fallback.
type HeadlessConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	NavTimeoutSec     int  `mapstructure:"nav_timeout_seconds"`
	PromotionBodySize int  `mapstructure:"promotion_body_size"`
}

// EnrichConfig configures the enrichment client.
type EnrichConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Endpoint       string `mapstructure:"endpoint"`
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// DeliveryConfig controls webhook delivery and its retry queue.
type DeliveryConfig struct {
	WebhookURL     string              `mapstructure:"webhook_url"`
	TimeoutSeconds int                 `mapstructure:"timeout_seconds"`
	MaxAttempts    int                 `mapstructure:"max_attempts"`
	Store          DeliveryStoreConfig `mapstructure:"store"`
}

// DeliveryStoreConfig selects and configures the queue backend.
type DeliveryStoreConfig struct {
	Backend string `mapstructure:"backend"` // memory, local, postgres
	Path    string `mapstructure:"path"`    // local backend
	DSN     string `mapstructure:"dsn"`     // postgres backend
	Table   string `mapstructure:"table"`
}

// CacheConfig selects and configures the report cache backend.
type CacheConfig struct {
	Backend    string `mapstructure:"backend"` // memory, redis
	RedisAddr  string `mapstructure:"redis_addr"`
	RedisDB    int    `mapstructure:"redis_db"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// SnapshotConfig selects and configures the page snapshot backend.
type SnapshotConfig struct {
	Backend   string `mapstructure:"backend"` // none, memory, local, gcs
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// PublisherConfig holds metadata for analysis event notifications.
type PublisherConfig struct {
	Backend   string `mapstructure:"backend"` // none, memory, pubsub
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEADSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 60)
	v.SetDefault("fetch.relay_url", "https://api.allorigins.win/raw")
	v.SetDefault("fetch.timeout_seconds", 15)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.retry_delay_ms", 1000)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("headless.promotion_body_size", 2048)
	v.SetDefault("enrich.enabled", false)
	v.SetDefault("enrich.model", "gpt-4o-mini")
	v.SetDefault("enrich.timeout_seconds", 20)
	v.SetDefault("delivery.timeout_seconds", 10)
	v.SetDefault("delivery.max_attempts", 3)
	v.SetDefault("delivery.store.backend", "local")
	v.SetDefault("delivery.store.path", "data/webhook_queue.json")
	v.SetDefault("delivery.store.table", "webhook_queue")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("snapshot.backend", "none")
	v.SetDefault("publisher.backend", "none")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("fetch.max_attempts must be > 0")
	}
	if c.Enrich.Enabled && c.Enrich.Endpoint == "" {
		return fmt.Errorf("enrich.endpoint must be set when enrichment is enabled")
	}
	switch c.Delivery.Store.Backend {
	case "memory":
	case "local":
		if c.Delivery.Store.Path == "" {
			return fmt.Errorf("delivery.store.path must be set for the local backend")
		}
	case "postgres":
		if c.Delivery.Store.DSN == "" {
			return fmt.Errorf("delivery.store.dsn must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown delivery store backend %q", c.Delivery.Store.Backend)
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr must be set for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Snapshot.Backend {
	case "none", "memory":
	case "local":
		if c.Snapshot.BaseDir == "" {
			return fmt.Errorf("snapshot.base_dir must be set for the local backend")
		}
	case "gcs":
		if c.Snapshot.GCSBucket == "" {
			return fmt.Errorf("snapshot.gcs_bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown snapshot backend %q", c.Snapshot.Backend)
	}
	switch c.Publisher.Backend {
	case "none", "memory":
	case "pubsub":
		if c.Publisher.ProjectID == "" || c.Publisher.Topic == "" {
			return fmt.Errorf("publisher.project_id and publisher.topic must be set for the pubsub backend")
		}
	default:
		return fmt.Errorf("unknown publisher backend %q", c.Publisher.Backend)
	}
	return nil
}

// FetchTimeout returns the fetch stage budget as a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// FetchRetryDelay returns the base backoff delay between fetch attempts.
func (c Config) FetchRetryDelay() time.Duration {
	return time.Duration(c.Fetch.RetryDelayMs) * time.Millisecond
}
