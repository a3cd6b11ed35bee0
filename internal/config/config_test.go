package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
  timeout_seconds: 30
fetch:
  relay_url: https://relay.internal/raw
  user_agent: leadscope-bot
  timeout_seconds: 20
  max_attempts: 4
  retry_delay_ms: 250
headless:
  enabled: true
  nav_timeout_seconds: 30
  promotion_body_size: 4096
enrich:
  enabled: true
  endpoint: https://llm.internal/v1/chat/completions
  api_key: secret
  model: gpt-4o
delivery:
  webhook_url: https://hooks.example.com/leads
  store:
    backend: local
    path: /tmp/queue.json
cache:
  backend: memory
snapshot:
  backend: local
  base_dir: /tmp/snapshots
publisher:
  backend: none
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Fetch.RelayURL != "https://relay.internal/raw" || cfg.Fetch.MaxAttempts != 4 {
		t.Fatalf("expected fetch overrides to apply: %+v", cfg.Fetch)
	}
	if !cfg.Headless.Enabled || cfg.Headless.PromotionBodySize != 4096 {
		t.Fatalf("expected headless overrides to apply: %+v", cfg.Headless)
	}
	if !cfg.Enrich.Enabled || cfg.Enrich.APIKey != "secret" {
		t.Fatalf("expected enrich overrides to apply: %+v", cfg.Enrich)
	}
	if cfg.Delivery.WebhookURL != "https://hooks.example.com/leads" {
		t.Fatalf("expected delivery webhook url: %+v", cfg.Delivery)
	}
	if cfg.Snapshot.Backend != "local" || cfg.Snapshot.BaseDir != "/tmp/snapshots" {
		t.Fatalf("expected snapshot overrides to apply: %+v", cfg.Snapshot)
	}
	if cfg.Logging.Development {
		t.Fatal("expected logging.development override to false")
	}
	if got := cfg.FetchTimeout(); got != 20*time.Second {
		t.Fatalf("expected fetch timeout 20s, got %v", got)
	}
	if got := cfg.FetchRetryDelay(); got != 250*time.Millisecond {
		t.Fatalf("expected retry delay 250ms, got %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Fetch.RelayURL == "" {
		t.Fatal("expected default relay url")
	}
	if cfg.Delivery.Store.Backend != "local" {
		t.Fatalf("expected default local queue store, got %q", cfg.Delivery.Store.Backend)
	}
	if cfg.Cache.Backend != "memory" {
		t.Fatalf("expected default memory cache, got %q", cfg.Cache.Backend)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server: ServerConfig{Port: 8080},
		Fetch:  FetchConfig{TimeoutSeconds: 15, MaxAttempts: 3},
		Delivery: DeliveryConfig{
			Store: DeliveryStoreConfig{Backend: "memory"},
		},
		Cache:     CacheConfig{Backend: "memory"},
		Snapshot:  SnapshotConfig{Backend: "none"},
		Publisher: PublisherConfig{Backend: "none"},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid port",
			cfg: func() Config {
				c := base
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "invalid fetch timeout",
			cfg: func() Config {
				c := base
				c.Fetch.TimeoutSeconds = 0
				return c
			}(),
			want: "fetch.timeout_seconds",
		},
		{
			name: "enrich enabled without endpoint",
			cfg: func() Config {
				c := base
				c.Enrich.Enabled = true
				return c
			}(),
			want: "enrich.endpoint",
		},
		{
			name: "local queue without path",
			cfg: func() Config {
				c := base
				c.Delivery.Store.Backend = "local"
				return c
			}(),
			want: "delivery.store.path",
		},
		{
			name: "postgres queue without dsn",
			cfg: func() Config {
				c := base
				c.Delivery.Store.Backend = "postgres"
				return c
			}(),
			want: "delivery.store.dsn",
		},
		{
			name: "unknown cache backend",
			cfg: func() Config {
				c := base
				c.Cache.Backend = "etcd"
				return c
			}(),
			want: "cache backend",
		},
		{
			name: "redis cache without addr",
			cfg: func() Config {
				c := base
				c.Cache.Backend = "redis"
				return c
			}(),
			want: "cache.redis_addr",
		},
		{
			name: "gcs snapshots without bucket",
			cfg: func() Config {
				c := base
				c.Snapshot.Backend = "gcs"
				return c
			}(),
			want: "snapshot.gcs_bucket",
		},
		{
			name: "pubsub without project",
			cfg: func() Config {
				c := base
				c.Publisher.Backend = "pubsub"
				return c
			}(),
			want: "publisher.project_id",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
