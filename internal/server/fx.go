// Package server provides the core application server and dependency injection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/evergreenlabs/leadscope/internal/analyzer"
	"github.com/evergreenlabs/leadscope/internal/api"
	"github.com/evergreenlabs/leadscope/internal/cache"
	cachememory "github.com/evergreenlabs/leadscope/internal/cache/memory"
	cacheredis "github.com/evergreenlabs/leadscope/internal/cache/redis"
	"github.com/evergreenlabs/leadscope/internal/clock/system"
	"github.com/evergreenlabs/leadscope/internal/config"
	"github.com/evergreenlabs/leadscope/internal/delivery"
	queuelocal "github.com/evergreenlabs/leadscope/internal/delivery/store/local"
	queuememory "github.com/evergreenlabs/leadscope/internal/delivery/store/memory"
	queuepostgres "github.com/evergreenlabs/leadscope/internal/delivery/store/postgres"
	"github.com/evergreenlabs/leadscope/internal/enrich"
	"github.com/evergreenlabs/leadscope/internal/extract"
	"github.com/evergreenlabs/leadscope/internal/fetch/detector"
	headlessfetch "github.com/evergreenlabs/leadscope/internal/fetch/headless"
	"github.com/evergreenlabs/leadscope/internal/fetch/relay"
	"github.com/evergreenlabs/leadscope/internal/game"
	"github.com/evergreenlabs/leadscope/internal/id/uuid"
	"github.com/evergreenlabs/leadscope/internal/logging"
	"github.com/evergreenlabs/leadscope/internal/metrics"
	memorypublisher "github.com/evergreenlabs/leadscope/internal/publisher/memory"
	gcppublisher "github.com/evergreenlabs/leadscope/internal/publisher/pubsub"
	snapshotgcs "github.com/evergreenlabs/leadscope/internal/snapshot/gcs"
	snapshotlocal "github.com/evergreenlabs/leadscope/internal/snapshot/local"
	snapshotmemory "github.com/evergreenlabs/leadscope/internal/snapshot/memory"
)

// drainInterval is how often the delivery queue gets a redelivery pass
// while the server runs. Startup always does an immediate pass first.
const drainInterval = time.Minute

// App contains the application's dependencies.
type App struct {
	cfg          *config.Config
	logger       *zap.Logger
	apiServer    *api.Server
	deliverer    *delivery.Deliverer
	pubsubClient *pubsub.Client
	gcsClient    *storage.Client
	redisCache   *cacheredis.Cache
	pgQueue      *queuepostgres.Store
	headless     *headlessfetch.Fetcher
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	type sanitizedConfig struct {
		ServerPort      int    `json:"server_port"`
		DeliveryBackend string `json:"delivery_backend"`
		CacheBackend    string `json:"cache_backend"`
		SnapshotBackend string `json:"snapshot_backend"`
	}
	safeCfg := sanitizedConfig{
		ServerPort:      cfg.Server.Port,
		DeliveryBackend: cfg.Delivery.Store.Backend,
		CacheBackend:    cfg.Cache.Backend,
		SnapshotBackend: cfg.Snapshot.Backend,
	}
	logger.Info("Creating application", zap.Any("config", safeCfg))
	return &App{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Run starts the application and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application started")
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go a.drainLoop(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	return a.Close(shutdownCtx)
}

// drainLoop redelivers queued webhook payloads: once at startup, then
// on a fixed interval.
func (a *App) drainLoop(ctx context.Context) {
	if a.deliverer == nil || !a.deliverer.Enabled() {
		return
	}
	if err := a.deliverer.Drain(ctx); err != nil {
		a.logger.Warn("startup queue drain failed", zap.Error(err))
	}

	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.deliverer.Drain(ctx); err != nil {
				a.logger.Warn("queue drain failed", zap.Error(err))
			}
		}
	}
}

// Close gracefully shuts down the application.
func (a *App) Close(_ context.Context) error {
	a.closeInfrastructure()
	if err := a.logger.Sync(); err != nil {
		a.logger.Warn("logger sync failed", zap.Error(err))
	}
	a.logger.Info("shutdown complete")
	return nil
}

func (a *App) closeInfrastructure() {
	if a.headless != nil {
		a.headless.Close()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			a.logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if a.pgQueue != nil {
		a.pgQueue.Close()
	}
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	metrics.Init()

	app, err := NewApp(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("app init failed: %w", err)
	}

	app.logger.Info("building application dependencies")

	ids := uuid.New()
	clock := system.New()

	snapshots, err := setupSnapshots(ctx, app)
	if err != nil {
		return nil, err
	}
	reports, err := setupReportCache(ctx, app)
	if err != nil {
		return nil, err
	}
	publisher, err := setupPublisher(ctx, app)
	if err != nil {
		return nil, err
	}
	queueStore, err := setupQueueStore(ctx, app)
	if err != nil {
		return nil, err
	}

	app.deliverer = delivery.New(delivery.Config{
		WebhookURL:  cfg.Delivery.WebhookURL,
		Timeout:     time.Duration(cfg.Delivery.TimeoutSeconds) * time.Second,
		MaxAttempts: cfg.Delivery.MaxAttempts,
	}, queueStore, ids, clock, logger.Named("delivery"))

	fetcher := relay.New(relay.Config{
		RelayURL:  cfg.Fetch.RelayURL,
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	})

	var headless game.Fetcher
	if cfg.Headless.Enabled {
		hf, err := headlessfetch.New(headlessfetch.Config{
			UserAgent:         cfg.Fetch.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		})
		if err != nil {
			app.logger.Warn("headless fetcher init failed", zap.Error(err))
		} else {
			app.headless = hf
			headless = hf
		}
	}

	var enricher game.Enricher
	if cfg.Enrich.Enabled {
		enricher = enrich.New(enrich.Config{
			Endpoint: cfg.Enrich.Endpoint,
			APIKey:   cfg.Enrich.APIKey,
			Model:    cfg.Enrich.Model,
			Timeout:  time.Duration(cfg.Enrich.TimeoutSeconds) * time.Second,
		}, logger.Named("enrich"))
	}

	pipeline, err := analyzer.New(analyzer.Config{
		FetchAttempts: cfg.Fetch.MaxAttempts,
		FetchDelay:    cfg.FetchRetryDelay(),
		FetchTimeout:  cfg.FetchTimeout(),
	}, analyzer.Deps{
		Fetcher:   fetcher,
		Headless:  headless,
		Detector:  detector.NewHeuristic(cfg.Headless.PromotionBodySize),
		Extractor: extract.New(),
		Enricher:  enricher,
		Snapshots: snapshots,
		Publisher: publisher,
		Reports:   reports,
		Clock:     clock,
		IDs:       ids,
		Logger:    logger.Named("analyzer"),
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer init failed: %w", err)
	}

	app.apiServer = api.NewServer(pipeline, app.deliverer, logger.Named("api"), *cfg)
	return app, nil
}

func setupSnapshots(ctx context.Context, app *App) (game.SnapshotStore, error) {
	switch app.cfg.Snapshot.Backend {
	case "gcs":
		app.logger.Info("using GCS snapshot backend", zap.String("bucket", app.cfg.Snapshot.GCSBucket))
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		app.gcsClient = client
		store, err := snapshotgcs.New(client, snapshotgcs.Config{Bucket: app.cfg.Snapshot.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("gcs snapshot store init failed: %w", err)
		}
		return store, nil
	case "local":
		app.logger.Info("using local snapshot backend", zap.String("dir", app.cfg.Snapshot.BaseDir))
		store, err := snapshotlocal.New(snapshotlocal.Config{BaseDir: app.cfg.Snapshot.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("local snapshot store init failed: %w", err)
		}
		return store, nil
	case "memory":
		return snapshotmemory.New(), nil
	default:
		app.logger.Info("page snapshots disabled")
		return nil, nil
	}
}

func setupReportCache(ctx context.Context, app *App) (cache.Cache, error) {
	switch app.cfg.Cache.Backend {
	case "redis":
		app.logger.Info("using redis report cache", zap.String("addr", app.cfg.Cache.RedisAddr))
		c, err := cacheredis.New(ctx, cacheredis.Config{
			Addr: app.cfg.Cache.RedisAddr,
			DB:   app.cfg.Cache.RedisDB,
			TTL:  time.Duration(app.cfg.Cache.TTLSeconds) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("redis cache init failed: %w", err)
		}
		app.redisCache = c
		return c, nil
	default:
		return cachememory.New(), nil
	}
}

func setupPublisher(ctx context.Context, app *App) (game.Publisher, error) {
	switch app.cfg.Publisher.Backend {
	case "pubsub":
		app.logger.Info("using Pub/Sub publisher",
			zap.String("project", app.cfg.Publisher.ProjectID),
			zap.String("topic", app.cfg.Publisher.Topic))
		client, err := pubsub.NewClient(ctx, app.cfg.Publisher.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("pubsub client init failed: %w", err)
		}
		app.pubsubClient = client
		return gcppublisher.New(client)
	case "memory":
		return memorypublisher.New(), nil
	default:
		app.logger.Info("event publishing disabled")
		return nil, nil
	}
}

func setupQueueStore(ctx context.Context, app *App) (delivery.Store, error) {
	switch app.cfg.Delivery.Store.Backend {
	case "postgres":
		app.logger.Info("using postgres delivery queue", zap.String("table", app.cfg.Delivery.Store.Table))
		store, err := queuepostgres.New(ctx, queuepostgres.Config{
			DSN:   app.cfg.Delivery.Store.DSN,
			Table: app.cfg.Delivery.Store.Table,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres queue init failed: %w", err)
		}
		app.pgQueue = store
		return store, nil
	case "local":
		app.logger.Info("using local delivery queue", zap.String("path", app.cfg.Delivery.Store.Path))
		store, err := queuelocal.New(queuelocal.Config{Path: app.cfg.Delivery.Store.Path})
		if err != nil {
			return nil, fmt.Errorf("local queue init failed: %w", err)
		}
		return store, nil
	default:
		return queuememory.New(), nil
	}
}
