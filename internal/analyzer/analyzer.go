// Package analyzer orchestrates the analysis pipeline: fetch the
// storefront page, extract a draft, enrich it, merge, validate,
// classify, and build the opportunity report.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/evergreenlabs/leadscope/internal/cache"
	"github.com/evergreenlabs/leadscope/internal/fetch/detector"
	"github.com/evergreenlabs/leadscope/internal/game"
	"github.com/evergreenlabs/leadscope/internal/metrics"
	"github.com/evergreenlabs/leadscope/internal/report"
	"github.com/evergreenlabs/leadscope/internal/retry"
)

// TopicAnalysisCompleted receives one event per successful analysis.
const TopicAnalysisCompleted = "analysis.completed"

// Config tunes the fetch stage.
type Config struct {
	FetchAttempts int
	FetchDelay    time.Duration
	FetchTimeout  time.Duration
}

// Analyzer runs the full pipeline. The fetcher, extractor and cache are
// required; headless, enricher, snapshots and publisher are optional
// and degrade to skipped stages when nil.
type Analyzer struct {
	cfg       Config
	fetcher   game.Fetcher
	headless  game.Fetcher
	detector  *detector.Heuristic
	extractor game.Extractor
	enricher  game.Enricher
	snapshots game.SnapshotStore
	publisher game.Publisher
	reports   cache.Cache
	clock     game.Clock
	ids       game.IDGenerator
	logger    *zap.Logger
}

// Deps bundles the pipeline collaborators.
type Deps struct {
	Fetcher   game.Fetcher
	Headless  game.Fetcher
	Detector  *detector.Heuristic
	Extractor game.Extractor
	Enricher  game.Enricher
	Snapshots game.SnapshotStore
	Publisher game.Publisher
	Reports   cache.Cache
	Clock     game.Clock
	IDs       game.IDGenerator
	Logger    *zap.Logger
}

// New creates an Analyzer.
func New(cfg Config, deps Deps) (*Analyzer, error) {
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if deps.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if deps.Reports == nil {
		return nil, fmt.Errorf("report cache is required")
	}
	if deps.Clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if deps.IDs == nil {
		return nil, fmt.Errorf("id generator is required")
	}
	if cfg.FetchAttempts <= 0 {
		cfg.FetchAttempts = 3
	}
	if cfg.FetchDelay <= 0 {
		cfg.FetchDelay = time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if deps.Detector == nil {
		deps.Detector = detector.NewHeuristic(0)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Analyzer{
		cfg:       cfg,
		fetcher:   deps.Fetcher,
		headless:  deps.Headless,
		detector:  deps.Detector,
		extractor: deps.Extractor,
		enricher:  deps.Enricher,
		snapshots: deps.Snapshots,
		publisher: deps.Publisher,
		reports:   deps.Reports,
		clock:     deps.Clock,
		ids:       deps.IDs,
		logger:    deps.Logger,
	}, nil
}

// Analyze runs the pipeline for one storefront URL. A failed fetch
// returns a *game.FetchError; hard validation failure returns a
// *game.ValidationError so callers can route users to manual entry.
func (a *Analyzer) Analyze(ctx context.Context, target string) (report.Report, error) {
	if err := validateTarget(target); err != nil {
		return report.Report{}, err
	}

	analysisID, err := a.ids.NewID()
	if err != nil {
		return report.Report{}, fmt.Errorf("generate analysis id: %w", err)
	}
	logger := a.logger.With(zap.String("analysis_id", analysisID), zap.String("url", target))

	page, err := a.fetchPage(ctx, target, logger)
	if err != nil {
		metrics.ObserveAnalysis("fetch_failed")
		return report.Report{}, err
	}

	a.snapshotPage(ctx, analysisID, page, logger)

	draft := a.extractor.Extract(string(page.Body), page.URL)
	meta := game.BuildMetadata(draft)

	meta = a.enrichMetadata(ctx, meta, target, logger)

	if result := game.Validate(meta); !result.IsValid {
		metrics.ObserveAnalysis("validation_failed")
		logger.Info("metadata failed validation",
			zap.Strings("errors", result.Errors),
			zap.Strings("warnings", result.Warnings))
		return report.Report{}, &game.ValidationError{Result: result}
	} else if len(result.Warnings) > 0 {
		logger.Warn("metadata validation warnings", zap.Strings("warnings", result.Warnings))
	}

	meta.Archetype = game.Classify(meta)

	rep := report.Build(meta, target, a.clock.Now())
	a.cacheReport(ctx, rep, logger)
	a.publishCompleted(ctx, analysisID, rep, logger)

	metrics.ObserveAnalysis("success")
	logger.Info("analysis completed",
		zap.String("title", meta.Title),
		zap.String("archetype", string(meta.Archetype)),
		zap.Int("score", rep.OverallScore))
	return rep, nil
}

// LatestReport returns the most recently cached report.
func (a *Analyzer) LatestReport(ctx context.Context) (report.Report, bool, error) {
	data, ok, err := a.reports.Get(ctx, cache.LastReportKey)
	if err != nil || !ok {
		return report.Report{}, false, err
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return report.Report{}, false, fmt.Errorf("decode cached report: %w", err)
	}
	return rep, true, nil
}

func validateTarget(target string) error {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid target url %q", target)
	}
	return nil
}

// fetchPage retries the relay fetch and promotes to the headless
// browser when the body looks client-rendered.
func (a *Analyzer) fetchPage(ctx context.Context, target string, logger *zap.Logger) (game.Page, error) {
	page, err := retry.Do(ctx, func(attemptCtx context.Context) (game.Page, error) {
		return a.fetcher.Fetch(attemptCtx, target)
	}, retry.Options{
		MaxAttempts: a.cfg.FetchAttempts,
		Delay:       a.cfg.FetchDelay,
		Timeout:     a.cfg.FetchTimeout,
		OnRetry: func(attempt int, attemptErr error) {
			metrics.ObserveFetchRetry()
			logger.Warn("page fetch attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(attemptErr))
		},
	})
	if err != nil {
		return game.Page{}, err
	}
	metrics.ObserveFetch("relay", page.Duration)

	if a.headless == nil || !a.detector.ShouldPromote(page) {
		return page, nil
	}

	logger.Info("promoting to headless fetch", zap.Int("relay_body_bytes", len(page.Body)))
	rendered, err := a.headless.Fetch(ctx, target)
	if err != nil {
		// The relay body is still usable; extraction just sees less.
		logger.Warn("headless fetch failed, keeping relay body", zap.Error(err))
		return page, nil
	}
	metrics.ObserveFetch("headless", rendered.Duration)
	return rendered, nil
}

// snapshotPage archives the raw body. Best-effort: failures are logged
// and the pipeline continues.
func (a *Analyzer) snapshotPage(ctx context.Context, analysisID string, page game.Page, logger *zap.Logger) {
	if a.snapshots == nil || len(page.Body) == 0 {
		return
	}
	path := fmt.Sprintf("snapshots/%s/%s.html", a.clock.Now().UTC().Format("2006/01/02"), analysisID)
	uri, err := a.snapshots.Put(ctx, path, "text/html", page.Body)
	if err != nil {
		logger.Warn("failed to store page snapshot", zap.Error(err))
		return
	}
	logger.Debug("page snapshot stored", zap.String("uri", uri))
}

// enrichMetadata merges the enrichment patch in. Best-effort: an
// enrichment failure leaves the extracted record untouched.
func (a *Analyzer) enrichMetadata(ctx context.Context, meta game.GameMetadata, target string, logger *zap.Logger) game.GameMetadata {
	if a.enricher == nil || meta.Title == game.UnknownTitle {
		return meta
	}

	result, err := a.enricher.Enrich(ctx, meta.Title, target)
	if err != nil {
		logger.Warn("enrichment failed", zap.Error(err))
		return meta
	}
	if result.Patch.Empty() {
		logger.Debug("enrichment returned no data")
		return meta
	}
	logger.Debug("enrichment patch applied",
		zap.Bool("grounded", result.Grounded),
		zap.Int("sources", len(result.Sources)))
	return game.Merge(meta, result.Patch)
}

func (a *Analyzer) cacheReport(ctx context.Context, rep report.Report, logger *zap.Logger) {
	data, err := json.Marshal(rep)
	if err != nil {
		logger.Error("failed to encode report for cache", zap.Error(err))
		return
	}
	if err := a.reports.Put(ctx, cache.LastReportKey, data); err != nil {
		logger.Warn("failed to cache report", zap.Error(err))
	}
}

type completedEvent struct {
	AnalysisID   string `json:"analysisId"`
	GameURL      string `json:"gameUrl"`
	Title        string `json:"title"`
	Archetype    string `json:"archetype"`
	OverallScore int    `json:"overallScore"`
	Timestamp    string `json:"timestamp"`
}

func (a *Analyzer) publishCompleted(ctx context.Context, analysisID string, rep report.Report, logger *zap.Logger) {
	if a.publisher == nil {
		return
	}
	event := completedEvent{
		AnalysisID:   analysisID,
		GameURL:      rep.GameURL,
		Title:        rep.GameContext.Title,
		Archetype:    string(rep.GameContext.Archetype),
		OverallScore: rep.OverallScore,
		Timestamp:    rep.Timestamp,
	}
	if _, err := a.publisher.Publish(ctx, TopicAnalysisCompleted, event); err != nil {
		logger.Warn("failed to publish analysis event", zap.Error(err))
	}
}

// ManualAnalyze builds a report directly from user-entered metadata,
// bypassing fetch and enrichment. Used when automatic analysis fails
// validation and the caller falls back to manual entry.
func (a *Analyzer) ManualAnalyze(ctx context.Context, meta game.GameMetadata, target string) (report.Report, error) {
	if strings.TrimSpace(meta.Title) == "" {
		meta.Title = game.UnknownTitle
	}
	if result := game.Validate(meta); !result.IsValid {
		return report.Report{}, &game.ValidationError{Result: result}
	}
	meta.Archetype = game.Classify(meta)

	rep := report.Build(meta, target, a.clock.Now())
	a.cacheReport(ctx, rep, a.logger)
	metrics.ObserveAnalysis("manual")
	return rep, nil
}
