package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evergreenlabs/leadscope/internal/cache/memory"
	"github.com/evergreenlabs/leadscope/internal/extract"
	"github.com/evergreenlabs/leadscope/internal/fetch/detector"
	"github.com/evergreenlabs/leadscope/internal/game"
	"github.com/evergreenlabs/leadscope/internal/metrics"
	pubmemory "github.com/evergreenlabs/leadscope/internal/publisher/memory"
	snapmemory "github.com/evergreenlabs/leadscope/internal/snapshot/memory"
)

type stubFetcher struct {
	page     game.Page
	err      error
	failures int
	calls    atomic.Int64
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (game.Page, error) {
	n := f.calls.Add(1)
	if f.err != nil && int(n) <= f.failures {
		return game.Page{}, f.err
	}
	page := f.page
	page.URL = url
	return page, nil
}

type stubEnricher struct {
	result game.EnrichmentResult
	err    error
}

func (e *stubEnricher) Enrich(_ context.Context, _ string, _ string) (game.EnrichmentResult, error) {
	return e.result, e.err
}

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() (string, error) {
	return fmt.Sprintf("analysis-%d", s.n.Add(1)), nil
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

const steamPage = `<html><head><title>Ironveil on Steam</title>
<meta property="og:title" content="Ironveil">
<meta property="og:image" content="https://cdn.example.com/ironveil.jpg">
</head><body>` +
	`<div class="game_purchase_price">$44.99</div>` +
	`<a href="https://store.steampowered.com/tags/en/Strategy/">Strategy</a>` +
	`<div>91% of the 12,345 user reviews are positive</div>` +
	`Single-player and Online Multiplayer</body></html>`

func newAnalyzer(t *testing.T, deps Deps) *Analyzer {
	t.Helper()
	metrics.Init()
	if deps.Extractor == nil {
		deps.Extractor = extract.New()
	}
	if deps.Reports == nil {
		deps.Reports = memory.New()
	}
	if deps.Clock == nil {
		deps.Clock = fixedClock{at: time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)}
	}
	if deps.IDs == nil {
		deps.IDs = &seqIDs{}
	}
	a, err := New(Config{FetchAttempts: 3, FetchDelay: time.Millisecond, FetchTimeout: time.Second}, deps)
	require.NoError(t, err)
	return a
}

func TestAnalyzeFullPipeline(t *testing.T) {
	fetcher := &stubFetcher{page: game.Page{StatusCode: http.StatusOK, Body: []byte(steamPage)}}
	developer := "Ironworks"
	enricher := &stubEnricher{result: game.EnrichmentResult{
		Patch:    game.EnrichmentPatch{Developer: &developer},
		Grounded: true,
		Sources:  []string{"https://en.wikipedia.org/wiki/Ironveil"},
	}}
	snapshots := snapmemory.New()
	publisher := pubmemory.New()
	reports := memory.New()

	a := newAnalyzer(t, Deps{
		Fetcher:   fetcher,
		Enricher:  enricher,
		Snapshots: snapshots,
		Publisher: publisher,
		Reports:   reports,
	})

	rep, err := a.Analyze(context.Background(), "https://store.steampowered.com/app/99/Ironveil/")
	require.NoError(t, err)

	assert.Equal(t, "Ironveil", rep.GameContext.Title)
	assert.Equal(t, "Ironworks", rep.GameContext.Developer, "enrichment patch merged in")
	assert.Equal(t, game.PlatformSteam, rep.GameContext.Platform)
	// $44.99 multiplayer premium title classifies as AA premium.
	assert.Equal(t, game.ArchetypeAAPremium, rep.GameContext.Archetype)
	assert.NotEmpty(t, rep.Opportunities)
	assert.Equal(t, "2026-03-14T09:30:00Z", rep.Timestamp)

	// Event published with the analysis id.
	msgs := publisher.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, TopicAnalysisCompleted, msgs[0].Topic)

	// Report cached and retrievable.
	cached, ok, err := a.LatestReport(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rep.OverallScore, cached.OverallScore)
}

func TestAnalyzeRetriesFetch(t *testing.T) {
	fetcher := &stubFetcher{
		page:     game.Page{StatusCode: http.StatusOK, Body: []byte(steamPage)},
		err:      &game.FetchError{URL: "x", Err: errors.New("relay hiccup")},
		failures: 2,
	}
	a := newAnalyzer(t, Deps{Fetcher: fetcher})

	_, err := a.Analyze(context.Background(), "https://store.steampowered.com/app/99/")
	require.NoError(t, err)
	assert.Equal(t, int64(3), fetcher.calls.Load())
}

func TestAnalyzeSurfacesFetchError(t *testing.T) {
	fetcher := &stubFetcher{
		err:      &game.FetchError{URL: "x", StatusCode: 404, Err: errors.New("not found")},
		failures: 99,
	}
	a := newAnalyzer(t, Deps{Fetcher: fetcher})

	_, err := a.Analyze(context.Background(), "https://store.steampowered.com/app/99/")
	var fe *game.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 404, fe.StatusCode)
}

func TestAnalyzeReturnsValidationError(t *testing.T) {
	// A page with no extractable title produces the unknown sentinel,
	// which fails hard validation.
	fetcher := &stubFetcher{page: game.Page{
		StatusCode: http.StatusOK,
		Body:       []byte("<html><body><p>nothing here</p></body></html>"),
	}}
	a := newAnalyzer(t, Deps{Fetcher: fetcher})

	_, err := a.Analyze(context.Background(), "https://example.com/game")
	var ve *game.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Result.Errors, "game title could not be extracted")
}

func TestAnalyzeHeadlessPromotion(t *testing.T) {
	shell := `<html><body><div id="root"></div></body></html>`
	relay := &stubFetcher{page: game.Page{StatusCode: http.StatusOK, Body: []byte(shell)}}
	rendered := &stubFetcher{page: game.Page{
		StatusCode: http.StatusOK,
		Body:       []byte(steamPage),
		Headless:   true,
	}}

	a := newAnalyzer(t, Deps{
		Fetcher:  relay,
		Headless: rendered,
		Detector: detector.NewHeuristic(0),
	})

	rep, err := a.Analyze(context.Background(), "https://store.steampowered.com/app/99/")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rendered.calls.Load(), "SPA shell promotes to headless")
	assert.Equal(t, "Ironveil", rep.GameContext.Title)
}

func TestAnalyzeHeadlessFailureKeepsRelayBody(t *testing.T) {
	relay := &stubFetcher{page: game.Page{
		StatusCode: http.StatusOK,
		Body:       []byte(`<html><body><div id="root"></div><title>x</title></body></html>`),
	}}
	broken := &stubFetcher{err: errors.New("browser crashed"), failures: 99}

	a := newAnalyzer(t, Deps{Fetcher: relay, Headless: broken})

	// Pipeline proceeds on the relay body and fails validation rather
	// than failing the fetch.
	_, err := a.Analyze(context.Background(), "https://example.com/game")
	var ve *game.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestAnalyzeEnrichmentFailureIsNonFatal(t *testing.T) {
	fetcher := &stubFetcher{page: game.Page{StatusCode: http.StatusOK, Body: []byte(steamPage)}}
	enricher := &stubEnricher{err: errors.New("llm down")}

	a := newAnalyzer(t, Deps{Fetcher: fetcher, Enricher: enricher})

	rep, err := a.Analyze(context.Background(), "https://store.steampowered.com/app/99/")
	require.NoError(t, err)
	assert.Empty(t, rep.GameContext.Developer)
}

func TestAnalyzeRejectsBadURL(t *testing.T) {
	a := newAnalyzer(t, Deps{Fetcher: &stubFetcher{}})

	_, err := a.Analyze(context.Background(), "not-a-url")
	require.Error(t, err)

	_, err = a.Analyze(context.Background(), "ftp://example.com/x")
	require.Error(t, err)
}

func TestManualAnalyze(t *testing.T) {
	a := newAnalyzer(t, Deps{Fetcher: &stubFetcher{}})

	meta := game.GameMetadata{
		Title:        "Handmade Entry",
		Platform:     game.PlatformSteam,
		Price:        game.PaidPrice(14.99),
		ReleaseState: game.ReleaseLive,
		Archetype:    game.ArchetypePremiumSingleplayer,
	}
	rep, err := a.ManualAnalyze(context.Background(), meta, "https://store.steampowered.com/app/7/")
	require.NoError(t, err)
	assert.Equal(t, game.ArchetypePremiumSingleplayer, rep.GameContext.Archetype)

	_, err = a.ManualAnalyze(context.Background(), game.GameMetadata{Platform: "nope"}, "https://x.example")
	var ve *game.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestLatestReportEmpty(t *testing.T) {
	a := newAnalyzer(t, Deps{Fetcher: &stubFetcher{}})
	_, ok, err := a.LatestReport(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
