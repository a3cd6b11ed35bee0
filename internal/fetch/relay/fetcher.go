// Package relay implements the page fetch adapter. Requests are routed
// through a content relay that strips cross-origin restrictions, since
// storefronts reject direct third-party fetches from the tool's
// deployment context.
package relay

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/evergreenlabs/leadscope/internal/game"
)

// DefaultRelayURL is the public passthrough relay used when none is
// configured.
const DefaultRelayURL = "https://api.allorigins.win/raw"

// Config controls fetch behavior.
type Config struct {
	RelayURL  string
	UserAgent string
	Timeout   time.Duration
}

// Fetcher implements game.Fetcher using a Colly collector pointed at
// the relay. Retry lives in the retry controller, never here.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.RelayURL == "" {
		cfg.RelayURL = DefaultRelayURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

var _ game.Fetcher = (*Fetcher)(nil)

// Fetch retrieves the target page through the relay. The returned Page
// keeps the original target URL so downstream family dispatch sees the
// storefront, not the relay.
func (f *Fetcher) Fetch(ctx context.Context, target string) (game.Page, error) {
	relayed := fmt.Sprintf("%s?url=%s", f.cfg.RelayURL, url.QueryEscape(target))

	var (
		page     game.Page
		fetchErr error
	)
	start := time.Now()

	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)

	collector.OnResponse(func(r *colly.Response) {
		page = game.Page{
			URL:        target,
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = &game.FetchError{URL: target, StatusCode: status, Err: err}
	})

	if err := f.visit(ctx, collector, relayed); err != nil {
		if fetchErr != nil {
			// OnError captured the HTTP detail; prefer it.
			return game.Page{}, fetchErr
		}
		return game.Page{}, &game.FetchError{URL: target, Err: err}
	}
	if fetchErr != nil {
		return game.Page{}, fetchErr
	}
	if page.StatusCode == 0 {
		return game.Page{}, &game.FetchError{URL: target, Err: fmt.Errorf("no response received")}
	}
	return page, nil
}

func (f *Fetcher) visit(ctx context.Context, collector *colly.Collector, target string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
