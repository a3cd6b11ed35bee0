// Package headless fetches storefront pages that only render their
// metadata client-side, using a headless browser.
package headless

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/evergreenlabs/leadscope/internal/game"
)

// Config controls the headless fetcher.
type Config struct {
	UserAgent         string
	NavigationTimeout time.Duration
}

// Fetcher implements game.Fetcher with chromedp. Unlike the relay
// fetcher it navigates directly: a real browser has no cross-origin
// restriction to bypass.
type Fetcher struct {
	cfg         Config
	allocator   context.Context
	allocCancel context.CancelFunc
}

// New creates a headless fetcher backed by chromedp.
func New(cfg Config) (*Fetcher, error) {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Fetcher{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

var _ game.Fetcher = (*Fetcher)(nil)

// Close cancels the allocator context.
func (f *Fetcher) Close() {
	f.allocCancel()
}

// Fetch navigates with a headless browser and returns the rendered DOM.
func (f *Fetcher) Fetch(ctx context.Context, target string) (game.Page, error) {
	taskCtx, taskCancel := chromedp.NewContext(f.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, f.cfg.NavigationTimeout)
	defer cancel()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			taskCancel()
		case <-stop:
		}
	}()

	status := statusRecorder{target: target}
	chromedp.ListenTarget(taskCtx, status.capture)

	var html string
	actions := []chromedp.Action{
		network.Enable(),
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if f.cfg.UserAgent != "" {
		actions = append([]chromedp.Action{emulateUserAgent(f.cfg.UserAgent)}, actions...)
	}

	start := time.Now()
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return game.Page{}, &game.FetchError{URL: target, Err: fmt.Errorf("headless navigation: %w", err)}
	}

	return game.Page{
		URL:        target,
		StatusCode: status.statusOr(http.StatusOK),
		Body:       []byte(html),
		Duration:   time.Since(start),
		Headless:   true,
	}, nil
}

func emulateUserAgent(ua string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return emulation.SetUserAgentOverride(ua).Do(ctx)
	})
}

// statusRecorder keeps the status of the main document response.
type statusRecorder struct {
	target string
	status int
}

func (s *statusRecorder) capture(ev any) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument {
		return
	}
	if s.status == 0 {
		s.status = int(resp.Response.Status)
	}
}

func (s *statusRecorder) statusOr(fallback int) int {
	if s.status == 0 {
		return fallback
	}
	return s.status
}
