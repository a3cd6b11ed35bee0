// Package enrich fills in metadata fields that are unreliable from
// storefront HTML alone by asking an OpenAI-compatible chat endpoint a
// set of narrow, schema-constrained research questions.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/evergreenlabs/leadscope/internal/game"
	"github.com/evergreenlabs/leadscope/internal/metrics"
)

// Config controls the enrichment client.
type Config struct {
	Endpoint string // chat completions URL
	APIKey   string
	Model    string
	Timeout  time.Duration // per-query budget
}

// Client implements game.Enricher. Each call issues five independent
// queries; any of them may fail without failing the enrichment as a
// whole. A query whose answer does not parse contributes nothing.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates an enrichment client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

var _ game.Enricher = (*Client)(nil)

const systemPrompt = `You are a video game market research assistant. ` +
	`Answer from current public knowledge of the game named in the question. ` +
	`Respond with a single JSON object matching the requested schema exactly: ` +
	`no markdown fences, no commentary, null for anything you cannot confirm. ` +
	`Cite the web pages your answer is based on in a "sources" array of ` +
	`{"title": string, "url": string} objects; leave it empty if you are answering from memory.`

type query struct {
	kind   string
	prompt string
	apply  func(raw []byte, patch *game.EnrichmentPatch) ([]source, error)
}

// Enrich runs the five research queries concurrently and merges their
// answers into one patch. It only returns an error when the parent
// context is cancelled; per-query failures degrade to missing fields.
func (c *Client) Enrich(ctx context.Context, title string, storeURL string) (game.EnrichmentResult, error) {
	scope := siteScope(storeURL)
	queries := []query{
		{
			kind: "identity",
			prompt: fmt.Sprintf(`Who are the developer and publisher of the game %q? Search scope: %s. `+
				`Schema: {"developer": string|null, "publisher": string|null, "sources": [{"title": string, "url": string}]}`,
				title, scope),
			apply: applyIdentity,
		},
		{
			kind: "platforms",
			prompt: fmt.Sprintf(`Which platforms is the game %q available on (Windows, Mac, Linux, PlayStation, Xbox, Nintendo Switch, iOS, Android, Steam Deck)? `+
				`Schema: {"platforms": [string], "sources": [{"title": string, "url": string}]}`,
				title),
			apply: applyPlatforms,
		},
		{
			kind: "price",
			prompt: fmt.Sprintf(`What is the current USD price of the game %q? Search scope: %s. `+
				`For free-to-play games set priceUSD to 0 and currency to "free". `+
				`Schema: {"priceUSD": number|null, "currency": string|null, "sources": [{"title": string, "url": string}]}`,
				title, scope),
			apply: applyPrice,
		},
		{
			kind: "reviews",
			prompt: fmt.Sprintf(`What are the review count and aggregate review score (0-100) of the game %q? `+
				`Search scope: site:steampowered.com OR site:metacritic.com. `+
				`Schema: {"reviewCount": number|null, "reviewScore": number|null, "sources": [{"title": string, "url": string}]}`,
				title),
			apply: applyReviews,
		},
		{
			kind: "players",
			prompt: fmt.Sprintf(`How many copies has the game %q sold, and what is its peak concurrent player count? `+
				`Search scope: site:steamdb.info OR %s. `+
				`Schema: {"copiesSold": number|null, "peakPlayers": number|null, "sources": [{"title": string, "url": string}]}`,
				title, scope),
			apply: applyPlayers,
		},
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		patch   game.EnrichmentPatch
		sources []source
	)
	for _, q := range queries {
		wg.Add(1)
		go func(q query) {
			defer wg.Done()

			raw, err := c.ask(ctx, q.prompt)
			if err != nil {
				metrics.ObserveEnrichQuery(q.kind, false)
				c.logger.Warn("enrichment query failed",
					zap.String("kind", q.kind),
					zap.String("title", title),
					zap.Error(err))
				return
			}

			mu.Lock()
			defer mu.Unlock()
			srcs, err := q.apply(raw, &patch)
			if err != nil {
				metrics.ObserveEnrichQuery(q.kind, false)
				c.logger.Warn("enrichment answer did not parse",
					zap.String("kind", q.kind),
					zap.String("title", title),
					zap.Error(err))
				return
			}
			metrics.ObserveEnrichQuery(q.kind, true)
			sources = append(sources, srcs...)
		}(q)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return game.EnrichmentResult{}, err
	}

	urls := dedupeSources(sources)
	return game.EnrichmentResult{
		Patch:    patch,
		Grounded: len(urls) > 0,
		Sources:  urls,
	}, nil
}

// ask performs one chat completion round trip and returns the answer
// content with any markdown fences stripped.
func (c *Client) ask(ctx context.Context, prompt string) ([]byte, error) {
	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("chat endpoint returned no choices")
	}

	return []byte(stripFences(parsed.Choices[0].Message.Content)), nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

func applyIdentity(raw []byte, patch *game.EnrichmentPatch) ([]source, error) {
	var answer struct {
		Developer *string  `json:"developer"`
		Publisher *string  `json:"publisher"`
		Sources   []source `json:"sources"`
	}
	if err := json.Unmarshal(raw, &answer); err != nil {
		return nil, err
	}
	if answer.Developer != nil && strings.TrimSpace(*answer.Developer) != "" {
		patch.Developer = answer.Developer
	}
	if answer.Publisher != nil && strings.TrimSpace(*answer.Publisher) != "" {
		patch.Publisher = answer.Publisher
	}
	return answer.Sources, nil
}

func applyPlatforms(raw []byte, patch *game.EnrichmentPatch) ([]source, error) {
	var answer struct {
		Platforms []string `json:"platforms"`
		Sources   []source `json:"sources"`
	}
	if err := json.Unmarshal(raw, &answer); err != nil {
		return nil, err
	}
	for _, p := range answer.Platforms {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			patch.Platforms = append(patch.Platforms, trimmed)
		}
	}
	return answer.Sources, nil
}

func applyPrice(raw []byte, patch *game.EnrichmentPatch) ([]source, error) {
	var answer struct {
		PriceUSD *float64 `json:"priceUSD"`
		Currency *string  `json:"currency"`
		Sources  []source `json:"sources"`
	}
	if err := json.Unmarshal(raw, &answer); err != nil {
		return nil, err
	}
	switch {
	case answer.PriceUSD != nil && *answer.PriceUSD == 0:
		price := game.FreePrice()
		patch.Price = &price
	case answer.PriceUSD != nil && *answer.PriceUSD > 0:
		price := game.PaidPrice(*answer.PriceUSD)
		patch.Price = &price
	case answer.Currency != nil && strings.EqualFold(*answer.Currency, "free"):
		price := game.FreePrice()
		patch.Price = &price
	}
	return answer.Sources, nil
}

func applyReviews(raw []byte, patch *game.EnrichmentPatch) ([]source, error) {
	var answer struct {
		ReviewCount *float64 `json:"reviewCount"`
		ReviewScore *float64 `json:"reviewScore"`
		Sources     []source `json:"sources"`
	}
	if err := json.Unmarshal(raw, &answer); err != nil {
		return nil, err
	}
	if answer.ReviewCount != nil && *answer.ReviewCount >= 0 {
		count := int(math.Round(*answer.ReviewCount))
		patch.ReviewCount = &count
	}
	if answer.ReviewScore != nil && *answer.ReviewScore >= 0 && *answer.ReviewScore <= 100 {
		score := int(math.Round(*answer.ReviewScore))
		patch.ReviewScore = &score
	}
	return answer.Sources, nil
}

func applyPlayers(raw []byte, patch *game.EnrichmentPatch) ([]source, error) {
	var answer struct {
		CopiesSold  *float64 `json:"copiesSold"`
		PeakPlayers *float64 `json:"peakPlayers"`
		Sources     []source `json:"sources"`
	}
	if err := json.Unmarshal(raw, &answer); err != nil {
		return nil, err
	}
	if answer.CopiesSold != nil && *answer.CopiesSold >= 0 {
		sold := int(math.Round(*answer.CopiesSold))
		patch.CopiesSold = &sold
	}
	if answer.PeakPlayers != nil && *answer.PeakPlayers >= 0 {
		peak := int(math.Round(*answer.PeakPlayers))
		patch.PeakPlayers = &peak
	}
	return answer.Sources, nil
}

// siteScope narrows research queries to the storefront family the URL
// belongs to, falling back to Wikipedia.
func siteScope(storeURL string) string {
	host := ""
	if u, err := url.Parse(storeURL); err == nil {
		host = strings.ToLower(u.Hostname())
	}
	switch {
	case strings.Contains(host, "steampowered.com"):
		return "site:steampowered.com OR site:wikipedia.org"
	case strings.Contains(host, "playstation.com"):
		return "site:playstation.com OR site:wikipedia.org"
	case strings.Contains(host, "xbox.com"):
		return "site:xbox.com OR site:wikipedia.org"
	case strings.Contains(host, "nintendo.com"):
		return "site:nintendo.com OR site:wikipedia.org"
	case strings.Contains(host, "epicgames.com"):
		return "site:epicgames.com OR site:wikipedia.org"
	case strings.Contains(host, "gog.com"):
		return "site:gog.com OR site:wikipedia.org"
	case strings.Contains(host, "itch.io"):
		return "site:itch.io OR site:wikipedia.org"
	default:
		return "site:wikipedia.org"
	}
}

// stripFences removes a surrounding markdown code fence if the model
// added one despite instructions.
func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func dedupeSources(sources []source) []string {
	seen := make(map[string]struct{}, len(sources))
	urls := make([]string, 0, len(sources))
	for _, s := range sources {
		u := strings.TrimSpace(s.URL)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}
