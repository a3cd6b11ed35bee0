package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/evergreenlabs/leadscope/internal/game"
	"github.com/evergreenlabs/leadscope/internal/metrics"
)

// answerFor routes a fake chat completion by the research question in
// the user message.
func answerFor(prompt string) string {
	switch {
	case strings.Contains(prompt, "developer and publisher"):
		return `{"developer": "Chucklefish", "publisher": "Chucklefish", "sources": [{"title": "Wiki", "url": "https://en.wikipedia.org/wiki/Wargroove"}]}`
	case strings.Contains(prompt, "Which platforms"):
		return "```json\n{\"platforms\": [\"Windows\", \"Nintendo Switch\"], \"sources\": []}\n```"
	case strings.Contains(prompt, "USD price"):
		return `{"priceUSD": 19.99, "currency": "USD", "sources": [{"title": "Steam", "url": "https://store.steampowered.com/app/607050"}]}`
	case strings.Contains(prompt, "review count"):
		return `{"reviewCount": 4821, "reviewScore": 87.4, "sources": [{"title": "Steam", "url": "https://store.steampowered.com/app/607050"}]}`
	case strings.Contains(prompt, "copies"):
		return `this is not json at all`
	default:
		return `{}`
	}
}

func newChatServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)

		resp := fmt.Sprintf(`{"choices": [{"message": {"role": "assistant", "content": %s}}]}`,
			mustJSONString(answerFor(req.Messages[1].Content)))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resp))
	}))
}

func mustJSONString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestEnrichMergesQueryAnswers(t *testing.T) {
	metrics.Init()
	srv := newChatServer(t)
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, APIKey: "test", Timeout: 5 * time.Second}, zap.NewNop())
	result, err := c.Enrich(context.Background(), "Wargroove", "https://store.steampowered.com/app/607050/Wargroove/")
	require.NoError(t, err)

	require.NotNil(t, result.Patch.Developer)
	assert.Equal(t, "Chucklefish", *result.Patch.Developer)
	assert.Equal(t, []string{"Windows", "Nintendo Switch"}, result.Patch.Platforms)

	require.NotNil(t, result.Patch.Price)
	assert.Equal(t, game.PaidPrice(19.99), *result.Patch.Price)

	require.NotNil(t, result.Patch.ReviewCount)
	assert.Equal(t, 4821, *result.Patch.ReviewCount)
	require.NotNil(t, result.Patch.ReviewScore)
	assert.Equal(t, 87, *result.Patch.ReviewScore, "fractional scores round to int")

	// The players query returned garbage: the whole enrichment still
	// succeeds, just without those fields.
	assert.Nil(t, result.Patch.CopiesSold)
	assert.Nil(t, result.Patch.PeakPlayers)

	assert.True(t, result.Grounded)
	assert.Equal(t, []string{
		"https://en.wikipedia.org/wiki/Wargroove",
		"https://store.steampowered.com/app/607050",
	}, result.Sources, "citations are deduplicated")
}

func TestEnrichDegradesToEmptyPatch(t *testing.T) {
	metrics.Init()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, Timeout: 2 * time.Second}, zap.NewNop())
	result, err := c.Enrich(context.Background(), "Anything", "https://example.com/game")
	require.NoError(t, err, "query failures never fail the enrichment")
	assert.True(t, result.Patch.Empty())
	assert.False(t, result.Grounded)
	assert.Empty(t, result.Sources)
}

func TestEnrichFreePriceMapping(t *testing.T) {
	metrics.Init()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		answer := `{}`
		if strings.Contains(req.Messages[1].Content, "USD price") {
			answer = `{"priceUSD": 0, "currency": "free", "sources": []}`
		}
		resp := fmt.Sprintf(`{"choices": [{"message": {"role": "assistant", "content": %s}}]}`,
			mustJSONString(answer))
		_, _ = w.Write([]byte(resp))
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, Timeout: 5 * time.Second}, zap.NewNop())
	result, err := c.Enrich(context.Background(), "Dota 2", "https://store.steampowered.com/app/570/")
	require.NoError(t, err)
	require.NotNil(t, result.Patch.Price)
	assert.True(t, result.Patch.Price.Free)
}

func TestSiteScope(t *testing.T) {
	assert.Equal(t, "site:steampowered.com OR site:wikipedia.org",
		siteScope("https://store.steampowered.com/app/570/"))
	assert.Equal(t, "site:itch.io OR site:wikipedia.org",
		siteScope("https://someone.itch.io/game"))
	assert.Equal(t, "site:wikipedia.org", siteScope("https://example.com/game"))
	assert.Equal(t, "site:wikipedia.org", siteScope("::not a url::"))
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}
