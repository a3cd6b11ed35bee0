// Package extract turns raw storefront markup into a metadata draft
// using per-family heuristics.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/evergreenlabs/leadscope/internal/game"
)

// maxGenres caps the genre list; storefront tag clouds run long and
// only the leading entries carry signal.
const maxGenres = 3

var titleTagRule = rule("title-tag", `(?i)<title>([^<]+)</title>`)

// HeuristicExtractor dispatches page text to storefront-family rules.
// The zero value is ready to use.
type HeuristicExtractor struct{}

// New returns a HeuristicExtractor.
func New() *HeuristicExtractor {
	return &HeuristicExtractor{}
}

var _ game.Extractor = (*HeuristicExtractor)(nil)

// Extract parses raw page text into a draft. Family dispatch is by URL
// substring in fixed priority: steam, then mobile stores, then itch,
// then the generic web fallback.
func (e *HeuristicExtractor) Extract(html string, pageURL string) game.ScrapedData {
	data := game.ScrapedData{}

	title, description, image := openGraph(html)
	if title == "" {
		if t, ok := titleTagRule.Apply(html); ok {
			title = strings.TrimSpace(t)
		}
	}
	data.Title = title
	data.Description = description
	data.ImageURL = image

	switch {
	case strings.Contains(pageURL, "steampowered.com"):
		extractSteam(html, &data)
	case strings.Contains(pageURL, "apps.apple.com"), strings.Contains(pageURL, "play.google.com"):
		extractMobile(html, pageURL, &data)
	case strings.Contains(pageURL, "itch.io"):
		extractItch(html, &data)
	default:
		data.Platform = game.PlatformWeb
		data.PriceText = "free"
		data.IsMultiplayer = false
		data.ReleaseState = game.ReleaseLive
	}

	return data
}

// openGraph reads og: meta tags with a real HTML parser; attribute
// ordering in store markup is too erratic for patterns here.
func openGraph(html string) (title, description, image string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", ""
	}
	lookup := func(property string) string {
		content, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
		return strings.TrimSpace(content)
	}
	return lookup("og:title"), lookup("og:description"), lookup("og:image")
}

var multiplayerMarkers = []string{"multiplayer", "multi-player"}

func mentionsMultiplayer(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range multiplayerMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

var dollarPriceRule = rule("dollar-amount", `\$(\d+(?:\.\d*)?)`)

// priceText normalizes a price signal: a free marker wins, then a
// dollar amount, then the fallback sentinel.
func priceText(html string, freePattern *regexp.Regexp, fallback string) string {
	if freePattern.MatchString(html) {
		return "free"
	}
	if amount, ok := dollarPriceRule.Apply(html); ok {
		return amount
	}
	return fallback
}
