package extract

import (
	"strings"

	"github.com/evergreenlabs/leadscope/internal/game"
)

var itchReleaseDateRules = []Rule{
	rule("itch-published-label", `(?i)Published[:\s]+([A-Za-z]+\s+\d{1,2},\s+\d{4})`),
	// itch often renders relative times with the full date in the
	// abbr title attribute.
	rule("itch-abbr-title", `(?i)<abbr[^>]*title="([^"]+)"[^>]*>\d+\s+(?:days?|months?|years?)\s+ago</abbr>`),
}

func extractItch(html string, data *game.ScrapedData) {
	data.Platform = game.PlatformIndie
	// Most itch pages are pay-what-you-want; free is the honest default
	// when no dollar amount is present.
	data.PriceText = priceText(html, mobileFreePattern, "free")
	data.IsMultiplayer = strings.Contains(strings.ToLower(html), "multiplayer")
	data.ReleaseState = game.ReleaseLive

	if date, ok := firstMatch(html, itchReleaseDateRules); ok {
		data.LastUpdate = strings.TrimSpace(date)
	}
}
