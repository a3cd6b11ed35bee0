package extract

import (
	"regexp"
	"strings"

	"github.com/evergreenlabs/leadscope/internal/game"
)

var (
	mobileFreePattern = regexp.MustCompile(`Free|FREE`)
	mobileGenreRule   = rule("genre-attr", `(?i)genre[^>]*>([^<]+)<`)

	iosReleaseDateRules = []Rule{
		rule("ios-released-label", `(?i)Released[:\s]+([A-Za-z]+\s+\d{1,2},\s+\d{4})`),
		rule("ios-jsonld-date", `(?i)"datePublished":\s*"([^"]+)"`),
		rule("ios-release-date-label", `(?i)Release Date[:\s]*([A-Za-z]+\s+\d{1,2},\s+\d{4})`),
	}

	androidReleaseDateRules = []Rule{
		rule("android-released-on", `(?i)Released on\s+([A-Za-z]+\s+\d{1,2},\s+\d{4})`),
		rule("android-jsonld-date", `(?i)"datePublished":\s*"([^"]+)"`),
	}
)

func extractMobile(html string, pageURL string, data *game.ScrapedData) {
	data.Platform = game.PlatformMobile
	data.PriceText = priceText(html, mobileFreePattern, "unknown")
	data.IsMultiplayer = strings.Contains(strings.ToLower(html), "multiplayer")
	data.ReleaseState = game.ReleaseLive

	// Mobile stores structure genres differently from Steam's tag
	// cloud; a single labeled genre is the best available signal.
	if genre, ok := mobileGenreRule.Apply(html); ok {
		data.Genre = []string{strings.TrimSpace(genre)}
	}

	var dateRules []Rule
	switch {
	case strings.Contains(pageURL, "apps.apple.com"):
		dateRules = iosReleaseDateRules
	case strings.Contains(pageURL, "play.google.com"):
		dateRules = androidReleaseDateRules
	}
	if date, ok := firstMatch(html, dateRules); ok {
		data.LastUpdate = strings.TrimSpace(date)
	}
}
