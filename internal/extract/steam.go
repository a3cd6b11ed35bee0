package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/evergreenlabs/leadscope/internal/game"
)

var (
	steamFreePattern  = regexp.MustCompile(`(?i)free to play`)
	steamGenrePattern = regexp.MustCompile(`(?i)<a[^>]*href="[^"]*tags[^"]*"[^>]*>([^<]+)</a>`)
	steamReviewRule   = rule("review-percent", `(?i)(\d+)% of [^<]* positive`)

	// Steam publishes the release date in several places; strongest
	// signal first.
	steamReleaseDateRules = []Rule{
		rule("release-date-label", `(?i)Release Date[:\s]*([A-Za-z]+\s+\d{1,2},\s+\d{4})`),
		rule("release-date-div", `(?is)<div class="release_date">.*?<div class="date">([^<]+)</div>`),
		rule("meta-date-published", `(?i)<meta itemprop="datePublished" content="([^"]+)"`),
		rule("jsonld-date-published", `"datePublished":\s*"([^"]+)"`),
	}
)

func extractSteam(html string, data *game.ScrapedData) {
	data.Platform = game.PlatformSteam
	data.PriceText = priceText(html, steamFreePattern, "unknown")
	data.Genre = steamGenres(html)
	data.IsMultiplayer = mentionsMultiplayer(html)
	data.ReleaseState = steamReleaseState(html)

	if score, ok := steamReviewRule.Apply(html); ok {
		if n, err := strconv.Atoi(score); err == nil {
			data.ReviewScore = &n
		}
	}
	if date, ok := firstMatch(html, steamReleaseDateRules); ok {
		data.LastUpdate = strings.TrimSpace(date)
	}
}

func steamGenres(html string) []string {
	var genres []string
	for _, m := range steamGenrePattern.FindAllStringSubmatch(html, -1) {
		genres = append(genres, strings.TrimSpace(m[1]))
		if len(genres) == maxGenres {
			break
		}
	}
	return genres
}

func steamReleaseState(html string) game.ReleaseState {
	switch {
	case strings.Contains(html, "Early Access"):
		return game.ReleaseEarlyAccess
	case strings.Contains(html, "Coming Soon"), strings.Contains(html, "Upcoming"):
		return game.ReleaseUpcoming
	default:
		return game.ReleaseLive
	}
}
