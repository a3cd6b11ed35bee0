// Package report turns classified game metadata into an opportunity
// report: a deterministic rule table keyed by archetype produces
// revenue opportunities, and the overall score is derived from how
// many of them fired.
package report

import (
	"sort"
	"time"

	"github.com/evergreenlabs/leadscope/internal/game"
)

// Relevance ranks how urgent an opportunity is.
type Relevance string

// Relevance levels, most urgent first.
const (
	RelevanceCritical Relevance = "critical"
	RelevanceHigh     Relevance = "high"
	RelevanceMedium   Relevance = "medium"
)

func relevanceOrder(r Relevance) int {
	switch r {
	case RelevanceCritical:
		return 0
	case RelevanceHigh:
		return 1
	case RelevanceMedium:
		return 2
	default:
		return 3
	}
}

// Opportunity is one concrete revenue recommendation.
type Opportunity struct {
	Category  string    `json:"category"`
	Diagnosis string    `json:"diagnosis"`
	Actions   []string  `json:"actions"`
	Relevance Relevance `json:"relevance"`
}

// Report is the final analysis result returned to clients.
type Report struct {
	GameContext   game.GameMetadata `json:"gameContext"`
	OverallScore  int               `json:"overallScore"`
	Opportunities []Opportunity     `json:"opportunities"`
	GameURL       string            `json:"gameUrl"`
	Timestamp     string            `json:"timestamp"`
}

// Build produces a report for already-classified metadata. The score is
// computed over every opportunity that fired, then the list is cut to
// the top three.
func Build(metadata game.GameMetadata, gameURL string, now time.Time) Report {
	opportunities := detect(metadata)
	score := calculateScore(opportunities, metadata.Archetype)

	if len(opportunities) > 3 {
		opportunities = opportunities[:3]
	}

	return Report{
		GameContext:   metadata,
		OverallScore:  score,
		Opportunities: opportunities,
		GameURL:       gameURL,
		Timestamp:     now.UTC().Format(time.RFC3339),
	}
}

func detect(metadata game.GameMetadata) []Opportunity {
	var opportunities []Opportunity

	switch metadata.Archetype {
	case game.ArchetypePremiumSingleplayer:
		opportunities = premiumSingleplayer(metadata)
	case game.ArchetypeF2PMobile:
		opportunities = f2pMobile()
	case game.ArchetypeLiveService:
		opportunities = liveService(metadata)
	case game.ArchetypeEarlyStage:
		opportunities = earlyStage(metadata)
	case game.ArchetypeAAPremium:
		opportunities = aaPremium()
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return relevanceOrder(opportunities[i].Relevance) < relevanceOrder(opportunities[j].Relevance)
	})
	return opportunities
}

func premiumSingleplayer(metadata game.GameMetadata) []Opportunity {
	var opportunities []Opportunity

	if !metadata.Price.Free && metadata.Price.Amount < 10 {
		opportunities = append(opportunities, Opportunity{
			Category:  "Pricing Strategy",
			Diagnosis: "Price point may be undervaluing your game compared to market expectations",
			Actions: []string{
				"Research comparable titles in your genre to establish market-rate pricing",
				"Test a launch discount strategy (15-20% off) to build early momentum while targeting higher base price",
			},
			Relevance: RelevanceHigh,
		})
	}

	if metadata.ReviewScore != nil && *metadata.ReviewScore < 75 {
		opportunities = append(opportunities, Opportunity{
			Category:  "User Experience",
			Diagnosis: "Review score indicates friction in core experience or expectations mismatch",
			Actions: []string{
				"Analyze negative reviews to identify top 3 recurring complaints",
				"Add optional tutorial or difficulty settings to reduce early-game frustration",
			},
			Relevance: RelevanceCritical,
		})
	}

	opportunities = append(opportunities, Opportunity{
		Category:  "Launch Optimization",
		Diagnosis: "Premium single-player games benefit from strong launch momentum and word-of-mouth",
		Actions: []string{
			"Add a free demo to improve wishlist-to-purchase conversion by 20-30%",
			"Prepare 3-5 key creator outreach messages with game keys for launch week",
		},
		Relevance: RelevanceHigh,
	})

	return opportunities
}

func f2pMobile() []Opportunity {
	return []Opportunity{
		{
			Category:  "Monetization Structure",
			Diagnosis: "F2P mobile games need clear IAP value hierarchy to maximize conversion",
			Actions: []string{
				"Add a 'Best Value' visual badge to your mid-tier IAP pack to anchor player perception",
				"Test a $0.99 starter pack within first 3 minutes of gameplay to convert early engagement",
			},
			Relevance: RelevanceCritical,
		},
		{
			Category:  "Retention Systems",
			Diagnosis: "Mobile games live or die on daily active user retention and habit formation",
			Actions: []string{
				"Implement a 7-day login calendar with escalating rewards to build daily habit",
				"Add a comeback reward triggered 24 hours after last session to recover lapsed players",
			},
			Relevance: RelevanceCritical,
		},
		{
			Category:  "Recurring Revenue",
			Diagnosis: "Subscription models increase lifetime value 3-5x for engaged mobile players",
			Actions: []string{
				"Design a VIP subscription ($4.99-$9.99/month) with exclusive cosmetics and convenience bonuses",
				"Offer first-time subscribers a 3-day free trial to reduce friction",
			},
			Relevance: RelevanceHigh,
		},
	}
}

func liveService(metadata game.GameMetadata) []Opportunity {
	opportunities := []Opportunity{
		{
			Category:  "Content Rhythm",
			Diagnosis: "Live service games require consistent content updates to maintain player engagement",
			Actions: []string{
				"Publish a 6-week content roadmap visible in-game and on social channels",
				"Establish a weekly mini-event and bi-weekly major update schedule to create reliable touchpoints",
			},
			Relevance: RelevanceCritical,
		},
		{
			Category:  "Community Management",
			Diagnosis: "Active communities drive word-of-mouth growth and improve retention by 25-40%",
			Actions: []string{
				"Create a Discord server with auto-roles for verified players and clear channel structure",
				"Post one gameplay clip or community highlight per week to feed social channels",
			},
			Relevance: RelevanceHigh,
		},
	}

	if metadata.Price.Free {
		opportunities = append(opportunities, Opportunity{
			Category:  "Battle Pass Design",
			Diagnosis: "Free live-service games need battle pass or season systems for recurring revenue",
			Actions: []string{
				"Design a 60-day battle pass with 50 tiers priced at $9.99 with cosmetic rewards",
				"Offer a free track with 20% of rewards to showcase value to non-payers",
			},
			Relevance: RelevanceHigh,
		})
	}

	return opportunities
}

func earlyStage(metadata game.GameMetadata) []Opportunity {
	opportunities := []Opportunity{
		{
			Category:  "Audience Building",
			Diagnosis: "Pre-launch games must build an email list and community before launch day",
			Actions: []string{
				"Add email capture to your game's website with a launch-day notification promise",
				"Create a Discord server now and seed it with alpha/beta testers for day-one momentum",
			},
			Relevance: RelevanceCritical,
		},
	}

	if metadata.ReleaseState == game.ReleaseEarlyAccess {
		opportunities = append(opportunities, Opportunity{
			Category:  "Early Access Strategy",
			Diagnosis: "Early Access games need clear roadmap communication to set expectations",
			Actions: []string{
				"Publish a public roadmap showing planned features and estimated timelines",
				"Establish a bi-weekly devlog cadence to build transparency and trust",
			},
			Relevance: RelevanceCritical,
		})
	} else {
		opportunities = append(opportunities, Opportunity{
			Category:  "Pre-Launch Demo",
			Diagnosis: "Pre-launch demos increase wishlist conversion and provide valuable feedback",
			Actions: []string{
				"Submit a polished 30-60 minute demo to Steam Next Fest or equivalent event",
				"Add clear 'Wishlist Now' CTAs at demo completion to capture engaged players",
			},
			Relevance: RelevanceHigh,
		})
	}

	opportunities = append(opportunities, Opportunity{
		Category:  "Launch Timing",
		Diagnosis: "Launch windows heavily impact first-week visibility and sales momentum",
		Actions: []string{
			"Avoid major AAA releases and holidays - target January, March, or September windows",
			"Prepare 10+ game keys for creator outreach starting 2 weeks before launch",
		},
		Relevance: RelevanceMedium,
	})

	return opportunities
}

func aaPremium() []Opportunity {
	return []Opportunity{
		{
			Category:  "Post-Launch Revenue",
			Diagnosis: "Premium AA/AAA titles benefit from planned DLC and season pass strategies",
			Actions: []string{
				"Design a Year 1 content roadmap with 2-3 major DLC drops priced at $15-$25 each",
				"Offer a season pass pre-order at 15-20% discount to secure early commitment",
			},
			Relevance: RelevanceHigh,
		},
		{
			Category:  "Community Engagement",
			Diagnosis: "AAA games require active community management for sustained player base",
			Actions: []string{
				"Establish official forums or Discord with dedicated community managers",
				"Run monthly community events or challenges with in-game rewards",
			},
			Relevance: RelevanceMedium,
		},
	}
}

type scoreWeights struct {
	critical int
	high     int
	medium   int
}

// Archetypes carry different penalty weights: genres where the missed
// opportunity costs more revenue score harsher.
var weightsByArchetype = map[game.Archetype]scoreWeights{
	game.ArchetypePremiumSingleplayer: {critical: 20, high: 12, medium: 8},
	game.ArchetypeF2PMobile:           {critical: 25, high: 15, medium: 8},
	game.ArchetypeLiveService:         {critical: 25, high: 15, medium: 10},
	game.ArchetypeEarlyStage:          {critical: 20, high: 12, medium: 8},
	game.ArchetypeAAPremium:           {critical: 18, high: 12, medium: 8},
}

func calculateScore(opportunities []Opportunity, archetype game.Archetype) int {
	weights, ok := weightsByArchetype[archetype]
	if !ok {
		weights = weightsByArchetype[game.ArchetypePremiumSingleplayer]
	}

	penalty := 0
	for _, o := range opportunities {
		switch o.Relevance {
		case RelevanceCritical:
			penalty += weights.critical
		case RelevanceHigh:
			penalty += weights.high
		case RelevanceMedium:
			penalty += weights.medium
		}
	}

	score := 100 - penalty
	if score < 0 {
		score = 0
	}
	return score
}

// ScoreInterpretation renders the score as a one-line verdict. The
// strong/moderate thresholds differ per archetype.
func ScoreInterpretation(score int, archetype game.Archetype) string {
	type thresholds struct{ strong, moderate int }
	table := map[game.Archetype]thresholds{
		game.ArchetypePremiumSingleplayer: {strong: 70, moderate: 50},
		game.ArchetypeF2PMobile:           {strong: 75, moderate: 55},
		game.ArchetypeLiveService:         {strong: 75, moderate: 55},
		game.ArchetypeEarlyStage:          {strong: 70, moderate: 50},
		game.ArchetypeAAPremium:           {strong: 80, moderate: 60},
	}

	th, ok := table[archetype]
	if !ok {
		th = thresholds{strong: 70, moderate: 50}
	}

	switch {
	case score >= th.strong:
		return "Strong foundation"
	case score >= th.moderate:
		return "Solid base with optimization opportunities"
	default:
		return "Significant revenue optimization opportunities"
	}
}
