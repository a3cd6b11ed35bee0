// Package game defines core types shared across the analysis pipeline.
package game

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Platform is the primary distribution channel for a game.
type Platform string

// Supported platform values.
const (
	PlatformSteam   Platform = "steam"
	PlatformMobile  Platform = "mobile"
	PlatformConsole Platform = "console"
	PlatformWeb     Platform = "web"
	PlatformIndie   Platform = "indie"
)

// Valid reports whether the platform is one of the five known channels.
func (p Platform) Valid() bool {
	switch p {
	case PlatformSteam, PlatformMobile, PlatformConsole, PlatformWeb, PlatformIndie:
		return true
	default:
		return false
	}
}

// ReleaseState represents where a game sits in its release lifecycle.
type ReleaseState string

// Supported release states.
const (
	ReleaseUpcoming    ReleaseState = "upcoming"
	ReleaseEarlyAccess ReleaseState = "early_access"
	ReleaseLive        ReleaseState = "live"
)

// Valid reports whether the release state is a known value.
func (r ReleaseState) Valid() bool {
	switch r {
	case ReleaseUpcoming, ReleaseEarlyAccess, ReleaseLive:
		return true
	default:
		return false
	}
}

// Archetype is the revenue model category assigned by the classifier.
// It is always derived, never scraped or enriched.
type Archetype string

// Supported archetypes.
const (
	ArchetypePremiumSingleplayer Archetype = "premium_singleplayer"
	ArchetypeF2PMobile           Archetype = "f2p_mobile"
	ArchetypeLiveService         Archetype = "live_service"
	ArchetypeEarlyStage          Archetype = "early_stage"
	ArchetypeAAPremium           Archetype = "aa_premium"
)

// Valid reports whether the archetype is a known value.
func (a Archetype) Valid() bool {
	switch a {
	case ArchetypePremiumSingleplayer, ArchetypeF2PMobile, ArchetypeLiveService,
		ArchetypeEarlyStage, ArchetypeAAPremium:
		return true
	default:
		return false
	}
}

// Price is either the free sentinel or a non-negative USD amount.
// On the wire it serializes as the string "free" or a JSON number,
// matching the storefront report format consumed downstream.
type Price struct {
	Free   bool
	Amount float64
}

// FreePrice returns the free sentinel.
func FreePrice() Price {
	return Price{Free: true}
}

// PaidPrice returns a numeric price.
func PaidPrice(amount float64) Price {
	return Price{Amount: amount}
}

// MarshalJSON encodes the price as "free" or a number.
func (p Price) MarshalJSON() ([]byte, error) {
	if p.Free {
		return json.Marshal("free")
	}
	return json.Marshal(p.Amount)
}

// UnmarshalJSON accepts "free" or a number.
func (p *Price) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "free" {
			*p = Price{Free: true}
			return nil
		}
		if amount, convErr := strconv.ParseFloat(s, 64); convErr == nil {
			*p = Price{Amount: amount}
			return nil
		}
		return fmt.Errorf("invalid price string %q", s)
	}
	var amount float64
	if err := json.Unmarshal(data, &amount); err != nil {
		return fmt.Errorf("invalid price payload: %w", err)
	}
	*p = Price{Amount: amount}
	return nil
}

// String renders the price for logs and summaries.
func (p Price) String() string {
	if p.Free {
		return "free"
	}
	return strconv.FormatFloat(p.Amount, 'f', -1, 64)
}

// UnknownTitle is the sentinel assigned when no title pattern matched.
const UnknownTitle = "Unknown Game"

// GameMetadata is the central record produced by the pipeline. One
// instance is owned by a single Analyze invocation; it is never shared
// across concurrent analyses.
type GameMetadata struct {
	Title            string       `json:"title"`
	Developer        string       `json:"developer,omitempty"`
	Publisher        string       `json:"publisher,omitempty"`
	Platforms        []string     `json:"platforms,omitempty"`
	Platform         Platform     `json:"platform"`
	Price            Price        `json:"price"`
	Genre            []string     `json:"genre"`
	ReleaseState     ReleaseState `json:"releaseState"`
	IsMultiplayer    bool         `json:"isMultiplayer"`
	ReviewScore      *int         `json:"reviewScore,omitempty"`
	ReviewCount      *int         `json:"reviewCount,omitempty"`
	CopiesSold       *int         `json:"copiesSold,omitempty"`
	PeakPlayers      *int         `json:"peakPlayers,omitempty"`
	CurrentPlayers   *int         `json:"currentPlayers,omitempty"`
	EstimatedOwners  string       `json:"estimatedOwners,omitempty"`
	EstimatedRevenue string       `json:"estimatedRevenue,omitempty"`
	SalesMilestone   string       `json:"salesMilestone,omitempty"`
	LastUpdateDate   string       `json:"lastUpdateDate,omitempty"`
	ImageURL         string       `json:"imageUrl,omitempty"`
	Archetype        Archetype    `json:"archetype"`
}

// ScrapedData is the transient pre-merge draft produced by pattern
// extraction alone. Every field is optional; absence means no pattern
// matched, which is a valid outcome rather than an error.
type ScrapedData struct {
	Title         string
	Description   string
	PriceText     string // "free", a numeric string, or "unknown"
	Platform      Platform
	Genre         []string
	ReleaseState  ReleaseState
	IsMultiplayer bool
	ReviewScore   *int
	LastUpdate    string
	ImageURL      string
}

// EnrichmentPatch is the partial record returned by the external
// enrichment service. Nil pointers mean the service had no answer;
// presence decides merge precedence.
type EnrichmentPatch struct {
	Developer   *string
	Publisher   *string
	Platforms   []string
	Price       *Price
	ReviewCount *int
	ReviewScore *int
	CopiesSold  *int
	PeakPlayers *int
}

// Empty reports whether the patch carries no data at all.
func (p EnrichmentPatch) Empty() bool {
	return p.Developer == nil && p.Publisher == nil && len(p.Platforms) == 0 &&
		p.Price == nil && p.ReviewCount == nil && p.ReviewScore == nil &&
		p.CopiesSold == nil && p.PeakPlayers == nil
}

// EnrichmentResult bundles the patch with operation metadata.
type EnrichmentResult struct {
	Patch    EnrichmentPatch
	Grounded bool     // at least one answer was backed by retrieved sources
	Sources  []string // deduplicated citation URLs
}

// Page is the raw content retrieved for a target URL.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
	Headless   bool
}
