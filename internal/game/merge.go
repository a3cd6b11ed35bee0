package game

import "strconv"

// BuildMetadata normalizes a scraped draft into a full record. Missing
// fields collapse to defaults: unknown title sentinel, web platform,
// live release state, free price. The archetype starts at the premium
// single-player default and is recomputed by Classify after merge and
// validation.
func BuildMetadata(draft ScrapedData) GameMetadata {
	meta := GameMetadata{
		Title:          draft.Title,
		Platform:       draft.Platform,
		Price:          parsePriceText(draft.PriceText),
		Genre:          draft.Genre,
		ReleaseState:   draft.ReleaseState,
		IsMultiplayer:  draft.IsMultiplayer,
		ReviewScore:    draft.ReviewScore,
		LastUpdateDate: draft.LastUpdate,
		ImageURL:       draft.ImageURL,
		Archetype:      ArchetypePremiumSingleplayer,
	}
	if meta.Title == "" {
		meta.Title = UnknownTitle
	}
	if meta.Platform == "" {
		meta.Platform = PlatformWeb
	}
	if meta.ReleaseState == "" {
		meta.ReleaseState = ReleaseLive
	}
	if meta.Genre == nil {
		meta.Genre = []string{}
	}
	return meta
}

// parsePriceText maps the extractor's price text to a Price. Both the
// free and unknown sentinels resolve to free; storefront pages that hide
// the price usually belong to free-to-play titles, and enrichment
// corrects the rest.
func parsePriceText(text string) Price {
	switch text {
	case "", "free", "unknown":
		return FreePrice()
	}
	amount, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return FreePrice()
	}
	return PaidPrice(amount)
}

// Merge combines a normalized draft with an enrichment patch under the
// fixed precedence rule: for price, developer, publisher, platforms,
// review count, review score, peak players and copies sold the patch
// wins whenever it is present. Enrichment is more reliable for fields
// that raw markup misrepresents (a paid game showing a "Free" promo
// badge, for example). All other fields keep the extracted value.
func Merge(meta GameMetadata, patch EnrichmentPatch) GameMetadata {
	if patch.Price != nil {
		meta.Price = *patch.Price
	}
	if patch.Developer != nil {
		meta.Developer = *patch.Developer
	}
	if patch.Publisher != nil {
		meta.Publisher = *patch.Publisher
	}
	if len(patch.Platforms) > 0 {
		meta.Platforms = patch.Platforms
	}
	if patch.ReviewCount != nil {
		meta.ReviewCount = patch.ReviewCount
	}
	if patch.ReviewScore != nil {
		meta.ReviewScore = patch.ReviewScore
	}
	if patch.PeakPlayers != nil {
		meta.PeakPlayers = patch.PeakPlayers
	}
	if patch.CopiesSold != nil {
		meta.CopiesSold = patch.CopiesSold
	}
	return meta
}
