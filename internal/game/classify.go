package game

// Classify maps a validated record onto a revenue archetype. The
// decision table is ordered and first-match-wins; the ordering and the
// 30/40 thresholds are load-bearing for downstream report content and
// must not be reordered. The free branch keys off IsMultiplayer in two
// steps that collapse to the same outcomes; kept literal to match the
// established mapping.
func Classify(meta GameMetadata) Archetype {
	if meta.ReleaseState == ReleaseUpcoming || meta.ReleaseState == ReleaseEarlyAccess {
		return ArchetypeEarlyStage
	}

	if meta.Platform == PlatformMobile {
		return ArchetypeF2PMobile
	}

	if meta.Price.Free && meta.IsMultiplayer {
		return ArchetypeLiveService
	}

	if meta.Price.Free {
		if meta.IsMultiplayer {
			return ArchetypeLiveService
		}
		return ArchetypeF2PMobile
	}

	if meta.IsMultiplayer {
		if meta.Price.Amount >= 30 {
			return ArchetypeAAPremium
		}
		return ArchetypeLiveService
	}

	if meta.Price.Amount >= 40 {
		return ArchetypeAAPremium
	}
	return ArchetypePremiumSingleplayer
}

// ArchetypeLabel returns the human-readable name used in reports.
func ArchetypeLabel(a Archetype) string {
	switch a {
	case ArchetypePremiumSingleplayer:
		return "Premium Single-Player"
	case ArchetypeF2PMobile:
		return "Free-to-Play Mobile"
	case ArchetypeLiveService:
		return "Live-Service Game"
	case ArchetypeEarlyStage:
		return "Early Stage / Pre-Launch"
	case ArchetypeAAPremium:
		return "Premium AA/AAA"
	default:
		return string(a)
	}
}
