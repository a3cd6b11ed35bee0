package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyDecisionTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		meta GameMetadata
		want Archetype
	}{
		{
			name: "upcoming is early stage regardless of price",
			meta: GameMetadata{ReleaseState: ReleaseUpcoming, Platform: PlatformSteam, Price: PaidPrice(59.99)},
			want: ArchetypeEarlyStage,
		},
		{
			name: "early access free multiplayer is early stage",
			meta: GameMetadata{ReleaseState: ReleaseEarlyAccess, Platform: PlatformSteam, Price: FreePrice(), IsMultiplayer: true},
			want: ArchetypeEarlyStage,
		},
		{
			name: "live mobile paid is f2p mobile",
			meta: GameMetadata{ReleaseState: ReleaseLive, Platform: PlatformMobile, Price: PaidPrice(5)},
			want: ArchetypeF2PMobile,
		},
		{
			name: "free multiplayer is live service",
			meta: GameMetadata{ReleaseState: ReleaseLive, Platform: PlatformSteam, Price: FreePrice(), IsMultiplayer: true},
			want: ArchetypeLiveService,
		},
		{
			name: "free singleplayer is f2p mobile",
			meta: GameMetadata{ReleaseState: ReleaseLive, Platform: PlatformWeb, Price: FreePrice()},
			want: ArchetypeF2PMobile,
		},
		{
			name: "paid multiplayer at threshold is aa premium",
			meta: GameMetadata{ReleaseState: ReleaseLive, Platform: PlatformSteam, Price: PaidPrice(30), IsMultiplayer: true},
			want: ArchetypeAAPremium,
		},
		{
			name: "paid multiplayer below threshold is live service",
			meta: GameMetadata{ReleaseState: ReleaseLive, Platform: PlatformSteam, Price: PaidPrice(29.99), IsMultiplayer: true},
			want: ArchetypeLiveService,
		},
		{
			name: "paid singleplayer at 45 is aa premium",
			meta: GameMetadata{ReleaseState: ReleaseLive, Platform: PlatformSteam, Price: PaidPrice(45)},
			want: ArchetypeAAPremium,
		},
		{
			name: "paid singleplayer below 40 is premium singleplayer",
			meta: GameMetadata{ReleaseState: ReleaseLive, Platform: PlatformIndie, Price: PaidPrice(19.99)},
			want: ArchetypePremiumSingleplayer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Classify(tt.meta))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	t.Parallel()

	meta := GameMetadata{ReleaseState: ReleaseLive, Platform: PlatformSteam, Price: PaidPrice(14.99), IsMultiplayer: true}
	first := Classify(meta)
	for range 10 {
		require.Equal(t, first, Classify(meta))
	}
}

func TestArchetypeLabel(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Premium AA/AAA", ArchetypeLabel(ArchetypeAAPremium))
	require.Equal(t, "Free-to-Play Mobile", ArchetypeLabel(ArchetypeF2PMobile))
}
