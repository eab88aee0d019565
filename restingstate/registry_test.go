package restingstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryRegionHasMetadata(t *testing.T) {
	for _, region := range Regions() {
		meta := GetRegionMetadata(region)
		require.NotNil(t, meta, "region %q has no registered metadata", region)
		assert.Equal(t, region, meta.Name)
		assert.NotEmpty(t, meta.Title, "region %q has no title", region)
		assert.NotEmpty(t, meta.Lobe, "region %q has no lobe", region)
	}
}

func TestGetRegionMetadata(t *testing.T) {
	meta := GetRegionMetadata("bankssts")
	require.NotNil(t, meta)
	assert.Equal(t, "Banks of the Superior Temporal Sulcus", meta.Title)
	assert.Equal(t, LobeTemporal, meta.Lobe)

	assert.Nil(t, GetRegionMetadata("unknown_region"))
}

func TestGetRegionMetadataReturnsCopy(t *testing.T) {
	meta := GetRegionMetadata("insula")
	require.NotNil(t, meta)

	meta.Title = "mutated"

	again := GetRegionMetadata("insula")
	require.NotNil(t, again)
	assert.Equal(t, "Insula", again.Title)
}

func TestRegisterOverride(t *testing.T) {
	t.Cleanup(func() {
		// Restore the built-in entry clobbered below.
		Register("frontalpole",
			WithTitle("Frontal Pole"),
			WithLobe(LobeFrontal))
	})

	Register("frontalpole",
		WithTitle("Frontal Pole (custom)"),
		WithLobe(LobeFrontal),
		WithDescription("override for display"))

	meta := GetRegionMetadata("frontalpole")
	require.NotNil(t, meta)
	assert.Equal(t, "Frontal Pole (custom)", meta.Title)
	assert.Equal(t, "override for display", meta.Description)
}

func TestListRegisteredRegions(t *testing.T) {
	names := ListRegisteredRegions()
	assert.GreaterOrEqual(t, len(names), RegionCount)

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		assert.False(t, seen[name], "duplicate registry entry %q", name)
		seen[name] = true
	}
}

func TestRegionsInLobe(t *testing.T) {
	insular := RegionsInLobe(LobeInsula)
	assert.Equal(t, []string{"insula"}, insular)

	cingulate := RegionsInLobe(LobeCingulate)
	assert.Len(t, cingulate, 4)
	assert.Contains(t, cingulate, "posteriorcingulate")
}
