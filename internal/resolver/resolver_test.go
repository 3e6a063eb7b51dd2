package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elsanchez/tubefetch/internal/domain"
)

func progressive(handle string, tier domain.QualityTier, container string, bitrate int) domain.StreamDescriptor {
	return domain.StreamDescriptor{
		Handle:          handle,
		Kind:            domain.KindProgressive,
		Tier:            tier,
		Container:       container,
		Bitrate:         bitrate,
		DefaultFilename: "clip." + container,
	}
}

func videoOnly(handle string, tier domain.QualityTier, container string, bitrate int) domain.StreamDescriptor {
	return domain.StreamDescriptor{Handle: handle, Kind: domain.KindVideoOnly, Tier: tier, Container: container, Bitrate: bitrate}
}

func audioOnly(handle, container string, bitrate int) domain.StreamDescriptor {
	return domain.StreamDescriptor{Handle: handle, Kind: domain.KindAudioOnly, Container: container, Bitrate: bitrate}
}

func catalogOf(streams ...domain.StreamDescriptor) *domain.StreamCatalog {
	return &domain.StreamCatalog{VideoID: "abc123", Title: "clip", Streams: streams}
}

func TestResolveExactProgressive(t *testing.T) {
	cat := catalogOf(
		progressive("18", domain.Tier360p, "mp4", 500),
		progressive("22", domain.Tier720p, "mp4", 1500),
	)

	plan, err := Resolve(domain.Tier720p, cat, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.PlanSingle, plan.Kind)
	assert.Equal(t, domain.Tier720p, plan.Tier)
	assert.Equal(t, "22", plan.Stream.Handle)
}

func TestResolveFallsDownLadder(t *testing.T) {
	cat := catalogOf(
		progressive("18", domain.Tier360p, "mp4", 500),
		progressive("43", domain.Tier480p, "webm", 900),
	)

	plan, err := Resolve(domain.Tier720p, cat, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.PlanSingle, plan.Kind)
	assert.Equal(t, domain.Tier360p, plan.Tier)
	assert.Equal(t, "18", plan.Stream.Handle)
}

func TestResolveNeverUpgrades(t *testing.T) {
	cat := catalogOf(progressive("22", domain.Tier720p, "mp4", 1500))

	_, err := Resolve(domain.Tier480p, cat, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStreamUnavailable))
}

func TestResolveNoProgressiveAnywhere(t *testing.T) {
	cat := catalogOf(
		videoOnly("136", domain.Tier720p, "mp4", 1200),
		audioOnly("140", "mp4", 128),
	)

	_, err := Resolve(domain.Tier720p, cat, Options{})
	require.Error(t, err)

	var dlErr *domain.DownloadError
	require.True(t, errors.As(err, &dlErr))
	assert.Equal(t, domain.KindStreamUnavailable, dlErr.Kind)
}

func TestResolveTopTierDual(t *testing.T) {
	cat := catalogOf(
		progressive("22", domain.Tier720p, "mp4", 1500),
		videoOnly("248", domain.Tier1080p, "webm", 2600),
		videoOnly("137", domain.Tier1080p, "mp4", 2500),
		audioOnly("251", "webm", 160),
		audioOnly("140", "mp4", 128),
		audioOnly("139", "mp4", 48),
	)

	plan, err := Resolve(domain.Tier1080p, cat, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.PlanDual, plan.Kind)
	assert.Equal(t, domain.Tier1080p, plan.Tier)
	assert.Equal(t, "137", plan.Video.Handle)
	assert.Equal(t, "140", plan.Audio.Handle)
}

func TestResolveTopTierDualOtherContainers(t *testing.T) {
	cat := catalogOf(
		videoOnly("248", domain.Tier1080p, "webm", 2600),
		audioOnly("251", "webm", 160),
	)

	plan, err := Resolve(domain.Tier1080p, cat, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.PlanDual, plan.Kind)
	assert.Equal(t, "248", plan.Video.Handle)
	assert.Equal(t, "251", plan.Audio.Handle)
}

func TestResolveTopTierWithoutAdaptiveFallsTo720(t *testing.T) {
	cat := catalogOf(
		progressive("37", domain.Tier1080p, "mp4", 3000),
		progressive("22", domain.Tier720p, "mp4", 1500),
		audioOnly("140", "mp4", 128),
	)

	plan, err := Resolve(domain.Tier1080p, cat, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.PlanSingle, plan.Kind)
	assert.Equal(t, domain.Tier720p, plan.Tier)
	assert.Equal(t, "22", plan.Stream.Handle)
}

func TestResolveTopTierWithoutAudioFallsTo720(t *testing.T) {
	cat := catalogOf(
		videoOnly("137", domain.Tier1080p, "mp4", 2500),
		progressive("18", domain.Tier360p, "mp4", 500),
	)

	plan, err := Resolve(domain.Tier1080p, cat, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.PlanSingle, plan.Kind)
	assert.Equal(t, domain.Tier360p, plan.Tier)
}

func TestResolveTopTierNothingUsable(t *testing.T) {
	cat := catalogOf(videoOnly("136", domain.Tier720p, "mp4", 1200))

	_, err := Resolve(domain.Tier1080p, cat, Options{})
	assert.True(t, errors.Is(err, domain.ErrStreamUnavailable))
}

func TestResolveDeterministicTies(t *testing.T) {
	cat := catalogOf(
		progressive("a", domain.Tier480p, "mp4", 800),
		progressive("b", domain.Tier480p, "mp4", 800),
		progressive("c", domain.Tier480p, "mp4", 700),
	)

	for i := 0; i < 10; i++ {
		plan, err := Resolve(domain.Tier480p, cat, Options{})
		require.NoError(t, err)
		assert.Equal(t, "a", plan.Stream.Handle)
	}
}

func TestResolveCustomContainer(t *testing.T) {
	cat := catalogOf(
		progressive("18", domain.Tier360p, "mp4", 500),
		progressive("43", domain.Tier360p, "webm", 600),
	)

	plan, err := Resolve(domain.Tier360p, cat, Options{Container: "WEBM"})
	require.NoError(t, err)
	assert.Equal(t, "43", plan.Stream.Handle)
}

func TestResolveInvalidTier(t *testing.T) {
	_, err := Resolve(domain.TierUnknown, catalogOf(), Options{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestResolveEmptyCatalog(t *testing.T) {
	_, err := Resolve(domain.Tier360p, catalogOf(), Options{})
	assert.True(t, errors.Is(err, domain.ErrStreamUnavailable))

	_, err = Resolve(domain.Tier360p, nil, Options{})
	assert.True(t, errors.Is(err, domain.ErrStreamUnavailable))
}
