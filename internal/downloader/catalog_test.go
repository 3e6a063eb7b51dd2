package downloader

import (
	"errors"
	"testing"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elsanchez/tubefetch/internal/domain"
	"github.com/elsanchez/tubefetch/internal/resolver"
)

func TestFormatsToStreams(t *testing.T) {
	video := &youtube.Video{
		ID:    "dQw4w9WgXcQ",
		Title: "Never Gonna Give You Up",
		Formats: youtube.FormatList{
			{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, QualityLabel: "360p", AudioChannels: 2, Bitrate: 500000},
			{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, QualityLabel: "1080p", Height: 1080, Bitrate: 4000000},
			{ItagNo: 303, MimeType: `video/webm; codecs="vp9"`, QualityLabel: "1080p60", Height: 1080, AverageBitrate: 3000000},
			{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, AudioChannels: 2, Bitrate: 130000},
			{ItagNo: 999, MimeType: `not a mime`},
			{ItagNo: 400, MimeType: `video/mp4; codecs="av01"`, QualityLabel: "1440p", Height: 1440},
			{ItagNo: 401, MimeType: `video/mp4; codecs="av01"`, QualityLabel: "2160p", Width: 3840, Height: 2160, Bitrate: 20000000},
			{ItagNo: 399, MimeType: `video/mp4; codecs="av01"`, Width: 1920, Height: 804, Bitrate: 2000000},
		},
	}

	streams := formatsToStreams(video)
	require.Len(t, streams, 5)

	assert.Equal(t, "18", streams[0].Handle)
	assert.Equal(t, domain.KindProgressive, streams[0].Kind)
	assert.Equal(t, domain.Tier360p, streams[0].Tier)
	assert.Equal(t, "mp4", streams[0].Container)
	assert.Equal(t, "avc1.42001E", streams[0].VideoCodec)
	assert.Equal(t, "mp4a.40.2", streams[0].AudioCodec)
	assert.Equal(t, "Never Gonna Give You Up.mp4", streams[0].DefaultFilename)
	assert.Equal(t, "dQw4w9WgXcQ", streams[0].Source)

	assert.Equal(t, domain.KindVideoOnly, streams[1].Kind)
	assert.Equal(t, domain.Tier1080p, streams[1].Tier)

	assert.Equal(t, domain.Tier1080p, streams[2].Tier)
	assert.Equal(t, "webm", streams[2].Container)
	assert.Equal(t, 3000000, streams[2].Bitrate)

	assert.Equal(t, domain.KindAudioOnly, streams[3].Kind)
	assert.Equal(t, domain.TierUnknown, streams[3].Tier)

	// 1440p y 2160p quedan fuera; 1920x804 sin etiqueta sigue siendo 1080p
	assert.Equal(t, "399", streams[4].Handle)
	assert.Equal(t, domain.Tier1080p, streams[4].Tier)
	for _, st := range streams {
		assert.NotContains(t, []string{"400", "401"}, st.Handle)
	}
}

func TestFormatsToStreamsIgnoresAboveTopTier(t *testing.T) {
	video := &youtube.Video{
		ID:    "dQw4w9WgXcQ",
		Title: "Clip",
		Formats: youtube.FormatList{
			{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, QualityLabel: "1080p", Width: 1920, Height: 1080, Bitrate: 4000000},
			{ItagNo: 401, MimeType: `video/mp4; codecs="av01.0.12M.08"`, QualityLabel: "2160p", Width: 3840, Height: 2160, Bitrate: 20000000},
			{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, AudioChannels: 2, Bitrate: 130000},
		},
	}

	catalog := &domain.StreamCatalog{VideoID: video.ID, Title: video.Title, Streams: formatsToStreams(video)}
	plan, err := resolver.Resolve(domain.Tier1080p, catalog, resolver.Options{})
	require.NoError(t, err)

	assert.Equal(t, domain.PlanDual, plan.Kind)
	assert.Equal(t, "137", plan.Video.Handle)
	assert.Equal(t, "140", plan.Audio.Handle)
}

func TestFindFormat(t *testing.T) {
	video := &youtube.Video{Formats: youtube.FormatList{{ItagNo: 22}, {ItagNo: 140}}}

	f, err := findFormat(video, "140")
	require.NoError(t, err)
	assert.Equal(t, 140, f.ItagNo)

	_, err = findFormat(video, "137")
	assert.True(t, errors.Is(err, ErrStreamNotListed))
}

func TestClassifyYouTubeError(t *testing.T) {
	assert.True(t, errors.Is(classifyYouTubeError(youtube.ErrVideoPrivate), ErrVideoPrivate))
	assert.True(t, errors.Is(classifyYouTubeError(youtube.ErrLoginRequired), ErrLoginRequired))
	assert.True(t, errors.Is(classifyYouTubeError(youtube.ErrVideoIDMinLength), ErrVideoNotFound))

	other := errors.New("dial tcp: timeout")
	assert.True(t, errors.Is(classifyYouTubeError(other), other))
}

const ytdlpFixture = `{
  "id": "dQw4w9WgXcQ",
  "title": "Never Gonna Give You Up",
  "uploader": "Rick Astley",
  "formats": [
    {"format_id": "sb0", "ext": "mhtml", "vcodec": "none", "acodec": "none", "protocol": "mhtml"},
    {"format_id": "140", "ext": "m4a", "vcodec": "none", "acodec": "mp4a.40.2", "tbr": 129.5, "filesize": 3400000, "protocol": "https"},
    {"format_id": "18", "ext": "mp4", "vcodec": "avc1.42001E", "acodec": "mp4a.40.2", "height": 360, "tbr": 500, "filesize_approx": 9000000, "protocol": "https"},
    {"format_id": "137", "ext": "mp4", "vcodec": "avc1.640028", "acodec": "none", "height": 1080, "tbr": 4000, "protocol": "https"},
    {"format_id": "399", "ext": "mp4", "vcodec": "av01", "acodec": "none", "width": 1920, "height": 804, "format_note": "1080p", "tbr": 2000, "protocol": "https"},
    {"format_id": "398", "ext": "mp4", "vcodec": "av01", "acodec": "none", "width": 1280, "height": 536, "format_note": "Premium", "tbr": 1200, "protocol": "https"},
    {"format_id": "401", "ext": "mp4", "vcodec": "av01", "acodec": "none", "width": 3840, "height": 2160, "format_note": "2160p", "tbr": 20000, "protocol": "https"},
    {"format_id": "hls-1080", "ext": "mp4", "vcodec": "avc1", "acodec": "mp4a", "height": 1080, "protocol": "m3u8_native"}
  ]
}`

func TestParseYtDlpCatalog(t *testing.T) {
	catalog, err := parseYtDlpCatalog([]byte(ytdlpFixture))
	require.NoError(t, err)

	assert.Equal(t, "dQw4w9WgXcQ", catalog.VideoID)
	assert.Equal(t, "Rick Astley", catalog.Author)
	require.Len(t, catalog.Streams, 5)

	audio := catalog.Streams[0]
	assert.Equal(t, domain.KindAudioOnly, audio.Kind)
	assert.Equal(t, "mp4", audio.Container)
	assert.Equal(t, 129500, audio.Bitrate)

	progressive := catalog.Streams[1]
	assert.Equal(t, domain.KindProgressive, progressive.Kind)
	assert.Equal(t, domain.Tier360p, progressive.Tier)
	assert.Equal(t, int64(9000000), progressive.Size)

	video := catalog.Streams[2]
	assert.Equal(t, domain.KindVideoOnly, video.Kind)
	assert.Equal(t, domain.Tier1080p, video.Tier)
	assert.Equal(t, "Never Gonna Give You Up.mp4", video.DefaultFilename)

	// Formatos con barras: la etiqueta manda, y sin etiqueta el ancho
	wide := catalog.Streams[3]
	assert.Equal(t, "399", wide.Handle)
	assert.Equal(t, domain.Tier1080p, wide.Tier)

	noLabel := catalog.Streams[4]
	assert.Equal(t, "398", noLabel.Handle)
	assert.Equal(t, domain.Tier720p, noLabel.Tier)
}

func TestParseYtDlpCatalogInvalid(t *testing.T) {
	_, err := parseYtDlpCatalog([]byte("not json"))
	assert.Error(t, err)

	_, err = parseYtDlpCatalog([]byte(`{"formats": []}`))
	assert.True(t, errors.Is(err, ErrVideoNotFound))
}
