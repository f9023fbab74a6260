package ytdlp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInfo(t *testing.T) {
	data := []byte(`{
		"title": "Some Title",
		"url": "https://cdn.example.com/video.mp4",
		"ext": "mp4",
		"duration": 12.5,
		"thumbnail": "https://cdn.example.com/thumb.jpg",
		"uploader": "someone",
		"http_headers": {"User-Agent": "ua", "Referer": "https://example.com/"}
	}`)

	info, err := parseInfo(data)
	require.NoError(t, err)
	assert.Equal(t, "Some Title", info.Title)
	assert.Equal(t, "https://cdn.example.com/video.mp4", info.StreamUrl)
	assert.Equal(t, "mp4", info.Format)
	assert.Equal(t, 12.5, info.Duration)
	assert.Equal(t, "ua", info.HttpHeaders["User-Agent"])
}

func TestParseInfoWithoutStreamUrl(t *testing.T) {
	_, err := parseInfo([]byte(`{"title": "x"}`))
	assert.Error(t, err)
}

func TestParseInfoTruncatesDescription(t *testing.T) {
	long := strings.Repeat("a", 500)
	info, err := parseInfo([]byte(`{"url": "https://example.com/v.mp4", "description": "` + long + `"}`))
	require.NoError(t, err)
	assert.Len(t, info.Description, descriptionLimit)
	assert.Equal(t, "Video", info.Title)
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		name string
		info rawInfo
		want string
	}{
		{"hls by url", rawInfo{Url: "https://example.com/master.m3u8"}, "hls"},
		{"hls by protocol", rawInfo{Url: "https://example.com/v", Protocol: "m3u8_native"}, "hls"},
		{"webm", rawInfo{Url: "https://example.com/v", Ext: "webm"}, "webm"},
		{"mp4", rawInfo{Url: "https://example.com/v", Ext: "mp4"}, "mp4"},
		{"unknown ext defaults to mp4", rawInfo{Url: "https://example.com/v", Ext: "mkv"}, "mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFor(tt.info))
		})
	}
}
