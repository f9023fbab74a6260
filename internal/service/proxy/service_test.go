package proxy

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareRequestHeaders(t *testing.T) {
	headers := PrepareRequestHeaders(&FetchParams{
		Url:         "https://cdn.example.com/video.mp4",
		RangeHeader: "bytes=100-",
	})

	assert.Equal(t, defaultUserAgent, headers.Get("User-Agent"))
	assert.Equal(t, "identity", headers.Get("Accept-Encoding"))
	assert.Equal(t, "bytes=100-", headers.Get("Range"))
	assert.Equal(t, "https://cdn.example.com/", headers.Get("Referer"), "referer derived from target origin")
}

func TestPrepareRequestHeadersExplicitReferer(t *testing.T) {
	headers := PrepareRequestHeaders(&FetchParams{
		Url:     "https://cdn.example.com/video.mp4",
		Referer: "https%3A%2F%2Fsite.example.com%2F",
	})

	assert.Equal(t, "https://site.example.com/", headers.Get("Referer"))
}

func TestPrepareRequestHeadersCustom(t *testing.T) {
	headers := PrepareRequestHeaders(&FetchParams{
		Url:        "https://cdn.example.com/video.mp4",
		RawHeaders: `{"User-Agent":"custom-ua","X-Token":"abc"}`,
	})

	assert.Equal(t, "custom-ua", headers.Get("User-Agent"), "custom header used when no explicit user agent")
	assert.Equal(t, "abc", headers.Get("X-Token"))

	headers = PrepareRequestHeaders(&FetchParams{
		Url:        "https://cdn.example.com/video.mp4",
		UserAgent:  "explicit-ua",
		RawHeaders: `{"User-Agent":"custom-ua"}`,
	})
	assert.Equal(t, "explicit-ua", headers.Get("User-Agent"), "explicit user agent wins")
}

func TestParseCustomHeadersMalformed(t *testing.T) {
	assert.Nil(t, ParseCustomHeaders("not-json"))
	assert.Nil(t, ParseCustomHeaders(""))
}

func TestContentTypeFor(t *testing.T) {
	upstream := http.Header{}
	upstream.Set("Content-Type", "video/webm")
	assert.Equal(t, "video/webm", ContentTypeFor("https://x.example.com/v.mp4", upstream))

	tests := []struct {
		url  string
		want string
	}{
		{"https://x.example.com/stream.m3u8?token=1", HlsContentType},
		{"https://x.example.com/seg-1.ts", "video/mp2t"},
		{"https://x.example.com/movie.MKV", "video/x-matroska"},
		{"https://x.example.com/video", "video/mp4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContentTypeFor(tt.url, http.Header{}), tt.url)
	}
}

func TestPrepareResponseHeaders(t *testing.T) {
	upstream := http.Header{}
	upstream.Set("Content-Range", "bytes 100-200/300")
	upstream.Set("ETag", `"abc"`)
	upstream.Set("X-Internal", "nope")

	headers := PrepareResponseHeaders(upstream, "https://x.example.com/v.mp4", "")

	assert.Equal(t, "video/mp4", headers.Get("Content-Type"))
	assert.Equal(t, "bytes 100-200/300", headers.Get("Content-Range"))
	assert.Equal(t, `"abc"`, headers.Get("ETag"))
	assert.Equal(t, "bytes", headers.Get("Accept-Ranges"), "Accept-Ranges forced when absent")
	assert.Empty(t, headers.Get("X-Internal"), "unlisted upstream headers dropped")
}

func TestPrepareResponseHeadersDetectedType(t *testing.T) {
	upstream := http.Header{}
	upstream.Set("Content-Type", "text/html")

	headers := PrepareResponseHeaders(upstream, "https://x.example.com/m.php", HlsContentType)

	assert.Equal(t, HlsContentType, headers.Get("Content-Type"), "detected type overrides upstream")
}

func TestDetectHlsFromUrl(t *testing.T) {
	assert.True(t, DetectHlsFromUrl("https://x.example.com/master.m3u8"))
	assert.True(t, DetectHlsFromUrl("https://x.example.com/l.php?id=1"))
	assert.True(t, DetectHlsFromUrl("https://x.example.com/hls/master.txt"))
	assert.True(t, DetectHlsFromUrl("https://x.example.com/embed/sheila/play?id=7"))
	assert.False(t, DetectHlsFromUrl("https://x.example.com/video.mp4"))
}

func TestSniffFirstChunk(t *testing.T) {
	chunk, isHls, err := SniffFirstChunk(strings.NewReader("#EXTM3U\n#EXT-X-VERSION:3\n"))
	require.NoError(t, err)
	assert.True(t, isHls)
	assert.Equal(t, "#EXTM3U\n#EXT-X-VERSION:3\n", string(chunk))

	chunk, isHls, err = SniffFirstChunk(strings.NewReader("  \n#EXTM3U\n"))
	require.NoError(t, err)
	assert.True(t, isHls, "leading whitespace tolerated")

	_, isHls, err = SniffFirstChunk(strings.NewReader("binary video bytes"))
	require.NoError(t, err)
	assert.False(t, isHls)

	chunk, isHls, err = SniffFirstChunk(strings.NewReader(""))
	require.NoError(t, err)
	assert.False(t, isHls)
	assert.Empty(t, chunk)
}
