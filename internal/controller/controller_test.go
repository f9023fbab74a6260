package controller

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/service/proxy"
)

func newProxyTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	c := NewController(nil, proxy.NewService(), nil, slog.Default())
	srv := httptest.NewServer(c.GetRouter())
	t.Cleanup(srv.Close)

	return srv
}

func TestHealthz(t *testing.T) {
	srv := newProxyTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProxyVideoRelaysBytes(t *testing.T) {
	payload := strings.Repeat("x", 2048)
	var upstream *httptest.Server
	upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, upstream.URL+"/", r.Header.Get("Referer"), "referer derived from target origin")
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte(payload))
	}))
	defer upstream.Close()

	srv := newProxyTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/proxy/video?url=" + url.QueryEscape(upstream.URL+"/clip.mp4"))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
	assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, string(body))
}

func TestProxyVideoSniffsManifest(t *testing.T) {
	manifest := "#EXTM3U\n#EXT-X-VERSION:3\n#EXTINF:10,\nsegment0.ts\n"
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// mislabelled on purpose
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(manifest))
	}))
	defer upstream.Close()

	srv := newProxyTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/proxy/video?url=" + url.QueryEscape(upstream.URL+"/stream.php"))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, proxy.HlsContentType, resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, manifest, string(body))
}

func TestIpLogWithoutLookup(t *testing.T) {
	srv := newProxyTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/iplog/8.8.8.8")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestProxyVideoMissingUrl(t *testing.T) {
	srv := newProxyTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/proxy/video")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProxyVideoUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	srv := newProxyTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/proxy/video?url=" + url.QueryEscape(upstream.URL+"/missing.mp4"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProxyVideoHead(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", "4")
		w.Write([]byte("data"))
	}))
	defer upstream.Close()

	srv := newProxyTestServer(t)

	resp, err := http.Head(srv.URL + "/api/v1/proxy/video?url=" + url.QueryEscape(upstream.URL+"/clip.mp4"))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
}

func TestProxySubtitleConvertsSrt(t *testing.T) {
	srt := "1\r\n00:00:01,000 --> 00:00:02,000\r\nMerhaba\r\n"
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-subrip")
		w.Write([]byte(srt))
	}))
	defer upstream.Close()

	srv := newProxyTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/proxy/subtitle?url=" + url.QueryEscape(upstream.URL+"/sub.srt"))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/vtt; charset=utf-8", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "WEBVTT"))
	assert.Contains(t, string(body), "00:00:01.000 --> 00:00:02.000")
	assert.Contains(t, string(body), "Merhaba")
}
