// Package proxy implements the stateless media and subtitle relay: it
// forwards third-party video bytes to clients with rewritten headers so the
// browser player can consume streams that would otherwise be blocked by
// CORS or referer checks.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_14_5)"
	defaultReferer   = "https://twitter.com/"

	// ChunkSize is the relay copy buffer; the first chunk doubles as the
	// HLS sniff window.
	ChunkSize = 128 * 1024

	HlsContentType = "application/vnd.apple.mpegurl"
)

// contentTypes maps url extension markers to content types, checked when
// the upstream does not send one.
var contentTypes = map[string]string{
	".m3u8": HlsContentType,
	".ts":   "video/mp2t",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
}

// forwardedHeaders are passed through from upstream to the client.
var forwardedHeaders = []string{
	"Content-Range",
	"Accept-Ranges",
	"ETag",
	"Cache-Control",
	"Content-Disposition",
	"Content-Length",
}

// hlsUrlMarkers are url fragments that indicate an HLS manifest regardless
// of extension; several hosters serve manifests from php endpoints.
var hlsUrlMarkers = []string{".m3u8", "/m.php", "/l.php", "/ld.php", "master.txt", "embed/sheila"}

type FetchParams struct {
	Url         string
	Referer     string
	UserAgent   string
	RawHeaders  string
	RangeHeader string
	Method      string
}

type service struct {
	videoClient    *http.Client
	subtitleClient *http.Client
}

func NewService() *service {
	return &service{
		videoClient: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 60 * time.Second,
			},
		},
		subtitleClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch opens the upstream stream. The caller owns the response body.
func (s *service) Fetch(ctx context.Context, params *FetchParams) (*http.Response, error) {
	method := params.Method
	if method == "" {
		method = http.MethodGet
	}

	// the upstream request is always a GET; HEAD responses are derived
	// from it so header rewriting stays identical
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, params.Url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.Header = PrepareRequestHeaders(params)

	resp, err := s.videoClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}

	if method == http.MethodHead {
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(nil))
	}

	return resp, nil
}

// FetchSubtitle downloads a subtitle payload in full.
func (s *service) FetchSubtitle(ctx context.Context, params *FetchParams) ([]byte, string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, params.Url, nil)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to build subtitle request: %w", err)
	}
	req.Header = PrepareRequestHeaders(params)

	resp, err := s.subtitleClient.Do(req)
	if err != nil {
		return nil, "", 0, fmt.Errorf("subtitle request failed: %w", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to read subtitle body: %w", err)
	}

	return content, resp.Header.Get("Content-Type"), resp.StatusCode, nil
}

// ParseCustomHeaders decodes the optional JSON headers query parameter.
// Malformed input degrades to no custom headers.
func ParseCustomHeaders(raw string) map[string]string {
	if raw == "" {
		return nil
	}

	var headers map[string]string
	if err := json.Unmarshal([]byte(raw), &headers); err != nil {
		return nil
	}

	return headers
}

// PrepareRequestHeaders builds the headers sent upstream: a browser-like
// user agent, identity encoding so byte ranges line up, the client's Range
// header and a referer derived from the target origin when none was given.
func PrepareRequestHeaders(params *FetchParams) http.Header {
	headers := http.Header{}

	custom := ParseCustomHeaders(params.RawHeaders)

	userAgent := params.UserAgent
	if userAgent == "" {
		userAgent = custom["User-Agent"]
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	headers.Set("User-Agent", userAgent)
	headers.Set("Accept", "*/*")
	headers.Set("Accept-Encoding", "identity")
	headers.Set("Connection", "keep-alive")

	if params.RangeHeader != "" {
		headers.Set("Range", params.RangeHeader)
	}

	switch {
	case params.Referer != "" && params.Referer != "None":
		if unquoted, err := url.QueryUnescape(params.Referer); err == nil {
			headers.Set("Referer", unquoted)
		} else {
			headers.Set("Referer", params.Referer)
		}
	default:
		headers.Set("Referer", refererForUrl(params.Url))
	}

	for key, value := range custom {
		if headers.Get(key) == "" {
			headers.Set(key, value)
		}
	}

	return headers
}

func refererForUrl(target string) string {
	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return defaultReferer
	}

	return fmt.Sprintf("%s://%s/", parsed.Scheme, parsed.Host)
}

// PrepareResponseHeaders builds the headers returned to the client.
func PrepareResponseHeaders(upstream http.Header, targetUrl, detectedContentType string) http.Header {
	headers := http.Header{}

	contentType := detectedContentType
	if contentType == "" {
		contentType = ContentTypeFor(targetUrl, upstream)
	}
	headers.Set("Content-Type", contentType)

	for _, key := range forwardedHeaders {
		if value := upstream.Get(key); value != "" {
			headers.Set(key, value)
		}
	}

	if headers.Get("Accept-Ranges") == "" {
		headers.Set("Accept-Ranges", "bytes")
	}

	return headers
}

// ContentTypeFor resolves the content type: upstream header first, then the
// url extension table, then video/mp4.
func ContentTypeFor(targetUrl string, upstream http.Header) string {
	if contentType := upstream.Get("Content-Type"); contentType != "" {
		return contentType
	}

	lower := strings.ToLower(targetUrl)
	for ext, contentType := range contentTypes {
		if strings.Contains(lower, ext) {
			return contentType
		}
	}

	return "video/mp4"
}

// DetectHlsFromUrl guesses from the url shape whether the target is an HLS
// manifest.
func DetectHlsFromUrl(targetUrl string) bool {
	for _, marker := range hlsUrlMarkers {
		if strings.Contains(targetUrl, marker) {
			return true
		}
	}

	return false
}

// SniffFirstChunk reads up to one chunk and reports whether it starts an
// HLS manifest, catching upstreams that lie about their content type.
func SniffFirstChunk(r io.Reader) ([]byte, bool, error) {
	chunk := make([]byte, ChunkSize)
	n, err := io.ReadFull(r, chunk)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, false, err
	}
	chunk = chunk[:n]

	preview := chunk
	if len(preview) > 100 {
		preview = preview[:100]
	}

	return chunk, strings.HasPrefix(strings.TrimSpace(string(preview)), "#EXTM3U"), nil
}
