package controller

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/service/proxy"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/pkg/subtitle"
)

func (c controller) proxyVideo(w http.ResponseWriter, r *http.Request) {
	targetUrl, ok := requiredUrlParam(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	response, err := c.proxyService.Fetch(r.Context(), &proxy.FetchParams{
		Url:         targetUrl,
		Referer:     query.Get("referer"),
		UserAgent:   query.Get("user_agent"),
		RawHeaders:  query.Get("headers"),
		RangeHeader: r.Header.Get("Range"),
		Method:      r.Method,
	})
	if err != nil {
		c.logger.WarnContext(r.Context(), "upstream request failed", "url", targetUrl, "error", err)
		http.Error(w, "Proxy Error", http.StatusBadGateway)
		return
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		http.Error(w, fmt.Sprintf("Upstream Error: %d", response.StatusCode), response.StatusCode)
		return
	}

	detected := ""
	if proxy.DetectHlsFromUrl(targetUrl) {
		detected = proxy.HlsContentType
	}
	headers := proxy.PrepareResponseHeaders(response.Header, targetUrl, detected)

	if r.Method == http.MethodHead {
		copyHeaders(w.Header(), headers)
		w.WriteHeader(response.StatusCode)
		return
	}

	// the first chunk is read before headers go out so a manifest served
	// with a bogus content type is still labelled as HLS
	firstChunk, isHls, err := proxy.SniffFirstChunk(response.Body)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to read upstream body", "url", targetUrl, "error", err)
		http.Error(w, "Proxy Error", http.StatusBadGateway)
		return
	}
	if isHls {
		headers.Set("Content-Type", proxy.HlsContentType)
		headers.Del("Content-Length")
	}

	copyHeaders(w.Header(), headers)
	w.WriteHeader(response.StatusCode)

	if _, err := w.Write(firstChunk); err != nil {
		return
	}
	if _, err := io.Copy(w, response.Body); err != nil {
		c.logger.DebugContext(r.Context(), "relay interrupted", "url", targetUrl, "error", err)
	}
}

func (c controller) proxySubtitle(w http.ResponseWriter, r *http.Request) {
	targetUrl, ok := requiredUrlParam(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	content, contentType, status, err := c.proxyService.FetchSubtitle(r.Context(), &proxy.FetchParams{
		Url:        targetUrl,
		Referer:    query.Get("referer"),
		UserAgent:  query.Get("user_agent"),
		RawHeaders: query.Get("headers"),
	})
	if err != nil {
		c.logger.WarnContext(r.Context(), "subtitle request failed", "url", targetUrl, "error", err)
		http.Error(w, "Proxy Error", http.StatusBadGateway)
		return
	}
	if status >= http.StatusBadRequest {
		http.Error(w, fmt.Sprintf("Upstream Error: %d", status), status)
		return
	}

	w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	w.Write(subtitle.ToVTT(content, contentType, targetUrl))
}

// requiredUrlParam extracts the url query parameter, unescaping it once
// more for clients that double-encode it.
func requiredUrlParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		http.Error(w, "url parameter is required", http.StatusBadRequest)
		return "", false
	}

	if decoded, err := url.QueryUnescape(raw); err == nil {
		raw = decoded
	}

	return raw, true
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}
