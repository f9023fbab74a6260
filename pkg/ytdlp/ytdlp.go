// Package ytdlp resolves video page urls to direct stream descriptors by
// shelling out to the yt-dlp binary.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	DefaultBinary  = "yt-dlp"
	DefaultTimeout = 30 * time.Second

	descriptionLimit = 200
)

type VideoData struct {
	Title       string            `json:"title"`
	StreamUrl   string            `json:"stream_url"`
	Duration    float64           `json:"duration"`
	Thumbnail   string            `json:"thumbnail"`
	Format      string            `json:"format"`
	Uploader    string            `json:"uploader"`
	Description string            `json:"description"`
	HttpHeaders map[string]string `json:"http_headers"`
}

type Extractor struct {
	binary  string
	timeout time.Duration
}

func New(binary string, timeout time.Duration) *Extractor {
	if binary == "" {
		binary = DefaultBinary
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Extractor{binary: binary, timeout: timeout}
}

type rawInfo struct {
	Title       string            `json:"title"`
	Url         string            `json:"url"`
	Ext         string            `json:"ext"`
	Protocol    string            `json:"protocol"`
	Duration    float64           `json:"duration"`
	Thumbnail   string            `json:"thumbnail"`
	Uploader    string            `json:"uploader"`
	Description string            `json:"description"`
	HttpHeaders map[string]string `json:"http_headers"`
}

// Extract runs yt-dlp against the url. It returns an error on timeout,
// non-zero exit or unparseable output; callers are expected to fall back to
// treating the input url as directly playable.
func (e *Extractor) Extract(ctx context.Context, url string) (*VideoData, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binary,
		"--no-warnings",
		"--no-playlist",
		"-j",
		"-f", "best[ext=mp4]/best",
		url,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("yt-dlp timed out: %w", ctx.Err())
		}
		return nil, fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseInfo(stdout.Bytes())
}

func parseInfo(data []byte) (*VideoData, error) {
	var info rawInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yt-dlp output: %w", err)
	}

	if info.Url == "" {
		return nil, fmt.Errorf("yt-dlp output has no stream url")
	}

	title := info.Title
	if title == "" {
		title = "Video"
	}

	description := info.Description
	if len(description) > descriptionLimit {
		description = description[:descriptionLimit]
	}

	return &VideoData{
		Title:       title,
		StreamUrl:   info.Url,
		Duration:    info.Duration,
		Thumbnail:   info.Thumbnail,
		Format:      formatFor(info),
		Uploader:    info.Uploader,
		Description: description,
		HttpHeaders: info.HttpHeaders,
	}, nil
}

func formatFor(info rawInfo) string {
	if strings.Contains(info.Url, "m3u8") || info.Protocol == "m3u8_native" {
		return "hls"
	}

	switch info.Ext {
	case "mp4", "webm":
		return info.Ext
	default:
		return "mp4"
	}
}
