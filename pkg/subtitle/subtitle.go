// Package subtitle normalizes third-party subtitle payloads to WebVTT.
package subtitle

import (
	"bytes"
	"strings"
)

var (
	utf8BOM    = []byte{0xef, 0xbb, 0xbf}
	vttHeader  = []byte("WEBVTT")
	vttPrelude = []byte("WEBVTT\n\n")
)

// ToVTT converts raw subtitle content to WebVTT. WebVTT payloads pass
// through unchanged apart from a missing header; SubRip payloads get CRLF
// and comma-decimal timestamps rewritten. The conversion is idempotent.
func ToVTT(content []byte, contentType, url string) []byte {
	content = bytes.TrimPrefix(content, utf8BOM)

	if isVTT(content, contentType) {
		if !bytes.HasPrefix(content, vttHeader) {
			return append(append([]byte{}, vttPrelude...), content...)
		}
		return content
	}

	if isSRT(content, contentType, url) {
		content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
		// SubRip uses 00:00:01,500 where WebVTT wants 00:00:01.500
		content = bytes.ReplaceAll(content, []byte(","), []byte("."))
		if !bytes.HasPrefix(content, vttHeader) {
			content = append(append([]byte{}, vttPrelude...), content...)
		}
		return content
	}

	return content
}

func isVTT(content []byte, contentType string) bool {
	return strings.Contains(contentType, "text/vtt") || bytes.HasPrefix(content, vttHeader)
}

func isSRT(content []byte, contentType, url string) bool {
	if contentType == "application/x-subrip" || strings.HasSuffix(url, ".srt") {
		return true
	}

	trimmed := bytes.TrimSpace(content)

	return bytes.HasPrefix(trimmed, []byte("1\r\n")) || bytes.HasPrefix(trimmed, []byte("1\n"))
}
