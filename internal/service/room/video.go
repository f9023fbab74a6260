package room

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/repository/room"
)

const titleScrapeTimeout = 5 * time.Second

type ChangeVideoParams struct {
	RoomId      string
	SenderConn  *websocket.Conn
	Url         string
	Title       string
	UserAgent   string
	Referer     string
	SubtitleUrl string
}

type ChangeVideoResponse struct {
	Video     Video
	ChangedBy string
	// Conns includes the sender: the whole room switches video together.
	Conns []*websocket.Conn
}

// ChangeVideo resolves the url through the external resolver and replaces
// the room's video descriptor. Resolution failure or timeout falls back to
// treating the input url as directly playable. Playback state is not
// touched.
func (s *service) ChangeVideo(ctx context.Context, params *ChangeVideoParams) (ChangeVideoResponse, error) {
	sender, err := s.senderMember(ctx, params.RoomId, params.SenderConn)
	if err != nil {
		return ChangeVideoResponse{}, err
	}

	headers := make(map[string]string)
	if params.UserAgent != "" {
		headers["User-Agent"] = params.UserAgent
	}
	if params.Referer != "" {
		headers["Referer"] = params.Referer
	}

	video := s.resolveVideo(ctx, params, headers)

	if err := s.roomRepo.SetVideo(ctx, &room.SetVideoParams{
		RoomId:      params.RoomId,
		Url:         video.Url,
		Title:       video.Title,
		Format:      video.Format,
		Headers:     video.Headers,
		SubtitleUrl: video.SubtitleUrl,
		Duration:    video.Duration,
		Thumbnail:   video.Thumbnail,
	}); err != nil {
		return ChangeVideoResponse{}, fmt.Errorf("failed to set video: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId, "")
	if err != nil {
		return ChangeVideoResponse{}, err
	}

	return ChangeVideoResponse{
		Video:     video,
		ChangedBy: sender.Username,
		Conns:     conns,
	}, nil
}

func (s *service) resolveVideo(ctx context.Context, params *ChangeVideoParams, headers map[string]string) Video {
	if s.resolver != nil {
		info, err := s.resolver.Extract(ctx, params.Url)
		if err == nil && info.StreamUrl != "" {
			// resolver headers win over client-supplied ones
			for key, value := range info.HttpHeaders {
				headers[key] = value
			}

			return Video{
				Url:         info.StreamUrl,
				Title:       info.Title,
				Format:      info.Format,
				Headers:     headers,
				SubtitleUrl: params.SubtitleUrl,
				Duration:    info.Duration,
				Thumbnail:   info.Thumbnail,
			}
		}
	}

	return Video{
		Url:         params.Url,
		Title:       s.fallbackTitle(ctx, params),
		Format:      inferFormat(params.Url),
		Headers:     headers,
		SubtitleUrl: params.SubtitleUrl,
	}
}

func (s *service) fallbackTitle(ctx context.Context, params *ChangeVideoParams) string {
	if params.Title != "" {
		return params.Title
	}

	if s.titleScraper != nil && inferFormat(params.Url) == "mp4" && !looksLikeMediaUrl(params.Url) {
		scrapeCtx, cancel := context.WithTimeout(ctx, titleScrapeTimeout)
		defer cancel()

		if title, err := s.titleScraper.Get(scrapeCtx, params.Url); err == nil {
			return title
		}
	}

	return "Video"
}

func inferFormat(url string) string {
	if strings.Contains(strings.ToLower(url), ".m3u8") {
		return "hls"
	}

	return "mp4"
}

func looksLikeMediaUrl(url string) bool {
	lower := strings.ToLower(url)
	for _, ext := range []string{".mp4", ".webm", ".mkv", ".ts", ".m3u8"} {
		if strings.Contains(lower, ext) {
			return true
		}
	}

	return false
}
