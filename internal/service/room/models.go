package room

import (
	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/repository/room"
)

type Member struct {
	Id       string `json:"user_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type Video struct {
	Url         string            `json:"url"`
	Title       string            `json:"title"`
	Format      string            `json:"format"`
	Headers     map[string]string `json:"headers"`
	SubtitleUrl string            `json:"subtitle_url"`
	Duration    float64           `json:"duration"`
	Thumbnail   string            `json:"thumbnail,omitempty"`
}

type ChatMessage struct {
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
	Text      string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type State struct {
	RoomId             string        `json:"room_id"`
	Video              Video         `json:"video"`
	IsPlaying          bool          `json:"is_playing"`
	CurrentTime        float64       `json:"current_time"`
	Members            []Member      `json:"users"`
	BufferingMemberIds []string      `json:"buffering_users"`
	Chat               []ChatMessage `json:"chat_messages"`
}

func memberFromRepo(m room.Member) Member {
	return Member{Id: m.Id, Username: m.Username, Avatar: m.Avatar}
}

func membersFromRepo(members []room.Member) []Member {
	result := make([]Member, 0, len(members))
	for _, m := range members {
		result = append(result, memberFromRepo(m))
	}

	return result
}

func videoFromRepo(v room.Video) Video {
	return Video{
		Url:         v.Url,
		Title:       v.Title,
		Format:      v.Format,
		Headers:     v.Headers,
		SubtitleUrl: v.SubtitleUrl,
		Duration:    v.Duration,
		Thumbnail:   v.Thumbnail,
	}
}

func chatFromRepo(messages []room.ChatMessage) []ChatMessage {
	result := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		result = append(result, ChatMessage{
			Username:  m.Username,
			Avatar:    m.Avatar,
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}

	return result
}

func stateFromRepo(s room.State) State {
	return State{
		RoomId:             s.RoomId,
		Video:              videoFromRepo(s.Video),
		IsPlaying:          s.IsPlaying,
		CurrentTime:        s.CurrentTime,
		Members:            membersFromRepo(s.Members),
		BufferingMemberIds: s.BufferingMemberIds,
		Chat:               chatFromRepo(s.Chat),
	}
}
