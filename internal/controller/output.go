package controller

import "github.com/ramazansancar/keyiflerolsun-KekikParty/internal/service/room"

type errorOutput struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// roomStateOutput is the flat snapshot sent to late joiners and get_state
// requests; the video descriptor is inlined as video_* fields.
type roomStateOutput struct {
	Type           string             `json:"type"`
	RoomId         string             `json:"room_id"`
	VideoUrl       string             `json:"video_url"`
	VideoTitle     string             `json:"video_title"`
	VideoFormat    string             `json:"video_format"`
	Headers        map[string]string  `json:"headers"`
	SubtitleUrl    string             `json:"subtitle_url"`
	Duration       float64            `json:"duration"`
	Thumbnail      string             `json:"thumbnail,omitempty"`
	IsPlaying      bool               `json:"is_playing"`
	CurrentTime    float64            `json:"current_time"`
	Users          []room.Member      `json:"users"`
	BufferingUsers []string           `json:"buffering_users"`
	ChatMessages   []room.ChatMessage `json:"chat_messages"`
}

func roomStateOutputFrom(state room.State) roomStateOutput {
	return roomStateOutput{
		Type:           "room_state",
		RoomId:         state.RoomId,
		VideoUrl:       state.Video.Url,
		VideoTitle:     state.Video.Title,
		VideoFormat:    state.Video.Format,
		Headers:        state.Video.Headers,
		SubtitleUrl:    state.Video.SubtitleUrl,
		Duration:       state.Video.Duration,
		Thumbnail:      state.Video.Thumbnail,
		IsPlaying:      state.IsPlaying,
		CurrentTime:    state.CurrentTime,
		Users:          state.Members,
		BufferingUsers: state.BufferingMemberIds,
		ChatMessages:   state.Chat,
	}
}

type userJoinedOutput struct {
	Type     string        `json:"type"`
	Username string        `json:"username"`
	Avatar   string        `json:"avatar"`
	UserId   string        `json:"user_id"`
	Users    []room.Member `json:"users"`
}

type userLeftOutput struct {
	Type     string        `json:"type"`
	Username string        `json:"username"`
	UserId   string        `json:"user_id"`
	Users    []room.Member `json:"users"`
}

type syncOutput struct {
	Type        string  `json:"type"`
	IsPlaying   bool    `json:"is_playing"`
	CurrentTime float64 `json:"current_time"`
	TriggeredBy string  `json:"triggered_by"`
}

type seekOutput struct {
	Type        string  `json:"type"`
	CurrentTime float64 `json:"current_time"`
	IsPlaying   bool    `json:"is_playing"`
	TriggeredBy string  `json:"triggered_by"`
}

type chatOutput struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type videoChangedOutput struct {
	Type string `json:"type"`
	room.Video
	ChangedBy string `json:"changed_by"`
}

type pongOutput struct {
	Type string `json:"type"`
}
