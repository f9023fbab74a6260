package room

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
	Thumbnail   string            `json:"thumbnail"`
}

type ChatMessage struct {
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
	Text      string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// State is a read-only projection of a room, taken under the room lock.
// CurrentTime is the effective position: while playing it includes the
// wall-clock time elapsed since the last anchor.
type State struct {
	RoomId             string        `json:"room_id"`
	Video              Video         `json:"video"`
	IsPlaying          bool          `json:"is_playing"`
	CurrentTime        float64       `json:"current_time"`
	Members            []Member      `json:"users"`
	BufferingMemberIds []string      `json:"buffering_users"`
	Chat               []ChatMessage `json:"chat_messages"`
}
