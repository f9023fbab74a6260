package room

type AddMemberParams struct {
	RoomId   string
	MemberId string
	Username string
	Avatar   string
}

type RemoveMemberParams struct {
	RoomId   string
	MemberId string
}

// RemoveMemberResult reports what a removal actually did. Removal is
// idempotent: an absent room or member yields Removed=false and no error.
type RemoveMemberResult struct {
	Removed       bool
	Member        Member
	Members       []Member
	RoomDestroyed bool
	// Resumed is set when the leaver was the last buffering member of a
	// stalled room and playback restarted.
	Resumed     bool
	CurrentTime float64
}

type UpdatePlayerStateParams struct {
	RoomId      string
	IsPlaying   bool
	CurrentTime float64
}

type SeekParams struct {
	RoomId      string
	CurrentTime float64
}

type SeekResult struct {
	IsPlaying bool
}

type SetBufferingParams struct {
	RoomId    string
	MemberId  string
	Buffering bool
}

type SetBufferingResult struct {
	// Changed reports whether the buffering set actually changed.
	Changed bool
	// Resumed reports that the set emptied and a stall-induced pause was
	// lifted.
	Resumed     bool
	IsPlaying   bool
	CurrentTime float64
}

type AddChatMessageParams struct {
	RoomId   string
	Username string
	Avatar   string
	Text     string
}

type SetVideoParams struct {
	RoomId      string
	Url         string
	Title       string
	Format      string
	Headers     map[string]string
	SubtitleUrl string
	Duration    float64
	Thumbnail   string
}

type UpdateMemberHeartbeatParams struct {
	RoomId       string
	MemberId     string
	ReportedTime *float64
}
