// Package inmemory holds the authoritative room state. Rooms live in a
// single registry map; every compound transition runs under the owning
// room's lock so concurrent actions on one room never interleave, while
// separate rooms never serialize against each other.
package inmemory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/repository/room"
)

type memberState struct {
	id               string
	username         string
	avatar           string
	lastHeartbeat    time.Time
	lastReportedTime float64
}

type roomState struct {
	mu sync.Mutex

	id      string
	members []*memberState // join order
	video   room.Video
	chat    []room.ChatMessage

	isPlaying   bool
	currentTime float64
	updatedAt   time.Time // position anchor
	// stalled marks a pause forced by buffering consensus, as opposed to
	// an explicit user pause. Only a stall-induced pause auto-resumes.
	stalled   bool
	buffering map[string]struct{}

	// destroyed is set when the last member leaves, so a goroutine that
	// looked the room up just before destruction does not mutate it.
	destroyed bool
}

// position returns the effective playback position at the given instant.
func (r *roomState) position(now time.Time) float64 {
	if !r.isPlaying {
		return r.currentTime
	}

	return r.currentTime + now.Sub(r.updatedAt).Seconds()
}

func (r *roomState) memberById(memberId string) (*memberState, int) {
	for i, m := range r.members {
		if m.id == memberId {
			return m, i
		}
	}

	return nil, -1
}

func (r *roomState) memberList() []room.Member {
	members := make([]room.Member, 0, len(r.members))
	for _, m := range r.members {
		members = append(members, room.Member{
			Id:       m.id,
			Username: m.username,
			Avatar:   m.avatar,
		})
	}

	return members
}

type repo struct {
	mu        sync.RWMutex
	rooms     map[string]*roomState
	chatLimit int
}

// NewRepo creates the registry. chatLimit bounds the per-room chat log;
// zero means unbounded.
func NewRepo(chatLimit int) *repo {
	return &repo{
		rooms:     make(map[string]*roomState),
		chatLimit: chatLimit,
	}
}

// getRoom returns the room with its lock already held.
func (r *repo) getRoom(roomId string) (*roomState, bool) {
	r.mu.RLock()
	rm, ok := r.rooms[roomId]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	rm.mu.Lock()
	if rm.destroyed {
		rm.mu.Unlock()
		return nil, false
	}

	return rm, true
}

// AddMember registers a member, creating the room on first join.
func (r *repo) AddMember(_ context.Context, params *room.AddMemberParams) (room.Member, error) {
	r.mu.Lock()
	rm, ok := r.rooms[params.RoomId]
	if !ok {
		rm = &roomState{
			id:        params.RoomId,
			buffering: make(map[string]struct{}),
			updatedAt: time.Now(),
		}
		r.rooms[params.RoomId] = rm
	}
	rm.mu.Lock()
	r.mu.Unlock()
	defer rm.mu.Unlock()

	if m, _ := rm.memberById(params.MemberId); m != nil {
		return room.Member{}, room.ErrMemberAlreadyExists
	}

	rm.members = append(rm.members, &memberState{
		id:            params.MemberId,
		username:      params.Username,
		avatar:        params.Avatar,
		lastHeartbeat: time.Now(),
	})

	return room.Member{Id: params.MemberId, Username: params.Username, Avatar: params.Avatar}, nil
}

// RemoveMember removes a member and destroys the room when it empties.
// The removal also drops the member from the buffering set; if that ends a
// stall, playback resumes just like a buffer_end would.
func (r *repo) RemoveMember(_ context.Context, params *room.RemoveMemberParams) (room.RemoveMemberResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[params.RoomId]
	if !ok {
		return room.RemoveMemberResult{}, nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	m, i := rm.memberById(params.MemberId)
	if m == nil {
		return room.RemoveMemberResult{}, nil
	}

	rm.members = slices.Delete(rm.members, i, i+1)
	delete(rm.buffering, params.MemberId)

	result := room.RemoveMemberResult{
		Removed: true,
		Member:  room.Member{Id: m.id, Username: m.username, Avatar: m.avatar},
		Members: rm.memberList(),
	}

	if len(rm.members) == 0 {
		rm.destroyed = true
		delete(r.rooms, params.RoomId)
		result.RoomDestroyed = true
		return result, nil
	}

	if len(rm.buffering) == 0 && !rm.isPlaying && rm.stalled {
		rm.isPlaying = true
		rm.updatedAt = time.Now()
		rm.stalled = false
		result.Resumed = true
		result.CurrentTime = rm.currentTime
	}

	return result, nil
}

func (r *repo) GetMember(_ context.Context, roomId, memberId string) (room.Member, error) {
	rm, ok := r.getRoom(roomId)
	if !ok {
		return room.Member{}, room.ErrRoomNotFound
	}
	defer rm.mu.Unlock()

	m, _ := rm.memberById(memberId)
	if m == nil {
		return room.Member{}, room.ErrMemberNotFound
	}

	return room.Member{Id: m.id, Username: m.username, Avatar: m.avatar}, nil
}

func (r *repo) GetMembers(_ context.Context, roomId string) ([]room.Member, error) {
	rm, ok := r.getRoom(roomId)
	if !ok {
		return nil, room.ErrRoomNotFound
	}
	defer rm.mu.Unlock()

	return rm.memberList(), nil
}

func (r *repo) GetMemberIds(_ context.Context, roomId string) ([]string, error) {
	rm, ok := r.getRoom(roomId)
	if !ok {
		return nil, room.ErrRoomNotFound
	}
	defer rm.mu.Unlock()

	ids := make([]string, 0, len(rm.members))
	for _, m := range rm.members {
		ids = append(ids, m.id)
	}

	return ids, nil
}

// GetState takes a consistent snapshot with a time-advanced position so
// late joiners do not start from a stale time.
func (r *repo) GetState(_ context.Context, roomId string) (room.State, error) {
	rm, ok := r.getRoom(roomId)
	if !ok {
		return room.State{}, room.ErrRoomNotFound
	}
	defer rm.mu.Unlock()

	bufferingIds := maps.Keys(rm.buffering)
	slices.Sort(bufferingIds)

	return room.State{
		RoomId:             rm.id,
		Video:              rm.video,
		IsPlaying:          rm.isPlaying,
		CurrentTime:        rm.position(time.Now()),
		Members:            rm.memberList(),
		BufferingMemberIds: bufferingIds,
		Chat:               slices.Clone(rm.chat),
	}, nil
}

// UpdatePlayerState applies an explicit play or pause. An explicit action
// always clears stall bookkeeping: the user decided, the consensus did not.
func (r *repo) UpdatePlayerState(_ context.Context, params *room.UpdatePlayerStateParams) error {
	rm, ok := r.getRoom(params.RoomId)
	if !ok {
		return room.ErrRoomNotFound
	}
	defer rm.mu.Unlock()

	rm.isPlaying = params.IsPlaying
	rm.currentTime = params.CurrentTime
	rm.updatedAt = time.Now()
	rm.stalled = false
	if params.IsPlaying {
		// playing implies nobody is buffering; stale reports self-heal
		// because a still-stalled client sends buffer_start again
		maps.Clear(rm.buffering)
	}

	return nil
}

func (r *repo) Seek(_ context.Context, params *room.SeekParams) (room.SeekResult, error) {
	rm, ok := r.getRoom(params.RoomId)
	if !ok {
		return room.SeekResult{}, room.ErrRoomNotFound
	}
	defer rm.mu.Unlock()

	rm.currentTime = params.CurrentTime
	rm.updatedAt = time.Now()

	return room.SeekResult{IsPlaying: rm.isPlaying}, nil
}

// SetBuffering applies buffering consensus: the first buffering member of a
// playing room stalls it, and the last one to finish resumes it, but only
// if the pause was stall-induced.
func (r *repo) SetBuffering(_ context.Context, params *room.SetBufferingParams) (room.SetBufferingResult, error) {
	rm, ok := r.getRoom(params.RoomId)
	if !ok {
		return room.SetBufferingResult{}, room.ErrRoomNotFound
	}
	defer rm.mu.Unlock()

	if m, _ := rm.memberById(params.MemberId); m == nil {
		return room.SetBufferingResult{}, room.ErrMemberNotFound
	}

	now := time.Now()

	if params.Buffering {
		if _, ok := rm.buffering[params.MemberId]; ok {
			return room.SetBufferingResult{IsPlaying: rm.isPlaying, CurrentTime: rm.position(now)}, nil
		}

		rm.buffering[params.MemberId] = struct{}{}
		if rm.isPlaying {
			rm.currentTime = rm.position(now)
			rm.updatedAt = now
			rm.isPlaying = false
			rm.stalled = true
		}

		return room.SetBufferingResult{
			Changed:     true,
			IsPlaying:   rm.isPlaying,
			CurrentTime: rm.currentTime,
		}, nil
	}

	if _, ok := rm.buffering[params.MemberId]; !ok {
		return room.SetBufferingResult{IsPlaying: rm.isPlaying, CurrentTime: rm.position(now)}, nil
	}

	delete(rm.buffering, params.MemberId)

	result := room.SetBufferingResult{
		Changed:     true,
		IsPlaying:   rm.isPlaying,
		CurrentTime: rm.currentTime,
	}

	if len(rm.buffering) == 0 && !rm.isPlaying && rm.stalled {
		rm.isPlaying = true
		rm.updatedAt = now
		rm.stalled = false
		result.Resumed = true
		result.IsPlaying = true
	}

	return result, nil
}

func (r *repo) AddChatMessage(_ context.Context, params *room.AddChatMessageParams) (room.ChatMessage, error) {
	rm, ok := r.getRoom(params.RoomId)
	if !ok {
		return room.ChatMessage{}, room.ErrRoomNotFound
	}
	defer rm.mu.Unlock()

	msg := room.ChatMessage{
		Username:  params.Username,
		Avatar:    params.Avatar,
		Text:      params.Text,
		Timestamp: time.Now().UnixMilli(),
	}

	rm.chat = append(rm.chat, msg)
	if r.chatLimit > 0 && len(rm.chat) > r.chatLimit {
		rm.chat = rm.chat[len(rm.chat)-r.chatLimit:]
	}

	return msg, nil
}

// SetVideo replaces the video descriptor. Playback state is deliberately
// left untouched.
func (r *repo) SetVideo(_ context.Context, params *room.SetVideoParams) error {
	rm, ok := r.getRoom(params.RoomId)
	if !ok {
		return room.ErrRoomNotFound
	}
	defer rm.mu.Unlock()

	rm.video = room.Video{
		Url:         params.Url,
		Title:       params.Title,
		Format:      params.Format,
		Headers:     params.Headers,
		SubtitleUrl: params.SubtitleUrl,
		Duration:    params.Duration,
		Thumbnail:   params.Thumbnail,
	}

	return nil
}

func (r *repo) UpdateMemberHeartbeat(_ context.Context, params *room.UpdateMemberHeartbeatParams) error {
	rm, ok := r.getRoom(params.RoomId)
	if !ok {
		return room.ErrRoomNotFound
	}
	defer rm.mu.Unlock()

	m, _ := rm.memberById(params.MemberId)
	if m == nil {
		return room.ErrMemberNotFound
	}

	m.lastHeartbeat = time.Now()
	if params.ReportedTime != nil {
		m.lastReportedTime = *params.ReportedTime
	}

	return nil
}
