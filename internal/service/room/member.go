package room

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/repository/room"
)

const defaultAvatar = "🎬"

type JoinRoomParams struct {
	RoomId   string
	Conn     *websocket.Conn
	Username string
	Avatar   string
}

type JoinRoomResponse struct {
	JoinedMember Member
	State        State
	Members      []Member
	// OtherConns are the connections of everyone except the joiner.
	OtherConns []*websocket.Conn
}

// JoinRoom registers a member, creating the room on first join. Missing
// username and avatar are defaulted.
func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	if _, err := s.connRepo.GetMemberId(params.Conn); err == nil {
		return JoinRoomResponse{}, ErrAlreadyJoined
	}

	username := params.Username
	if username == "" {
		username = guestUsername(params.RoomId)
	}
	avatar := params.Avatar
	if avatar == "" {
		avatar = defaultAvatar
	}

	memberId := uuid.NewString()

	member, err := s.roomRepo.AddMember(ctx, &room.AddMemberParams{
		RoomId:   params.RoomId,
		MemberId: memberId,
		Username: username,
		Avatar:   avatar,
	})
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to add member: %w", err)
	}

	if err := s.connRepo.Add(params.Conn, memberId); err != nil {
		s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{RoomId: params.RoomId, MemberId: memberId})
		return JoinRoomResponse{}, fmt.Errorf("failed to register connection: %w", err)
	}

	state, err := s.roomRepo.GetState(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get room state: %w", err)
	}

	otherConns, err := s.getConnsByRoomId(ctx, params.RoomId, memberId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	return JoinRoomResponse{
		JoinedMember: memberFromRepo(member),
		State:        stateFromRepo(state),
		Members:      membersFromRepo(state.Members),
		OtherConns:   otherConns,
	}, nil
}

type DisconnectParams struct {
	RoomId string
	Conn   *websocket.Conn
}

type DisconnectResponse struct {
	LeftMember    Member
	Members       []Member
	Conns         []*websocket.Conn
	RoomDestroyed bool
	// Resumed is set when the leaver was the last buffering member of a
	// stalled room.
	Resumed     bool
	CurrentTime float64
}

// Disconnect removes the member bound to the connection. It is the single
// cleanup path for both client-initiated and server-detected closes; a
// connection that never joined yields ErrNotJoined.
func (s *service) Disconnect(ctx context.Context, params *DisconnectParams) (DisconnectResponse, error) {
	memberId, err := s.connRepo.RemoveByConn(params.Conn)
	if err != nil {
		return DisconnectResponse{}, ErrNotJoined
	}

	result, err := s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{
		RoomId:   params.RoomId,
		MemberId: memberId,
	})
	if err != nil {
		return DisconnectResponse{}, fmt.Errorf("failed to remove member: %w", err)
	}
	if !result.Removed {
		return DisconnectResponse{}, ErrNotJoined
	}

	var conns []*websocket.Conn
	if !result.RoomDestroyed {
		conns, err = s.getConnsByRoomId(ctx, params.RoomId, "")
		if err != nil {
			return DisconnectResponse{}, err
		}
	}

	return DisconnectResponse{
		LeftMember:    memberFromRepo(result.Member),
		Members:       membersFromRepo(result.Members),
		Conns:         conns,
		RoomDestroyed: result.RoomDestroyed,
		Resumed:       result.Resumed,
		CurrentTime:   result.CurrentTime,
	}, nil
}

func guestUsername(roomId string) string {
	suffix := roomId
	if len(suffix) > 4 {
		suffix = suffix[:4]
	}

	return "Misafir-" + suffix
}
