package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/repository/room"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/pkg/ytdlp"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotJoined     = errors.New("member has not joined the room")
	ErrAlreadyJoined = errors.New("member already joined the room")
	ErrEmptyMessage  = errors.New("empty chat message")
)

type iRoomRepo interface {
	AddMember(context.Context, *room.AddMemberParams) (room.Member, error)
	RemoveMember(context.Context, *room.RemoveMemberParams) (room.RemoveMemberResult, error)
	GetMember(ctx context.Context, roomId, memberId string) (room.Member, error)
	GetMembers(ctx context.Context, roomId string) ([]room.Member, error)
	GetMemberIds(ctx context.Context, roomId string) ([]string, error)
	GetState(ctx context.Context, roomId string) (room.State, error)
	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) error
	Seek(context.Context, *room.SeekParams) (room.SeekResult, error)
	SetBuffering(context.Context, *room.SetBufferingParams) (room.SetBufferingResult, error)
	AddChatMessage(context.Context, *room.AddChatMessageParams) (room.ChatMessage, error)
	SetVideo(context.Context, *room.SetVideoParams) error
	UpdateMemberHeartbeat(context.Context, *room.UpdateMemberHeartbeatParams) error
}

type iConnRepo interface {
	Add(conn *websocket.Conn, memberId string) error
	RemoveByConn(conn *websocket.Conn) (string, error)
	RemoveByMemberId(memberId string) error
	GetMemberId(conn *websocket.Conn) (string, error)
	GetConn(memberId string) (*websocket.Conn, error)
}

type iVideoResolver interface {
	Extract(ctx context.Context, url string) (*ytdlp.VideoData, error)
}

type iTitleScraper interface {
	Get(ctx context.Context, pageUrl string) (string, error)
}

type service struct {
	roomRepo     iRoomRepo
	connRepo     iConnRepo
	resolver     iVideoResolver
	titleScraper iTitleScraper
}

// NewService wires the room engine. resolver and titleScraper may be nil;
// video changes then always use raw-url semantics.
func NewService(roomRepo iRoomRepo, connRepo iConnRepo, resolver iVideoResolver, titleScraper iTitleScraper) *service {
	return &service{
		roomRepo:     roomRepo,
		connRepo:     connRepo,
		resolver:     resolver,
		titleScraper: titleScraper,
	}
}

// senderMember resolves the member behind a connection.
func (s *service) senderMember(ctx context.Context, roomId string, conn *websocket.Conn) (room.Member, error) {
	memberId, err := s.connRepo.GetMemberId(conn)
	if err != nil {
		return room.Member{}, ErrNotJoined
	}

	member, err := s.roomRepo.GetMember(ctx, roomId, memberId)
	if err != nil {
		return room.Member{}, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// getConnsByRoomId collects the live connections of a room, optionally
// excluding one member. Members without a registered connection are
// skipped.
func (s *service) getConnsByRoomId(ctx context.Context, roomId, excludeMemberId string) ([]*websocket.Conn, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get member ids: %w", err)
	}

	conns := make([]*websocket.Conn, 0, len(memberIds))
	for _, memberId := range memberIds {
		if memberId == excludeMemberId {
			continue
		}

		conn, err := s.connRepo.GetConn(memberId)
		if err != nil {
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

// GetRoomState returns the snapshot sent to late joiners and get_state
// requests.
func (s *service) GetRoomState(ctx context.Context, roomId string) (State, error) {
	state, err := s.roomRepo.GetState(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return State{}, ErrRoomNotFound
		}
		return State{}, fmt.Errorf("failed to get room state: %w", err)
	}

	return stateFromRepo(state), nil
}
