package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/repository/room"
)

type UpdatePlayerStateParams struct {
	RoomId      string
	SenderConn  *websocket.Conn
	IsPlaying   bool
	CurrentTime float64
}

type UpdatePlayerStateResponse struct {
	IsPlaying   bool
	CurrentTime float64
	TriggeredBy string
	// Conns excludes the sender: a client never gets its own input echoed
	// back.
	Conns []*websocket.Conn
}

// UpdatePlayerState applies an explicit play or pause. Last writer wins.
func (s *service) UpdatePlayerState(ctx context.Context, params *UpdatePlayerStateParams) (UpdatePlayerStateResponse, error) {
	sender, err := s.senderMember(ctx, params.RoomId, params.SenderConn)
	if err != nil {
		return UpdatePlayerStateResponse{}, err
	}

	if err := s.roomRepo.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		RoomId:      params.RoomId,
		IsPlaying:   params.IsPlaying,
		CurrentTime: params.CurrentTime,
	}); err != nil {
		return UpdatePlayerStateResponse{}, fmt.Errorf("failed to update player state: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId, sender.Id)
	if err != nil {
		return UpdatePlayerStateResponse{}, err
	}

	return UpdatePlayerStateResponse{
		IsPlaying:   params.IsPlaying,
		CurrentTime: params.CurrentTime,
		TriggeredBy: sender.Username,
		Conns:       conns,
	}, nil
}

type SeekParams struct {
	RoomId      string
	SenderConn  *websocket.Conn
	CurrentTime float64
}

type SeekResponse struct {
	IsPlaying   bool
	CurrentTime float64
	TriggeredBy string
	Conns       []*websocket.Conn
}

func (s *service) Seek(ctx context.Context, params *SeekParams) (SeekResponse, error) {
	sender, err := s.senderMember(ctx, params.RoomId, params.SenderConn)
	if err != nil {
		return SeekResponse{}, err
	}

	result, err := s.roomRepo.Seek(ctx, &room.SeekParams{
		RoomId:      params.RoomId,
		CurrentTime: params.CurrentTime,
	})
	if err != nil {
		return SeekResponse{}, fmt.Errorf("failed to seek: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId, sender.Id)
	if err != nil {
		return SeekResponse{}, err
	}

	return SeekResponse{
		IsPlaying:   result.IsPlaying,
		CurrentTime: params.CurrentTime,
		TriggeredBy: sender.Username,
		Conns:       conns,
	}, nil
}

type SetBufferingParams struct {
	RoomId     string
	SenderConn *websocket.Conn
	Buffering  bool
}

type SetBufferingResponse struct {
	// Changed reports whether the buffering set changed; nothing is
	// broadcast otherwise.
	Changed     bool
	Resumed     bool
	IsPlaying   bool
	CurrentTime float64
	TriggeredBy string
	// Conns includes the sender: buffering syncs go to the whole room.
	Conns []*websocket.Conn
}

func (s *service) SetBuffering(ctx context.Context, params *SetBufferingParams) (SetBufferingResponse, error) {
	sender, err := s.senderMember(ctx, params.RoomId, params.SenderConn)
	if err != nil {
		return SetBufferingResponse{}, err
	}

	result, err := s.roomRepo.SetBuffering(ctx, &room.SetBufferingParams{
		RoomId:    params.RoomId,
		MemberId:  sender.Id,
		Buffering: params.Buffering,
	})
	if err != nil {
		return SetBufferingResponse{}, fmt.Errorf("failed to set buffering: %w", err)
	}

	response := SetBufferingResponse{
		Changed:     result.Changed,
		Resumed:     result.Resumed,
		IsPlaying:   result.IsPlaying,
		CurrentTime: result.CurrentTime,
		TriggeredBy: sender.Username,
	}

	if !result.Changed {
		return response, nil
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId, "")
	if err != nil {
		return SetBufferingResponse{}, err
	}
	response.Conns = conns

	return response, nil
}
