package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/repository/room"
)

type HandleHeartbeatParams struct {
	RoomId     string
	SenderConn *websocket.Conn
	// ReportedTime is the client's playback position, when it sent one.
	// Recorded for liveness; no drift correction is derived from it.
	ReportedTime *float64
}

func (s *service) HandleHeartbeat(ctx context.Context, params *HandleHeartbeatParams) error {
	memberId, err := s.connRepo.GetMemberId(params.SenderConn)
	if err != nil {
		return ErrNotJoined
	}

	if err := s.roomRepo.UpdateMemberHeartbeat(ctx, &room.UpdateMemberHeartbeatParams{
		RoomId:       params.RoomId,
		MemberId:     memberId,
		ReportedTime: params.ReportedTime,
	}); err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}

	return nil
}
