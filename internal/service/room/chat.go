package room

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/repository/room"
)

type AddChatMessageParams struct {
	RoomId     string
	SenderConn *websocket.Conn
	Text       string
}

type AddChatMessageResponse struct {
	Message ChatMessage
	// Conns includes the sender so everyone renders the message from the
	// same broadcast.
	Conns []*websocket.Conn
}

// AddChatMessage appends a chat message with a server-assigned timestamp.
// Empty or whitespace-only text yields ErrEmptyMessage, which callers treat
// as a silent no-op.
func (s *service) AddChatMessage(ctx context.Context, params *AddChatMessageParams) (AddChatMessageResponse, error) {
	text := strings.TrimSpace(params.Text)
	if text == "" {
		return AddChatMessageResponse{}, ErrEmptyMessage
	}

	sender, err := s.senderMember(ctx, params.RoomId, params.SenderConn)
	if err != nil {
		return AddChatMessageResponse{}, err
	}

	message, err := s.roomRepo.AddChatMessage(ctx, &room.AddChatMessageParams{
		RoomId:   params.RoomId,
		Username: sender.Username,
		Avatar:   sender.Avatar,
		Text:     text,
	})
	if err != nil {
		return AddChatMessageResponse{}, fmt.Errorf("failed to add chat message: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId, "")
	if err != nil {
		return AddChatMessageResponse{}, err
	}

	return AddChatMessageResponse{
		Message: ChatMessage{
			Username:  message.Username,
			Avatar:    message.Avatar,
			Text:      message.Text,
			Timestamp: message.Timestamp,
		},
		Conns: conns,
	}, nil
}
