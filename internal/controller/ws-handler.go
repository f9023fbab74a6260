package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/service/room"
)

type JoinInput struct {
	Username string `json:"username" validate:"omitempty,max=64"`
	Avatar   string `json:"avatar" validate:"omitempty,max=16"`
}

func (c controller) handleJoin(ctx context.Context, conn *websocket.Conn, input JoinInput) error {
	if errs, ok := c.validate.Validate(input); !ok {
		c.writeError(ctx, conn, errs[0].Message)
		return nil
	}

	response, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		RoomId:   getRoomIdFromCtx(ctx),
		Conn:     conn,
		Username: input.Username,
		Avatar:   input.Avatar,
	})
	if err != nil {
		return err
	}

	c.writeToConn(ctx, conn, roomStateOutputFrom(response.State))

	c.broadcast(ctx, response.OtherConns, userJoinedOutput{
		Type:     "user_joined",
		Username: response.JoinedMember.Username,
		Avatar:   response.JoinedMember.Avatar,
		UserId:   response.JoinedMember.Id,
		Users:    response.Members,
	})

	return nil
}

type PlayerStateInput struct {
	Time *float64 `json:"time" validate:"required"`
}

func (c controller) handlePlay(ctx context.Context, conn *websocket.Conn, input PlayerStateInput) error {
	return c.updatePlayerState(ctx, conn, input, true)
}

func (c controller) handlePause(ctx context.Context, conn *websocket.Conn, input PlayerStateInput) error {
	return c.updatePlayerState(ctx, conn, input, false)
}

func (c controller) updatePlayerState(ctx context.Context, conn *websocket.Conn, input PlayerStateInput, isPlaying bool) error {
	if errs, ok := c.validate.Validate(input); !ok {
		c.writeError(ctx, conn, errs[0].Message)
		return nil
	}

	response, err := c.roomService.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		RoomId:      getRoomIdFromCtx(ctx),
		SenderConn:  conn,
		IsPlaying:   isPlaying,
		CurrentTime: *input.Time,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, response.Conns, syncOutput{
		Type:        "sync",
		IsPlaying:   response.IsPlaying,
		CurrentTime: response.CurrentTime,
		TriggeredBy: response.TriggeredBy,
	})

	return nil
}

func (c controller) handleSeek(ctx context.Context, conn *websocket.Conn, input PlayerStateInput) error {
	if errs, ok := c.validate.Validate(input); !ok {
		c.writeError(ctx, conn, errs[0].Message)
		return nil
	}

	response, err := c.roomService.Seek(ctx, &room.SeekParams{
		RoomId:      getRoomIdFromCtx(ctx),
		SenderConn:  conn,
		CurrentTime: *input.Time,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, response.Conns, seekOutput{
		Type:        "seek",
		CurrentTime: response.CurrentTime,
		IsPlaying:   response.IsPlaying,
		TriggeredBy: response.TriggeredBy,
	})

	return nil
}

type ChatInput struct {
	Message string `json:"message" validate:"omitempty,max=2000"`
}

func (c controller) handleChat(ctx context.Context, conn *websocket.Conn, input ChatInput) error {
	if errs, ok := c.validate.Validate(input); !ok {
		c.writeError(ctx, conn, errs[0].Message)
		return nil
	}

	response, err := c.roomService.AddChatMessage(ctx, &room.AddChatMessageParams{
		RoomId:     getRoomIdFromCtx(ctx),
		SenderConn: conn,
		Text:       input.Message,
	})
	if err != nil {
		// blank messages are dropped without a reply
		if errors.Is(err, room.ErrEmptyMessage) {
			return nil
		}
		return err
	}

	c.broadcast(ctx, response.Conns, chatOutput{
		Type:      "chat",
		Username:  response.Message.Username,
		Avatar:    response.Message.Avatar,
		Message:   response.Message.Text,
		Timestamp: response.Message.Timestamp,
	})

	return nil
}

type VideoChangeInput struct {
	Url         string `json:"url" validate:"required"`
	Title       string `json:"title" validate:"omitempty,max=256"`
	UserAgent   string `json:"user_agent"`
	Referer     string `json:"referer"`
	SubtitleUrl string `json:"subtitle_url"`
}

func (c controller) handleVideoChange(ctx context.Context, conn *websocket.Conn, input VideoChangeInput) error {
	if errs, ok := c.validate.Validate(input); !ok {
		c.writeError(ctx, conn, errs[0].Message)
		return nil
	}

	response, err := c.roomService.ChangeVideo(ctx, &room.ChangeVideoParams{
		RoomId:      getRoomIdFromCtx(ctx),
		SenderConn:  conn,
		Url:         input.Url,
		Title:       input.Title,
		UserAgent:   input.UserAgent,
		Referer:     input.Referer,
		SubtitleUrl: input.SubtitleUrl,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, response.Conns, videoChangedOutput{
		Type:      "video_changed",
		Video:     response.Video,
		ChangedBy: response.ChangedBy,
	})

	return nil
}

type PingInput struct {
	CurrentTime *float64 `json:"current_time"`
}

func (c controller) handlePing(ctx context.Context, conn *websocket.Conn, input PingInput) error {
	c.writeToConn(ctx, conn, pongOutput{Type: "pong"})

	err := c.roomService.HandleHeartbeat(ctx, &room.HandleHeartbeatParams{
		RoomId:       getRoomIdFromCtx(ctx),
		SenderConn:   conn,
		ReportedTime: input.CurrentTime,
	})
	// a ping before join still gets its pong
	if err != nil && !errors.Is(err, room.ErrNotJoined) {
		return err
	}

	return nil
}

type EmptyInput struct{}

func (c controller) handleBufferStart(ctx context.Context, conn *websocket.Conn, _ EmptyInput) error {
	return c.setBuffering(ctx, conn, true)
}

func (c controller) handleBufferEnd(ctx context.Context, conn *websocket.Conn, _ EmptyInput) error {
	return c.setBuffering(ctx, conn, false)
}

func (c controller) setBuffering(ctx context.Context, conn *websocket.Conn, buffering bool) error {
	response, err := c.roomService.SetBuffering(ctx, &room.SetBufferingParams{
		RoomId:     getRoomIdFromCtx(ctx),
		SenderConn: conn,
		Buffering:  buffering,
	})
	if err != nil {
		return err
	}

	if buffering {
		if !response.Changed {
			return nil
		}

		c.broadcast(ctx, response.Conns, syncOutput{
			Type:        "sync",
			IsPlaying:   response.IsPlaying,
			CurrentTime: response.CurrentTime,
			TriggeredBy: fmt.Sprintf("%s (Buffering...)", response.TriggeredBy),
		})

		return nil
	}

	if !response.Resumed {
		return nil
	}

	c.broadcast(ctx, response.Conns, syncOutput{
		Type:        "sync",
		IsPlaying:   response.IsPlaying,
		CurrentTime: response.CurrentTime,
		TriggeredBy: "System (Buffering Complete)",
	})

	return nil
}

func (c controller) handleGetState(ctx context.Context, conn *websocket.Conn, _ EmptyInput) error {
	state, err := c.roomService.GetRoomState(ctx, getRoomIdFromCtx(ctx))
	if err != nil {
		return err
	}

	c.writeToConn(ctx, conn, roomStateOutputFrom(state))

	return nil
}
