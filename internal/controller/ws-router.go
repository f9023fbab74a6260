package controller

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gorilla/websocket"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/service/room"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	r := wsrouter.New()

	r.Use(c.loggingMw)

	wsrouter.Handle(r, "join", c.handleJoin)
	wsrouter.Handle(r, "play", c.handlePlay)
	wsrouter.Handle(r, "pause", c.handlePause)
	wsrouter.Handle(r, "seek", c.handleSeek)
	wsrouter.Handle(r, "chat", c.handleChat)
	wsrouter.Handle(r, "video_change", c.handleVideoChange)
	wsrouter.Handle(r, "ping", c.handlePing)
	wsrouter.Handle(r, "buffer_start", c.handleBufferStart)
	wsrouter.Handle(r, "buffer_end", c.handleBufferEnd)
	wsrouter.Handle(r, "get_state", c.handleGetState)

	r.HandleNotFound(func(ctx context.Context, conn *websocket.Conn, message json.RawMessage) error {
		messageType := wsrouter.GetMessageTypeFromCtx(ctx)
		c.logger.DebugContext(ctx, "unknown message type", "message_type", messageType)
		c.writeError(ctx, conn, "unknown message type: "+messageType)
		return nil
	})

	r.HandleError(func(ctx context.Context, conn *websocket.Conn, err error) {
		switch {
		case errors.Is(err, room.ErrNotJoined):
			c.writeError(ctx, conn, "join the room first")
		case errors.Is(err, room.ErrAlreadyJoined):
			c.writeError(ctx, conn, "already joined")
		case errors.Is(err, room.ErrRoomNotFound):
			c.writeError(ctx, conn, "room not found")
		default:
			c.logger.ErrorContext(ctx, "failed to handle message", "error", err)
			c.writeError(ctx, conn, "internal error")
		}
	})

	return r
}

func (c controller) loggingMw(next wsrouter.RawHandlerFunc) wsrouter.RawHandlerFunc {
	return func(ctx context.Context, conn *websocket.Conn, message json.RawMessage) error {
		c.logger.DebugContext(ctx, "handling message",
			"message_type", wsrouter.GetMessageTypeFromCtx(ctx),
		)

		return next(ctx, conn, message)
	}
}
