package controller

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/service/room"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/pkg/ctxlogger"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/pkg/iplog"
)

func (c controller) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (c controller) party(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		http.Error(w, "room id is required", http.StatusBadRequest)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	ctx := context.WithValue(r.Context(), roomIdCtxKey, roomId)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", roomId))

	go c.logClientLocation(ctx, r.RemoteAddr)

	defer c.disconnect(ctx, roomId, conn)

	if err := c.wsRouter.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}
}

// disconnect is the single cleanup path for a websocket connection,
// regardless of whether the client closed cleanly or the read failed.
func (c controller) disconnect(ctx context.Context, roomId string, conn *websocket.Conn) {
	defer c.forgetConn(conn)

	response, err := c.roomService.Disconnect(ctx, &room.DisconnectParams{
		RoomId: roomId,
		Conn:   conn,
	})
	if err != nil {
		// a connection that never joined has nothing to clean up
		if !errors.Is(err, room.ErrNotJoined) {
			c.logger.ErrorContext(ctx, "failed to disconnect member", "error", err)
		}
		return
	}

	if response.RoomDestroyed {
		c.logger.InfoContext(ctx, "room destroyed")
		return
	}

	c.broadcast(ctx, response.Conns, userLeftOutput{
		Type:     "user_left",
		Username: response.LeftMember.Username,
		UserId:   response.LeftMember.Id,
		Users:    response.Members,
	})

	if response.Resumed {
		c.broadcast(ctx, response.Conns, syncOutput{
			Type:        "sync",
			IsPlaying:   true,
			CurrentTime: response.CurrentTime,
			TriggeredBy: "System (Buffering Complete)",
		})
	}
}

func (c controller) logClientLocation(ctx context.Context, remoteAddr string) {
	if c.ipLookup == nil {
		return
	}

	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	info, err := c.ipLookup.Lookup(ctx, host)
	if err != nil {
		if !errors.Is(err, iplog.ErrPrivateAddress) {
			c.logger.DebugContext(ctx, "failed to look up client ip", "ip", host, "error", err)
		}
		return
	}

	c.logger.InfoContext(ctx, "client connected",
		"ip", host,
		"country", info.Country,
		"city", info.City,
		"isp", info.Isp,
	)
}

func (c controller) ipLog(w http.ResponseWriter, r *http.Request) {
	if c.ipLookup == nil {
		writeJsonError(w, http.StatusServiceUnavailable, "lookup not configured")
		return
	}

	ip := chi.URLParam(r, "ip")

	info, err := c.ipLookup.Lookup(r.Context(), ip)
	if err != nil {
		switch {
		case errors.Is(err, iplog.ErrPrivateAddress):
			writeJsonError(w, http.StatusBadRequest, "address is private or invalid")
		case errors.Is(err, iplog.ErrNotFound):
			writeJsonError(w, http.StatusNotFound, "address not found")
		default:
			c.logger.ErrorContext(r.Context(), "failed to look up ip", "ip", ip, "error", err)
			writeJsonError(w, http.StatusBadGateway, "lookup failed")
		}
		return
	}

	writeJson(w, http.StatusOK, info)
}
