package controller

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/service/proxy"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/service/room"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/pkg/iplog"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/pkg/validator"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/pkg/wsrouter"
)

type iRoomService interface {
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	Disconnect(context.Context, *room.DisconnectParams) (room.DisconnectResponse, error)
	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) (room.UpdatePlayerStateResponse, error)
	Seek(context.Context, *room.SeekParams) (room.SeekResponse, error)
	SetBuffering(context.Context, *room.SetBufferingParams) (room.SetBufferingResponse, error)
	AddChatMessage(context.Context, *room.AddChatMessageParams) (room.AddChatMessageResponse, error)
	ChangeVideo(context.Context, *room.ChangeVideoParams) (room.ChangeVideoResponse, error)
	HandleHeartbeat(context.Context, *room.HandleHeartbeatParams) error
	GetRoomState(ctx context.Context, roomId string) (room.State, error)
}

type iProxyService interface {
	Fetch(context.Context, *proxy.FetchParams) (*http.Response, error)
	FetchSubtitle(context.Context, *proxy.FetchParams) ([]byte, string, int, error)
}

type iIpLookup interface {
	Lookup(ctx context.Context, ip string) (iplog.Info, error)
}

type controller struct {
	roomService  iRoomService
	proxyService iProxyService
	ipLookup     iIpLookup
	upgrader     websocket.Upgrader
	validate     *validator.Validator
	wsRouter     *wsrouter.WSRouter
	logger       *slog.Logger
	// connLocks serializes writes per connection; gorilla allows only one
	// concurrent writer.
	connLocks *sync.Map
}

func NewController(roomService iRoomService, proxyService iProxyService, ipLookup iIpLookup, logger *slog.Logger) *controller {
	c := &controller{
		roomService:  roomService,
		proxyService: proxyService,
		ipLookup:     ipLookup,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate:  validator.NewValidator(),
		logger:    logger,
		connLocks: &sync.Map{},
	}
	c.wsRouter = c.getWSRouter()

	return c
}
