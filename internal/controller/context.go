package controller

import "context"

type ctxKey int

const (
	roomIdCtxKey ctxKey = iota
)

func getRoomIdFromCtx(ctx context.Context) string {
	roomId, _ := ctx.Value(roomIdCtxKey).(string)
	return roomId
}
