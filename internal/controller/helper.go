package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

func (c controller) connLock(conn *websocket.Conn) *sync.Mutex {
	mu, _ := c.connLocks.LoadOrStore(conn, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (c controller) forgetConn(conn *websocket.Conn) {
	c.connLocks.Delete(conn)
}

func (c controller) writeToConn(ctx context.Context, conn *websocket.Conn, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to marshal message", "error", err)
		return
	}

	c.writeRawToConn(ctx, conn, data)
}

func (c controller) writeRawToConn(ctx context.Context, conn *websocket.Conn, data []byte) {
	mu := c.connLock(conn)
	mu.Lock()
	defer mu.Unlock()

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.DebugContext(ctx, "failed to write to conn", "error", err)
	}
}

// broadcast serializes the message once and writes it to every connection.
// A failed write never aborts delivery to the remaining connections.
func (c controller) broadcast(ctx context.Context, conns []*websocket.Conn, message any) {
	if len(conns) == 0 {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to marshal broadcast message", "error", err)
		return
	}

	for _, conn := range conns {
		c.writeRawToConn(ctx, conn, data)
	}
}

func (c controller) writeError(ctx context.Context, conn *websocket.Conn, message string) {
	c.writeToConn(ctx, conn, errorOutput{
		Type:    "error",
		Message: message,
	})
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeJsonError(w http.ResponseWriter, status int, message string) {
	writeJson(w, status, map[string]string{"error": message})
}
