package wsrouter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

type envelope struct {
	Type string `json:"type"`
}

// HandlerFunc receives the decoded message. The envelope is flat, so the
// input struct fields live next to the "type" discriminator.
type HandlerFunc[T any] func(ctx context.Context, conn *websocket.Conn, input T) error

type RawHandlerFunc func(ctx context.Context, conn *websocket.Conn, message json.RawMessage) error

type Middleware func(next RawHandlerFunc) RawHandlerFunc

type WSRouter struct {
	routes      map[string]RawHandlerFunc
	middlewares []Middleware
	notFound    RawHandlerFunc
	onError     func(ctx context.Context, conn *websocket.Conn, err error)
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]RawHandlerFunc)}
}

func (r *WSRouter) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

// HandleNotFound sets the handler invoked for unrecognized message types.
func (r *WSRouter) HandleNotFound(handler RawHandlerFunc) {
	r.notFound = handler
}

// HandleError sets the callback invoked when a handler returns an error.
func (r *WSRouter) HandleError(onError func(ctx context.Context, conn *websocket.Conn, err error)) {
	r.onError = onError
}

// Handle registers a typed handler for a message type. The full message is
// unmarshalled into T before the handler runs.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	r.routes[messageType] = func(ctx context.Context, conn *websocket.Conn, message json.RawMessage) error {
		var input T
		if len(message) > 0 {
			if err := json.Unmarshal(message, &input); err != nil {
				return fmt.Errorf("failed to unmarshal %q message: %w", messageType, err)
			}
		}

		return handler(ctx, conn, input)
	}
}

// ServeConn reads messages from the connection until the read fails, routing
// each one by its type. The returned error is always the read error.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			r.handleError(ctx, conn, fmt.Errorf("failed to unmarshal envelope: %w", err))
			continue
		}

		handler, ok := r.routes[env.Type]
		if !ok {
			if r.notFound == nil {
				continue
			}
			handler = r.notFound
		}

		for i := len(r.middlewares) - 1; i >= 0; i-- {
			handler = r.middlewares[i](handler)
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, env.Type)
		if err := handler(msgCtx, conn, data); err != nil {
			r.handleError(msgCtx, conn, err)
		}
	}
}

func (r *WSRouter) handleError(ctx context.Context, conn *websocket.Conn, err error) {
	if r.onError != nil {
		r.onError(ctx, conn, err)
	}
}
