// Package ctxlogger carries slog attrs in a context so request-scoped
// fields (request id, room id) appear on every record logged beneath them
// without threading a logger through each layer.
package ctxlogger

import (
	"context"
	"log/slog"
)

type ctxKey int

const slogAttrsKey ctxKey = iota

// AppendCtx returns a context carrying the given attr in addition to any
// attrs already attached by earlier calls.
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	attrs, _ := parent.Value(slogAttrsKey).([]slog.Attr)
	newAttrs := make([]slog.Attr, 0, len(attrs)+1)
	newAttrs = append(newAttrs, attrs...)
	newAttrs = append(newAttrs, attr)

	return context.WithValue(parent, slogAttrsKey, newAttrs)
}

// ContextHandler adds context-attached attrs to every record it handles.
type ContextHandler struct {
	slog.Handler
}

func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(slogAttrsKey).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}

	return h.Handler.Handle(ctx, r)
}
