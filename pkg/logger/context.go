package logger

import (
	"context"
	"log/slog"
)

type contextKey int

const (
	operationKey contextKey = iota
	documentKey
)

// ContextWithOperation returns a copy of ctx whose records carry op under "operation".
func ContextWithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey, op)
}

// ContextWithDocument returns a copy of ctx whose records carry name under "document".
func ContextWithDocument(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, documentKey, name)
}

// contextHandler copies the operation and document stored in the context
// into each record before passing it on.
type contextHandler struct {
	next slog.Handler
}

func (h contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if op, ok := ctx.Value(operationKey).(string); ok && op != "" {
		rec.AddAttrs(Operation(op))
	}
	if name, ok := ctx.Value(documentKey).(string); ok && name != "" {
		rec.AddAttrs(Document(name))
	}
	return h.next.Handle(ctx, rec)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{next: h.next.WithGroup(name)}
}
