package logger

import (
	"context"
	"log/slog"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// Context keys for common logging fields. Values stored under these keys
// are picked up by FromContext and attached to derived loggers.
const (
	// ContextKeyConversation identifies the conversation being replayed.
	ContextKeyConversation contextKey = "conversation"

	// ContextKeyTurn identifies the current assistant turn index.
	ContextKeyTurn contextKey = "turn"

	// ContextKeyTool identifies the tool currently executing.
	ContextKeyTool contextKey = "tool"

	// ContextKeyRunID identifies one evaluation run across conversations.
	ContextKeyRunID contextKey = "run_id"
)

// WithConversation returns a context carrying the conversation name.
func WithConversation(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ContextKeyConversation, name)
}

// WithTurn returns a context carrying the current turn index.
func WithTurn(ctx context.Context, turn int) context.Context {
	return context.WithValue(ctx, ContextKeyTurn, turn)
}

// WithTool returns a context carrying the executing tool name.
func WithTool(ctx context.Context, tool string) context.Context {
	return context.WithValue(ctx, ContextKeyTool, tool)
}

// WithRunID returns a context carrying the evaluation run identifier.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// FromContext returns a logger with any replay-tracing fields found in ctx
// attached as attributes. Fields not present in ctx are omitted.
func FromContext(ctx context.Context) *slog.Logger {
	log := DefaultLogger
	if v, ok := ctx.Value(ContextKeyRunID).(string); ok {
		log = log.With("run_id", v)
	}
	if v, ok := ctx.Value(ContextKeyConversation).(string); ok {
		log = log.With("conversation", v)
	}
	if v, ok := ctx.Value(ContextKeyTurn).(int); ok {
		log = log.With("turn", v)
	}
	if v, ok := ctx.Value(ContextKeyTool).(string); ok {
		log = log.With("tool", v)
	}
	return log
}
