package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	clipIDKey contextKey = "clip_id"
	linkKey   contextKey = "link"
	slotKey   contextKey = "slot"
)

// WithRunID annotates context with the playback session identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the session identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithClipID annotates context with the clip identifier.
func WithClipID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, clipIDKey, id)
}

// ClipIDFromContext returns the clip identifier if present.
func ClipIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(clipIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithLink annotates context with the remote media link being processed.
func WithLink(ctx context.Context, link string) context.Context {
	if link == "" {
		return ctx
	}
	return context.WithValue(ctx, linkKey, link)
}

// LinkFromContext returns the media link if present.
func LinkFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(linkKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSlot annotates context with a playback slot index.
func WithSlot(ctx context.Context, slot int) context.Context {
	if slot < 0 {
		return ctx
	}
	return context.WithValue(ctx, slotKey, slot)
}

// SlotFromContext returns the slot index if present.
func SlotFromContext(ctx context.Context) (int, bool) {
	switch v := ctx.Value(slotKey).(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}
