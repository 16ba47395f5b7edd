package logging

import (
	"context"
	"log/slog"

	"murmur/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering ("clip_ready", "dispatch", ...).
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step when something failed.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRunID identifies one playback session.
	FieldRunID = "run_id"
	// FieldClipID identifies one fetched clip.
	FieldClipID = "clip_id"
	// FieldLink is the remote media identifier a clip came from.
	FieldLink = "link"
	// FieldSlot is the playback slot index.
	FieldSlot = "slot"
	// FieldErrorKind is the failure taxonomy entry (see services.Kind).
	FieldErrorKind = "error_kind"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if id, ok := services.ClipIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldClipID, id))
	}
	if link, ok := services.LinkFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldLink, link))
	}
	if slot, ok := services.SlotFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldSlot, slot))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
