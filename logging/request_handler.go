package logging

import (
	"context"
	"log/slog"
)

// RequestIDKey is the attribute key used for request ids.
const RequestIDKey = "request_id"

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestHandler wraps an slog.Handler and adds the request id found in the
// record's context, if any.
type RequestHandler struct {
	underlying slog.Handler
}

// NewRequestHandler wraps underlying.
func NewRequestHandler(underlying slog.Handler) *RequestHandler {
	return &RequestHandler{underlying: underlying}
}

// Enabled defers to the underlying handler.
func (h *RequestHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.underlying.Enabled(ctx, level)
}

// Handle adds the request id attribute and passes the record on.
func (h *RequestHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestID(ctx); id != "" {
		r = r.Clone()
		r.AddAttrs(slog.String(RequestIDKey, id))
	}
	return h.underlying.Handle(ctx, r)
}

// WithAttrs must return a RequestHandler so ids survive .With() chains.
func (h *RequestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RequestHandler{underlying: h.underlying.WithAttrs(attrs)}
}

// WithGroup must return a RequestHandler so ids survive .WithGroup() chains.
func (h *RequestHandler) WithGroup(name string) slog.Handler {
	return &RequestHandler{underlying: h.underlying.WithGroup(name)}
}
