package logger

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// contextHandler copies correlation fields carried by ctx onto each record:
// the active span, the HTTP request id and the job being processed. A field
// the caller already logged explicitly is left alone.
type contextHandler struct {
	next slog.Handler
}

func newContextHandler(next slog.Handler) slog.Handler {
	return &contextHandler{next: next}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	var extra []slog.Attr
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		extra = append(extra,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()))
	}
	if id := RequestIDFromContext(ctx); id != "" && !hasAttr(r, string(RequestIDKey)) {
		extra = append(extra, slog.String(string(RequestIDKey), id))
	}
	if id, ok := JobIDFromContext(ctx); ok && !hasAttr(r, string(JobIDKey)) {
		extra = append(extra, slog.Int64(string(JobIDKey), id))
	}
	if len(extra) > 0 {
		r.AddAttrs(extra...)
	}
	return h.next.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name)}
}

func hasAttr(r slog.Record, key string) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		found = a.Key == key
		return !found
	})
	return found
}
