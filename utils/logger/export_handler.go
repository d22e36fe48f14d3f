package logger

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
)

// exportHandler tees records to the local handler and to an exporter.
// Records below minExport stay local so debug output never leaves the
// process. Both sinks are always attempted and their errors joined.
type exportHandler struct {
	local     slog.Handler
	exporter  slog.Handler
	minExport slog.Level
}

// newOTelExportHandler exports through the otelslog bridge, which reads
// trace context from the record's context.
func newOTelExportHandler(local slog.Handler, serviceName string, minExport slog.Level) slog.Handler {
	bridge := otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(global.GetLoggerProvider()))
	return newExportHandler(local, bridge, minExport)
}

func newExportHandler(local, exporter slog.Handler, minExport slog.Level) *exportHandler {
	return &exportHandler{local: local, exporter: exporter, minExport: minExport}
}

func (h *exportHandler) exports(ctx context.Context, level slog.Level) bool {
	return level >= h.minExport && h.exporter.Enabled(ctx, level)
}

func (h *exportHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.local.Enabled(ctx, level) || h.exports(ctx, level)
}

func (h *exportHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	if h.local.Enabled(ctx, r.Level) {
		errs = append(errs, h.local.Handle(ctx, r.Clone()))
	}
	if h.exports(ctx, r.Level) {
		errs = append(errs, h.exporter.Handle(ctx, r.Clone()))
	}
	return errors.Join(errs...)
}

func (h *exportHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newExportHandler(h.local.WithAttrs(attrs), h.exporter.WithAttrs(attrs), h.minExport)
}

func (h *exportHandler) WithGroup(name string) slog.Handler {
	return newExportHandler(h.local.WithGroup(name), h.exporter.WithGroup(name), h.minExport)
}
