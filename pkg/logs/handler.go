package logs

import (
	"context"
	"log/slog"
)

type programKey struct{}

// WithProgram tags every record logged with ctx with the program name.
func WithProgram(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, programKey{}, name)
}

func ProgramFrom(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(programKey{}).(string)
	return name, ok
}

type Handler struct {
	slog.Handler
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if name, ok := ProgramFrom(ctx); ok {
		record.Add("lps.program", name)
	}
	return h.Handler.Handle(ctx, record)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{Handler: h.Handler.WithGroup(name)}
}
