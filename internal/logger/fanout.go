package logger

import (
	"context"
	"errors"
	"log/slog"
)

// fanout 将记录分发到多个 handler（控制台 + 文件）
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// liveHandler 每条记录都转发给 Logger 当前的 handler，
// 使 Slog() 返回值在 SetOutput / SetFile / SetLevel 之后仍然生效
type liveHandler struct {
	l   *Logger
	ops []func(slog.Handler) slog.Handler
}

func (h *liveHandler) Enabled(_ context.Context, level slog.Level) bool {
	h.l.mu.Lock()
	defer h.l.mu.Unlock()
	return h.l.enabled && level >= h.l.level.slogLevel()
}

func (h *liveHandler) Handle(ctx context.Context, r slog.Record) error {
	h.l.mu.Lock()
	target := h.l.logger.Handler()
	h.l.mu.Unlock()

	for _, op := range h.ops {
		target = op(target)
	}
	return target.Handle(ctx, r)
}

func (h *liveHandler) with(op func(slog.Handler) slog.Handler) slog.Handler {
	ops := make([]func(slog.Handler) slog.Handler, len(h.ops), len(h.ops)+1)
	copy(ops, h.ops)
	return &liveHandler{l: h.l, ops: append(ops, op)}
}

func (h *liveHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.with(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *liveHandler) WithGroup(name string) slog.Handler {
	return h.with(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}
