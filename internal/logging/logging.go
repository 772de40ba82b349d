// Package logging provides the process-wide slog setup: a JSON handler when
// the configured format is "json" and a text handler otherwise, with level
// sourced from config. Grounded on the teacher's internal/logging package, minus its log
// shipper (that forwards logs to a central management server — Beam has no
// such server, every instance is a standalone LAN peer, so DESIGN.md records
// the shipper as a dropped teacher file rather than wiring it here).
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Key constants for structured log fields shared across components.
const (
	KeyComponent = "component"
	KeyPeer      = "peer"
	KeySession   = "session"
	KeyError     = "error"
)

type switchableHandler struct {
	state  *switchableState
	attrs  []slog.Attr
	groups []string
}

type switchableState struct {
	current atomic.Value // stores slog.Handler
}

func newSwitchableHandler(h slog.Handler) *switchableHandler {
	state := &switchableState{}
	state.current.Store(h)
	return &switchableHandler{state: state}
}

func (h *switchableHandler) set(handler slog.Handler) {
	h.state.current.Store(handler)
}

func (h *switchableHandler) materialize() slog.Handler {
	handler := h.state.current.Load().(slog.Handler)
	for _, group := range h.groups {
		handler = handler.WithGroup(group)
	}
	if len(h.attrs) > 0 {
		handler = handler.WithAttrs(h.attrs)
	}
	return handler
}

func (h *switchableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.materialize().Enabled(ctx, level)
}

func (h *switchableHandler) Handle(ctx context.Context, record slog.Record) error {
	return h.materialize().Handle(ctx, record)
}

func (h *switchableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	groups := make([]string, len(h.groups))
	copy(groups, h.groups)
	return &switchableHandler{state: h.state, attrs: merged, groups: groups}
}

func (h *switchableHandler) WithGroup(name string) slog.Handler {
	attrs := make([]slog.Attr, len(h.attrs))
	copy(attrs, h.attrs)
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)
	return &switchableHandler{state: h.state, attrs: attrs, groups: groups}
}

var (
	rootHandler   = newSwitchableHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	defaultLogger = slog.New(rootHandler)
)

func init() {
	slog.SetDefault(defaultLogger)
}

// Init reconfigures the global logger. format is "json" or "text" (default
// "text" when not exactly "json"); level is "debug"/"info"/"warn"/"error".
// Call once during CLI startup, before any component logger is used.
func Init(format, level string, output io.Writer) {
	if output == nil {
		output = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	rootHandler.set(handler)
	defaultLogger = slog.New(rootHandler)
	slog.SetDefault(defaultLogger)
}

// L returns a logger tagged with the given component name, e.g.
// logging.L("session") or logging.L("discovery").
func L(component string) *slog.Logger {
	return defaultLogger.With(slog.String(KeyComponent, component))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
