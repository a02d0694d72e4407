// Package gensiolog provides the leveled diagnostic sink used for the
// accepter's acc_log callback (see gensiobase.Accepter) and by
// cmd/gensiotool. The accepter logs accept()-loop errors, accepted-socket
// setup failures and accepted-endpoint open failures; rejected accepts are
// not logged, and the PTY driver takes no logger, so its reap and cleanup
// errors are not logged either.
package gensiolog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Level mirrors the handful of severities the drivers actually emit.
type Level int

const (
	Debug Level = iota
	Info
	Warning
	Error
	Fatal
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case Debug:
		return slog.LevelDebug
	case Info:
		return slog.LevelInfo
	case Warning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Logger is the minimal interface the drivers depend on, so tests can swap in
// a recording logger without pulling in slog.
type Logger interface {
	Logf(level Level, format string, args ...any)
}

// Default is a Logger backed by log/slog writing to stderr. It is the only
// logging dependency in the module: no third-party structured-logging
// library is pulled in, building structured diagnostics on the standard
// library rather than an external logging package.
type Default struct {
	h *slog.Logger
}

// NewDefault builds a Default logger. component is attached to every record
// (e.g. "tcp.accepter", "pty").
func NewDefault(component string) *Default {
	h := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return &Default{h: h.With("component", component)}
}

func (d *Default) Logf(level Level, format string, args ...any) {
	d.h.Log(context.Background(), level.slogLevel(), fmt.Sprintf(format, args...))
}
