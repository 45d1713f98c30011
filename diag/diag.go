// Package diag is the report-and-continue sink used by the codec to emit
// structured validation errors, warnings and internal-logic failures.
//
// A Sink never decides whether processing stops; callers return the error
// themselves and use the sink only to report it.
package diag

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/signadot/lyb-format/go-lyb/lyerr"
)

type Sink struct {
	log *slog.Logger
}

// New creates a sink writing to l. A nil logger means slog.Default().
func New(l *slog.Logger) *Sink {
	if l == nil {
		l = slog.Default()
	}
	return &Sink{log: l}
}

// Default returns a sink on slog.Default().
func Default() *Sink {
	return New(nil)
}

// Discard returns a sink that drops every record.
func Discard() *Sink {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// NewText returns a sink writing text records to w at LevelFromEnv.
func NewText(w io.Writer) *Sink {
	return New(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: LevelFromEnv(),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})))
}

// LevelFromEnv reads LYB_LOG_LEVEL (debug, info, warn, error).
func LevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LYB_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Logger returns the underlying logger.
func (s *Sink) Logger() *slog.Logger {
	return s.log
}

// Val reports a validation error for the node at path.
func (s *Sink) Val(path string, code lyerr.Code, msg string) {
	s.log.Error(msg, slog.String("kind", "validation"), slog.String("code", code.String()), slog.String("path", path))
}

// Warn reports a non-fatal issue.
func (s *Sink) Warn(path string, code lyerr.Code, msg string) {
	s.log.Warn(msg, slog.String("code", code.String()), slog.String("path", path))
}

// Internal reports a broken invariant or caller mistake.
func (s *Sink) Internal(msg string) {
	s.log.Error(msg, slog.String("kind", "internal"))
}

// Err reports err, using its path and code when it carries them.
func (s *Sink) Err(err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, lyerr.ErrInternal):
		s.Internal(err.Error())
	case errors.Is(err, lyerr.ErrValid), errors.Is(err, lyerr.ErrDeferred):
		s.Val(lyerr.PathOf(err), lyerr.CodeOf(err), err.Error())
	default:
		s.log.Error(err.Error())
	}
}

// Debug emits a debug record.
func (s *Sink) Debug(msg string, args ...any) {
	s.log.Log(context.Background(), slog.LevelDebug, msg, args...)
}
