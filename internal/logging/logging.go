// Package logging provides structured logging with redaction of provider
// credentials. All packages in this module log through it.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with redaction support.
type Logger struct {
	*slog.Logger
	redactor *Redactor
}

// Config contains configuration for the logger.
type Config struct {
	Level     slog.Level
	Output    io.Writer
	AddSource bool
	JSON      bool
}

// New creates a logger writing to cfg.Output with the given redactor.
// A nil redactor disables redaction, a nil output falls back to stderr.
func New(cfg Config, redactor *Redactor) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	var handler slog.Handler = slog.NewTextHandler(out, opts)
	if cfg.JSON {
		handler = slog.NewJSONHandler(out, opts)
	}

	return &Logger{Logger: slog.New(handler), redactor: redactor}
}

// Default returns a text logger at INFO level with default redaction.
func Default() *Logger {
	return New(Config{Level: slog.LevelInfo}, NewRedactor())
}

// Nop returns a logger that discards everything. Useful as the fallback
// when a component is constructed without a logger.
func Nop() *Logger {
	return New(Config{Level: slog.LevelError + 1, Output: io.Discard}, nil)
}

func (l *Logger) derive(sl *slog.Logger) *Logger {
	return &Logger{Logger: sl, redactor: l.redactor}
}

// WithSession returns a logger with the session ID attached.
func (l *Logger) WithSession(sessionID string) *Logger {
	if sessionID == "" {
		return l
	}
	return l.derive(l.Logger.With("session_id", sessionID))
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(args ...any) *Logger {
	return l.derive(l.Logger.With(args...))
}

// RedactedInfo logs at INFO level after masking credentials in msg and args.
func (l *Logger) RedactedInfo(msg string, args ...any) {
	l.logRedacted(slog.LevelInfo, msg, args)
}

// RedactedDebug logs at DEBUG level after masking credentials in msg and args.
func (l *Logger) RedactedDebug(msg string, args ...any) {
	l.logRedacted(slog.LevelDebug, msg, args)
}

// RedactedError logs at ERROR level after masking credentials in msg and args.
func (l *Logger) RedactedError(msg string, args ...any) {
	l.logRedacted(slog.LevelError, msg, args)
}

func (l *Logger) logRedacted(level slog.Level, msg string, args []any) {
	if l.redactor != nil {
		msg = l.redactor.Redact(msg)
		args = l.redactArgs(args)
	}
	l.Logger.Log(context.Background(), level, msg, args...)
}

func (l *Logger) redactArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			out[i] = l.redactor.Redact(v)
		case error:
			out[i] = l.redactor.Redact(v.Error())
		default:
			out[i] = a
		}
	}
	return out
}

// Slog returns the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.Logger
}
