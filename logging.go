package taskpool

import (
	"log/slog"
	"os"

	"github.com/joeycumines/logiface"
	logslog "github.com/joeycumines/logiface-slog"
)

// Logger wraps a logiface.Logger so the rest of the package only deals
// with a handful of narrow helper methods, keeping the generic logging
// backend confined to this one file. Obtain one from NewLogger and pass
// it to Builder.WithLogger.
type Logger struct {
	l *logiface.Logger[*logslog.Event]
}

// NewLogger builds a taskpool Logger backed by the given slog.Handler,
// using the logiface fluent builder API (the same structured-logging
// stack used throughout the rest of this family of packages) rather than
// writing to the handler directly.
func NewLogger(handler slog.Handler) *Logger {
	return &Logger{l: logiface.New[*logslog.Event](logslog.NewLogger(handler))}
}

// defaultLogger is installed by Builder.Build when WithLogger was not
// called: a text-handler writing to stderr at Warning level, quiet on
// the happy path but visible for diagnostics and fatal conditions.
func defaultLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	return NewLogger(handler)
}

func (p *Logger) misconfiguration(group Group, workers int) {
	if p == nil {
		return
	}
	p.l.Notice().
		Str("group", group.String()).
		Int("workers", workers).
		Err(ErrEmptyGroupSubmission).
		Log("submitting to a group with no configured workers; the task may never run")
}

func (p *Logger) error(msg, subject string, err error) {
	if p == nil {
		return
	}
	p.l.Err().
		Str("subject", subject).
		Err(err).
		Log(msg)
}

func (p *Logger) info(msg string) {
	if p == nil {
		return
	}
	p.l.Info().Log(msg)
}
