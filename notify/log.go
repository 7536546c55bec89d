package notify

import (
	"context"
	"log/slog"

	"github.com/mark3labs/fetcch-go"
)

// Log writes notifications to a structured logger. It is the surface used by
// the command line buyer, where there is no UI to render toasts.
type Log struct {
	Logger *slog.Logger
}

var _ fetcch.Notifier = (*Log)(nil)

// NewLog creates a Log notifier. A nil logger uses slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{Logger: logger}
}

func (l *Log) Loading(message string) fetcch.Handle {
	h := fetcch.NewHandle()
	l.Logger.Info(message, "notification", string(h), "kind", fetcch.NotificationLoading)
	return h
}

func (l *Log) Success(message string) fetcch.Handle {
	h := fetcch.NewHandle()
	l.Logger.Info(message, "notification", string(h), "kind", fetcch.NotificationSuccess)
	return h
}

func (l *Log) Error(message string) fetcch.Handle {
	h := fetcch.NewHandle()
	l.Logger.Error(message, "notification", string(h), "kind", fetcch.NotificationError)
	return h
}

func (l *Log) Update(h fetcch.Handle, kind fetcch.NotificationKind, message string) {
	level := slog.LevelInfo
	if kind == fetcch.NotificationError {
		level = slog.LevelError
	}
	l.Logger.Log(context.Background(), level, message, "notification", string(h), "kind", kind, "updated", true)
}
