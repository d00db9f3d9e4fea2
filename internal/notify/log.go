package notify

import (
	"context"
	"log/slog"

	"github.com/darshan-rambhia/hostwatch/internal/model"
)

// LogProvider writes notifications to the structured log.
type LogProvider struct {
	logger *slog.Logger
}

// NewLog creates a provider that logs through logger, or the default
// logger when nil.
func NewLog(logger *slog.Logger) *LogProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProvider{logger: logger}
}

func (l *LogProvider) Name() string { return "log" }

func (l *LogProvider) Send(ctx context.Context, n model.Notification) error {
	level := slog.LevelInfo
	switch n.Severity {
	case model.SeverityCritical:
		level = slog.LevelError
	case model.SeverityWarning:
		level = slog.LevelWarn
	}
	attrs := []any{
		"severity", n.Severity,
		"subject", n.Subject,
		"body", n.Body,
		"recipients", n.Recipients,
	}
	if n.Alert != nil {
		attrs = append(attrs, "alert", n.Alert.ID)
	}
	l.logger.Log(ctx, level, "notification", attrs...)
	return nil
}
