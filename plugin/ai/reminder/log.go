package reminder

import (
	"context"
	"log/slog"
)

// LogSender writes reminders to the log instead of delivering them. It stands
// in for the email channel when SMTP is not configured, so scheduled
// reminders are still visible in dev and demo modes.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender() *LogSender {
	return &LogSender{logger: slog.Default()}
}

func (s *LogSender) Name() string {
	return "log"
}

func (s *LogSender) Send(_ context.Context, recipient string, content string) error {
	s.logger.Info("reminder due", "recipient", recipient, "content", content)
	return nil
}
