package email

import (
	"context"
	"log/slog"
)

// LogSender logs emails instead of sending them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that logs at info level.
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSender{logger: log}
}

func (s *LogSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "email not sent, no transport configured",
		slog.String("to", params.SendTo),
		slog.String("subject", params.Subject),
		slog.String("tag", params.Tag),
	)
	return nil
}
