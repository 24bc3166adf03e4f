package email

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// EmailSender sends a single transactional email.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams describes one outbound email.
type SendEmailParams struct {
	SendTo   string            `json:"send_to"`
	Subject  string            `json:"subject"`
	BodyHTML string            `json:"body_html"`
	Tag      string            `json:"tag,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validate checks that the recipient, subject and body are usable.
func (p SendEmailParams) Validate() error {
	switch {
	case strings.TrimSpace(p.SendTo) == "":
		return fmt.Errorf("%w: SendTo is required", ErrInvalidParams)
	case !emailRegex.MatchString(strings.TrimSpace(p.SendTo)):
		return fmt.Errorf("%w: SendTo must be a valid email address", ErrInvalidParams)
	case strings.TrimSpace(p.Subject) == "":
		return fmt.Errorf("%w: Subject is required", ErrInvalidParams)
	case strings.TrimSpace(p.BodyHTML) == "":
		return fmt.Errorf("%w: BodyHTML is required", ErrInvalidParams)
	}
	return nil
}

// New picks a sender for cfg: Postmark when tokens are set, a FileSender when
// DevDir is set, otherwise a LogSender.
func New(cfg Config, log *slog.Logger) (EmailSender, error) {
	switch {
	case cfg.UsePostmark():
		return NewPostmarkSender(cfg)
	case cfg.DevDir != "":
		return NewFileSender(cfg.DevDir), nil
	default:
		return NewLogSender(log), nil
	}
}
