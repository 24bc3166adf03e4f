package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileSender writes each email to dir as an .html body plus a .json envelope.
// Used in development to inspect notification mail without a provider.
type FileSender struct {
	dir string
	now func() time.Time
}

// NewFileSender creates a sender writing into dir. The directory is created on
// first send.
func NewFileSender(dir string) *FileSender {
	return &FileSender{dir: dir, now: time.Now}
}

type fileEnvelope struct {
	ID       string            `json:"id"`
	SentAt   string            `json:"sent_at"`
	SendTo   string            `json:"send_to"`
	Subject  string            `json:"subject"`
	Tag      string            `json:"tag,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (s *FileSender) SendEmail(_ context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}

	now := s.now()
	id := uuid.NewString()
	label := params.Tag
	if label == "" {
		label = params.Subject
	}
	base := filepath.Join(s.dir, fmt.Sprintf("%s_%s_%s", now.UTC().Format("20060102T150405"), slug(label), id[:8]))

	if err := os.WriteFile(base+".html", []byte(params.BodyHTML), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}

	meta, err := json.MarshalIndent(fileEnvelope{
		ID:       id,
		SentAt:   now.Format(time.RFC3339),
		SendTo:   params.SendTo,
		Subject:  params.Subject,
		Tag:      params.Tag,
		Metadata: params.Metadata,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}
	if err := os.WriteFile(base+".json", meta, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9\-_.]`)

func slug(s string) string {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
	s = unsafeChars.ReplaceAllString(s, "")
	if len(s) > 60 {
		s = s[:60]
	}
	if s == "" {
		return "email"
	}
	return s
}
