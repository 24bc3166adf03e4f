package notifications

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/scribeworks/ordergate/pkg/email"
)

// RecipientResolver returns the email address of a user on a website.
type RecipientResolver interface {
	EmailFor(ctx context.Context, websiteID, userID string) (string, error)
}

// RecipientFunc adapts a function to RecipientResolver.
type RecipientFunc func(ctx context.Context, websiteID, userID string) (string, error)

func (f RecipientFunc) EmailFor(ctx context.Context, websiteID, userID string) (string, error) {
	return f(ctx, websiteID, userID)
}

// EmailDeliverer sends notifications through an email.EmailSender.
type EmailDeliverer struct {
	sender     email.EmailSender
	recipients RecipientResolver
	body       func(Notification) templ.Component
}

// EmailDelivererOption configures an EmailDeliverer.
type EmailDelivererOption func(*EmailDeliverer)

// WithEmailBody replaces the default HTML body component.
func WithEmailBody(body func(Notification) templ.Component) EmailDelivererOption {
	return func(d *EmailDeliverer) {
		if body != nil {
			d.body = body
		}
	}
}

// NewEmailDeliverer creates an email deliverer.
func NewEmailDeliverer(sender email.EmailSender, recipients RecipientResolver, opts ...EmailDelivererOption) *EmailDeliverer {
	d := &EmailDeliverer{
		sender:     sender,
		recipients: recipients,
		body:       EmailBody,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *EmailDeliverer) Deliver(ctx context.Context, notif Notification) error {
	to, err := d.recipients.EmailFor(ctx, notif.WebsiteID, notif.UserID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}
	if to == "" {
		return ErrNoRecipient
	}

	html, err := email.Render(ctx, d.body(notif))
	if err != nil {
		return fmt.Errorf("render email body: %w", err)
	}

	return d.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  notif.Title,
		BodyHTML: html,
		Tag:      notif.EventKey,
		Metadata: map[string]string{
			"notification_id": notif.ID,
			"website_id":      notif.WebsiteID,
		},
	})
}

// EmailBody is the default HTML body: title, message and an optional link.
func EmailBody(notif Notification) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<h1>"+templ.EscapeString(notif.Title)+"</h1><p>"+templ.EscapeString(notif.Message)+"</p>"); err != nil {
			return err
		}
		if notif.Link == "" {
			return nil
		}
		href := templ.EscapeString(string(templ.URL(notif.Link)))
		_, err := io.WriteString(w, `<p><a href="`+href+`">View details</a></p>`)
		return err
	})
}
