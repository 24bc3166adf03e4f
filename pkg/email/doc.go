// Package email sends transactional email.
//
// PostmarkSender talks to Postmark. FileSender writes messages to a directory
// for local inspection and LogSender only logs them. New picks one from
// Config:
//
//	sender, err := email.New(cfg, log)
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "writer@example.com",
//	    Subject:  "Order approved",
//	    BodyHTML: body,
//	    Tag:      "order.status_changed",
//	})
//
// All senders validate params first and return ErrInvalidParams for a missing
// or malformed recipient, subject or body.
package email
