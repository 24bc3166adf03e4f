package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scribeworks/ordergate/pkg/logger"
	"github.com/scribeworks/ordergate/pkg/ratelimit"
	"github.com/scribeworks/ordergate/pkg/webhook"
)

// WebhookScope is the rate limit scope applied per website to outbound webhooks.
const WebhookScope = "webhook"

// EndpointResolver returns the webhook endpoint of a website. ok is false when
// the website has none configured.
type EndpointResolver interface {
	EndpointFor(ctx context.Context, websiteID string) (ep webhook.Endpoint, ok bool, err error)
}

// EndpointFunc adapts a function to EndpointResolver.
type EndpointFunc func(ctx context.Context, websiteID string) (webhook.Endpoint, bool, error)

func (f EndpointFunc) EndpointFor(ctx context.Context, websiteID string) (webhook.Endpoint, bool, error) {
	return f(ctx, websiteID)
}

// WebhookSender posts an event to an endpoint. *webhook.Sender implements it.
type WebhookSender interface {
	Send(ctx context.Context, ep webhook.Endpoint, event webhook.Event) (webhook.DeliveryResult, error)
}

// WebhookDeliverer posts notifications to the website's webhook endpoint.
type WebhookDeliverer struct {
	sender    WebhookSender
	endpoints EndpointResolver
	limiter   *ratelimit.Limiter
	scope     string
	logger    *slog.Logger
}

// WebhookDelivererOption configures a WebhookDeliverer.
type WebhookDelivererOption func(*WebhookDeliverer)

// WithWebhookLimiter throttles deliveries per website under the limiter's
// rule for scope. Without a rule for scope deliveries are not limited.
func WithWebhookLimiter(l *ratelimit.Limiter, scope string) WebhookDelivererOption {
	return func(d *WebhookDeliverer) {
		d.limiter = l
		if scope != "" {
			d.scope = scope
		}
	}
}

// WithWebhookLogger sets the logger.
func WithWebhookLogger(l *slog.Logger) WebhookDelivererOption {
	return func(d *WebhookDeliverer) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewWebhookDeliverer creates a webhook deliverer.
func NewWebhookDeliverer(sender WebhookSender, endpoints EndpointResolver, opts ...WebhookDelivererOption) *WebhookDeliverer {
	d := &WebhookDeliverer{
		sender:    sender,
		endpoints: endpoints,
		scope:     WebhookScope,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *WebhookDeliverer) Deliver(ctx context.Context, notif Notification) error {
	ep, ok, err := d.endpoints.EndpointFor(ctx, notif.WebsiteID)
	if err != nil {
		return fmt.Errorf("resolve webhook endpoint: %w", err)
	}
	if !ok {
		d.logger.DebugContext(ctx, "website has no webhook endpoint",
			logger.WebsiteID(notif.WebsiteID),
			logger.EventKey(notif.EventKey),
		)
		return nil
	}

	if err := d.admit(ctx, notif.WebsiteID); err != nil {
		return err
	}

	_, err = d.sender.Send(ctx, ep, webhook.Event{
		ID:         notif.ID,
		Type:       notif.EventKey,
		WebsiteID:  notif.WebsiteID,
		OccurredAt: notif.CreatedAt,
		Data:       notif,
	})
	return err
}

func (d *WebhookDeliverer) admit(ctx context.Context, websiteID string) error {
	if d.limiter == nil {
		return nil
	}
	rule, ok := d.limiter.Registry().RuleForScope(d.scope)
	if !ok {
		return nil
	}

	res, err := d.limiter.AdmitIdentity(ctx, rule, "w:"+websiteID)
	if res == nil {
		return err
	}
	if !res.Allowed {
		if err != nil {
			return err
		}
		return res.Err()
	}
	return nil
}
