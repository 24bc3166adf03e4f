package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/scribeworks/ordergate/pkg/counter"
	"github.com/scribeworks/ordergate/pkg/logger"
)

// Outcome is the final state of one dispatched notification.
type Outcome string

const (
	// OutcomeDelivered means every resolved channel accepted the notification.
	OutcomeDelivered Outcome = "delivered"
	// OutcomeDeliveredPartial means at least one channel failed and one succeeded.
	OutcomeDeliveredPartial Outcome = "delivered_partial"
	// OutcomeFailed means every resolved channel failed.
	OutcomeFailed Outcome = "failed"
	// OutcomeSuppressed means the same payload was already sent within the TTL.
	OutcomeSuppressed Outcome = "suppressed"
	// OutcomeSkipped means no channel was resolved.
	OutcomeSkipped Outcome = "skipped"
)

// Report describes what Dispatch did.
type Report struct {
	NotificationID string
	Outcome        Outcome
	Channels       []string
	Delivered      []string
	Failed         map[string]error

	// DedupeDegraded is set when the dedupe store was unavailable and the
	// notification was sent without a claim.
	DedupeDegraded bool
}

// Dispatcher runs a notification through the gate and fans it out to the
// registered channel deliverers.
type Dispatcher struct {
	gate       *Gate
	deliverers map[string]Deliverer
	ttl        time.Duration
	logger     *slog.Logger
	metrics    *Metrics
	now        func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDeliverer registers the deliverer of a channel.
func WithDeliverer(channel string, d Deliverer) DispatcherOption {
	return func(ds *Dispatcher) {
		if channel != "" && d != nil {
			ds.deliverers[channel] = d
		}
	}
}

// WithDedupeTTL sets how long identical payloads are suppressed.
func WithDedupeTTL(ttl time.Duration) DispatcherOption {
	return func(ds *Dispatcher) {
		if ttl > 0 {
			ds.ttl = ttl
		}
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(ds *Dispatcher) {
		if l != nil {
			ds.logger = l
		}
	}
}

// WithDispatcherMetrics enables prometheus counters.
func WithDispatcherMetrics(m *Metrics) DispatcherOption {
	return func(ds *Dispatcher) {
		ds.metrics = m
	}
}

// WithDispatcherClock overrides the time source for CreatedAt.
func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(ds *Dispatcher) {
		if now != nil {
			ds.now = now
		}
	}
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(gate *Gate, opts ...DispatcherOption) *Dispatcher {
	if gate == nil {
		panic("notifications: gate is required")
	}
	ds := &Dispatcher{
		gate:       gate,
		deliverers: make(map[string]Deliverer),
		ttl:        DefaultDedupeTTL,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(ds)
	}
	return ds
}

// Dispatch resolves channels, claims the dedupe slot and delivers to every
// channel once. Channel failures are reported, not retried, and do not make
// Dispatch return an error. An unavailable dedupe store is logged and the
// notification is sent anyway.
func (ds *Dispatcher) Dispatch(ctx context.Context, notif Notification, prefs Preferences) (*Report, error) {
	if err := notif.validate(); err != nil {
		return nil, err
	}
	if notif.ID == "" {
		notif.ID = uuid.NewString()
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = ds.now()
	}
	if notif.Type == "" {
		notif.Type = TypeInfo
	}

	report := &Report{
		NotificationID: notif.ID,
		Channels:       ds.gate.ResolveChannels(ctx, notif.EventKey, prefs),
		Failed:         map[string]error{},
	}
	if len(report.Channels) == 0 {
		return ds.finish(ctx, notif, report, OutcomeSkipped), nil
	}

	ok, err := ds.gate.AllowOnce(ctx, notif.UserID, notif.EventKey, notif.WebsiteID, notif.Payload(), ds.ttl)
	switch {
	case errors.Is(err, counter.ErrStoreUnavailable):
		report.DedupeDegraded = true
		ds.logger.WarnContext(ctx, "dedupe store unavailable, sending without claim",
			logger.EventKey(notif.EventKey),
			logger.UserID(notif.UserID),
			logger.WebsiteID(notif.WebsiteID),
			logger.Error(err),
		)
	case err != nil:
		return nil, fmt.Errorf("dedupe notification: %w", err)
	case !ok:
		return ds.finish(ctx, notif, report, OutcomeSuppressed), nil
	}

	for _, ch := range report.Channels {
		err := ds.deliver(ctx, ch, notif)
		ds.metrics.delivery(ch, err)
		if err != nil {
			report.Failed[ch] = err
			ds.logger.ErrorContext(ctx, "notification channel failed",
				logger.Channel(ch),
				logger.EventKey(notif.EventKey),
				slog.String("notification_id", notif.ID),
				logger.Error(err),
			)
			continue
		}
		report.Delivered = append(report.Delivered, ch)
	}

	switch {
	case len(report.Failed) == 0:
		return ds.finish(ctx, notif, report, OutcomeDelivered), nil
	case len(report.Delivered) == 0:
		return ds.finish(ctx, notif, report, OutcomeFailed), nil
	default:
		return ds.finish(ctx, notif, report, OutcomeDeliveredPartial), nil
	}
}

func (ds *Dispatcher) deliver(ctx context.Context, channel string, notif Notification) error {
	d, ok := ds.deliverers[channel]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoDeliverer, channel)
	}
	return d.Deliver(ctx, notif)
}

func (ds *Dispatcher) finish(ctx context.Context, notif Notification, report *Report, outcome Outcome) *Report {
	report.Outcome = outcome
	ds.metrics.dispatched(outcome)
	ds.logger.DebugContext(ctx, "notification dispatched",
		slog.String("notification_id", notif.ID),
		logger.EventKey(notif.EventKey),
		slog.String("outcome", string(outcome)),
		slog.Int("channels", len(report.Channels)),
	)
	return report
}
