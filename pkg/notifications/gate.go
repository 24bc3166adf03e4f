package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/scribeworks/ordergate/pkg/counter"
	"github.com/scribeworks/ordergate/pkg/feature"
	"github.com/scribeworks/ordergate/pkg/logger"
)

// ChannelFlagPrefix prefixes the feature flag that switches a channel off
// system-wide, e.g. "notifications.channel.email".
const ChannelFlagPrefix = "notifications.channel."

// DefaultDedupeTTL is used by the Dispatcher when no TTL is configured.
const DefaultDedupeTTL = 10 * time.Minute

// Gate decides which channels a notification goes to and whether it was
// already sent recently.
type Gate struct {
	forced *ForcedChannels
	flags  feature.Provider
	store  counter.Store
	logger *slog.Logger

	timeout time.Duration
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithFeatureFlags enables system-wide channel switches.
func WithFeatureFlags(p feature.Provider) GateOption {
	return func(g *Gate) {
		g.flags = p
	}
}

// WithGateLogger sets the logger.
func WithGateLogger(l *slog.Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithClaimTimeout bounds each dedupe claim. Default counter.DefaultTimeout.
func WithClaimTimeout(d time.Duration) GateOption {
	return func(g *Gate) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// NewGate creates a gate claiming dedupe slots in store.
func NewGate(store counter.Store, forced *ForcedChannels, opts ...GateOption) (*Gate, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if forced == nil {
		forced = &ForcedChannels{}
	}
	g := &Gate{
		forced:  forced,
		logger:  slog.Default(),
		timeout: counter.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.store = counter.WithTimeout(store, g.timeout)
	return g, nil
}

// MustNewGate is like NewGate but panics on error.
func MustNewGate(store counter.Store, forced *ForcedChannels, opts ...GateOption) *Gate {
	g, err := NewGate(store, forced, opts...)
	if err != nil {
		panic(err)
	}
	return g
}

// ForcedChannelsFor returns the channels eventKey always uses.
func (g *Gate) ForcedChannelsFor(eventKey string) []string {
	return g.forced.ForcedChannelsFor(eventKey)
}

// ResolveChannels returns the forced channels of eventKey plus the channels
// enabled in prefs, minus channels switched off by feature flag. The result
// is sorted and free of duplicates.
func (g *Gate) ResolveChannels(ctx context.Context, eventKey string, prefs Preferences) []string {
	channels := append(g.ForcedChannelsFor(eventKey), prefs.Enabled()...)
	slices.Sort(channels)
	channels = slices.Compact(channels)

	out := channels[:0]
	for _, ch := range channels {
		if g.channelEnabled(ctx, ch) {
			out = append(out, ch)
		}
	}
	return out
}

// channelEnabled treats a missing flag as enabled. Lookup failures keep the
// channel on and are logged.
func (g *Gate) channelEnabled(ctx context.Context, channel string) bool {
	if g.flags == nil {
		return true
	}
	on, err := g.flags.IsEnabled(ctx, ChannelFlagPrefix+channel)
	if err != nil {
		if !errors.Is(err, feature.ErrFlagNotFound) {
			g.logger.WarnContext(ctx, "channel flag lookup failed",
				logger.Channel(channel),
				logger.Error(err),
			)
		}
		return true
	}
	return on
}

// AllowOnce claims the dedupe slot for (website, user, event, signature of
// payload) for ttl. It returns true for the first claim only. A returned
// error wraps counter.ErrStoreUnavailable when the store could not answer.
func (g *Gate) AllowOnce(ctx context.Context, userID, eventKey, websiteID string, payload Payload, ttl time.Duration) (bool, error) {
	switch {
	case userID == "":
		return false, ErrUserIDRequired
	case eventKey == "":
		return false, ErrEventKeyRequired
	case ttl <= 0:
		return false, ErrInvalidTTL
	}

	key := DedupeKey(websiteID, userID, eventKey, Signature(payload))
	ok, err := g.store.ClaimIfAbsent(ctx, key, ttl)
	if err != nil {
		return false, fmt.Errorf("claim dedupe slot: %w", err)
	}
	return ok, nil
}
