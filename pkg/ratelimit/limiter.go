package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/scribeworks/ordergate/pkg/counter"
	"github.com/scribeworks/ordergate/pkg/logger"
)

// anonymousIdentity buckets callers that carry no user id, email or IP.
const anonymousIdentity = "anonymous"

// Limiter applies registry rules against a shared counter store using fixed
// windows. A burst straddling a window boundary can admit up to twice the
// nominal rate.
type Limiter struct {
	store    counter.Store
	registry *Registry
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time
	timeout  time.Duration
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLogger sets the logger used for degraded and throttled decisions.
func WithLogger(l *slog.Logger) Option {
	return func(lim *Limiter) {
		if l != nil {
			lim.logger = l
		}
	}
}

// WithMetrics enables decision counters.
func WithMetrics(m *Metrics) Option {
	return func(lim *Limiter) {
		lim.metrics = m
	}
}

// WithClock overrides the time source used to compute windows.
func WithClock(now func() time.Time) Option {
	return func(lim *Limiter) {
		if now != nil {
			lim.now = now
		}
	}
}

// WithStoreTimeout bounds each store call. Defaults to counter.DefaultTimeout.
func WithStoreTimeout(d time.Duration) Option {
	return func(lim *Limiter) {
		lim.timeout = d
	}
}

// NewLimiter creates a limiter. Store calls are bounded by
// counter.DefaultTimeout unless WithStoreTimeout is given.
func NewLimiter(store counter.Store, registry *Registry, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if registry == nil {
		return nil, ErrRegistryMissing
	}

	l := &Limiter{
		registry: registry,
		logger:   slog.Default(),
		now:      time.Now,
		timeout:  counter.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.store = counter.WithTimeout(store, l.timeout)

	return l, nil
}

// Registry returns the rule registry the limiter reads from.
func (l *Limiter) Registry() *Registry {
	return l.registry
}

// Key builds the storage key for one fixed window of a bucket.
func Key(scope, identity string, windowStart time.Time) string {
	var b strings.Builder
	b.Grow(len(scope) + len(identity) + 16)
	b.WriteString("rl:")
	b.WriteString(scope)
	b.WriteByte(':')
	b.WriteString(identity)
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(windowStart.Unix(), 10))
	return b.String()
}

// CheckAndIncrement consumes one slot of bucketKey under rule. It returns an
// allowed result while the window count is below the rule's max count and a
// throttled result with WaitSeconds until the window resets otherwise.
// Store failures are returned as errors wrapping ErrStoreUnavailable.
func (l *Limiter) CheckAndIncrement(ctx context.Context, bucketKey string, rule Rule) (*Result, error) {
	if bucketKey == "" {
		return nil, ErrKeyRequired
	}
	rule, err := rule.normalize()
	if err != nil {
		return nil, err
	}

	now := l.now()
	start := rule.WindowStart(now)
	resetAt := start.Add(rule.Window)

	d, err := l.store.IncrementIfUnder(ctx, Key(rule.Scope, bucketKey, start), rule.MaxCount, rule.Window)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Scope:     rule.Scope,
		Allowed:   d.Allowed,
		Limit:     rule.MaxCount,
		Remaining: max(rule.MaxCount-int(d.Count), 0),
		ResetAt:   resetAt,
	}
	if !d.Allowed {
		res.WaitSeconds = waitSeconds(resetAt.Sub(now))
	}
	return res, nil
}

// Admit resolves the rule for target and checks the subject's bucket. Targets
// starting with '/' are request paths, anything else is a scope name. Without
// a matching rule the attempt is allowed and the result is unlimited.
//
// When the store is unavailable Admit returns an error wrapping
// ErrStoreUnavailable together with a degraded result whose Allowed field
// follows the rule's fail policy.
func (l *Limiter) Admit(ctx context.Context, target string, subject Subject) (*Result, error) {
	var (
		rule Rule
		ok   bool
	)
	if strings.HasPrefix(target, "/") {
		rule, ok = l.registry.RuleFor(target)
	} else {
		rule, ok = l.registry.RuleForScope(target)
	}
	if !ok {
		return &Result{Allowed: true}, nil
	}
	return l.AdmitRule(ctx, rule, subject)
}

// AdmitRule checks the subject's bucket under an already resolved rule.
func (l *Limiter) AdmitRule(ctx context.Context, rule Rule, subject Subject) (*Result, error) {
	return l.AdmitIdentity(ctx, rule, subject.Identity(rule.Bucket))
}

// AdmitIdentity checks an explicit bucket identity, e.g. a website id for
// outbound webhooks, applying the rule's fail policy like AdmitRule.
func (l *Limiter) AdmitIdentity(ctx context.Context, rule Rule, identity string) (*Result, error) {
	if identity == "" {
		identity = anonymousIdentity
	}

	res, err := l.CheckAndIncrement(ctx, identity, rule)
	if err != nil {
		if !errors.Is(err, ErrStoreUnavailable) {
			return nil, err
		}
		res = &Result{
			Scope:    rule.Scope,
			Allowed:  rule.FailPolicy == FailOpen,
			Limit:    rule.MaxCount,
			Degraded: true,
		}
		if !res.Allowed {
			res.WaitSeconds = 1
		}
		l.logger.WarnContext(ctx, "rate limit store unavailable",
			logger.Scope(rule.Scope),
			slog.String("fail_policy", string(rule.FailPolicy)),
			slog.Bool("allowed", res.Allowed),
			logger.Error(err),
		)
		l.metrics.observe(res, rule.FailPolicy)
		return res, err
	}

	if !res.Allowed {
		l.logger.DebugContext(ctx, "rate limit exceeded",
			logger.Scope(rule.Scope),
			slog.Int("wait_seconds", res.WaitSeconds),
		)
	}
	l.metrics.observe(res, rule.FailPolicy)
	return res, nil
}

func waitSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
