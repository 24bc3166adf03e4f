package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scribeworks/ordergate/pkg/clientip"
	"github.com/scribeworks/ordergate/pkg/counter"
	"github.com/scribeworks/ordergate/pkg/email"
	"github.com/scribeworks/ordergate/pkg/feature"
	"github.com/scribeworks/ordergate/pkg/httpserver"
	"github.com/scribeworks/ordergate/pkg/logger"
	"github.com/scribeworks/ordergate/pkg/notifications"
	"github.com/scribeworks/ordergate/pkg/ratelimit"
	"github.com/scribeworks/ordergate/pkg/rbac"
	"github.com/scribeworks/ordergate/pkg/requestid"
	"github.com/scribeworks/ordergate/pkg/webhook"
	"github.com/scribeworks/ordergate/pkg/website"
	"github.com/scribeworks/ordergate/svc/inbox"
	"github.com/scribeworks/ordergate/svc/orders"
)

// deps are the backing stores the application runs on. main connects Redis
// and Postgres; tests pass in-memory implementations.
type deps struct {
	store    counter.Store
	repo     orders.Repository
	inbox    notifications.Storage
	mailer   email.EmailSender
	registry *prometheus.Registry
	checks   []httpserver.Check
	logger   *slog.Logger
	now      func() time.Time
}

// app holds the wired components behind the HTTP router.
type app struct {
	limiter    *ratelimit.Limiter
	dispatcher *notifications.Dispatcher
	orders     *orders.Service
	router     http.Handler
}

func newApp(ctx context.Context, cfg Config, policy Policy, d deps) (*app, error) {
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.registry == nil {
		d.registry = prometheus.NewRegistry()
		d.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	log := d.logger

	registry, err := policy.registry()
	if err != nil {
		return nil, fmt.Errorf("rate limit rules: %w", err)
	}
	limiter, err := ratelimit.NewLimiter(d.store, registry,
		ratelimit.WithLogger(log.With(logger.Component("ratelimit"))),
		ratelimit.WithMetrics(ratelimit.NewMetrics(d.registry)),
		ratelimit.WithClock(d.now),
	)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	transitions, err := policy.transitionMap()
	if err != nil {
		return nil, fmt.Errorf("order transitions: %w", err)
	}

	authz, err := rbac.NewAuthorizer(ctx, rbac.NewInMemRoleSource(policy.roles()))
	if err != nil {
		return nil, fmt.Errorf("roles: %w", err)
	}

	dispatcher, err := newDispatcher(policy, d, limiter)
	if err != nil {
		return nil, err
	}

	prefs := policy.preferences()
	svc, err := orders.NewService(d.repo, authz,
		orders.WithTransitions(transitions),
		orders.WithLimiter(limiter),
		orders.WithDispatcher(dispatcher),
		orders.WithPreferences(func(context.Context, string, string) (notifications.Preferences, error) {
			return prefs, nil
		}),
		orders.WithMetrics(orders.NewMetrics(d.registry)),
		orders.WithLogger(log.With(logger.Component("orders"))),
		orders.WithClock(d.now),
	)
	if err != nil {
		return nil, fmt.Errorf("order service: %w", err)
	}

	a := &app{limiter: limiter, dispatcher: dispatcher, orders: svc}
	a.router = a.routes(cfg, policy, d)
	return a, nil
}

func newDispatcher(policy Policy, d deps, limiter *ratelimit.Limiter) (*notifications.Dispatcher, error) {
	log := d.logger.With(logger.Component("notifications"))

	forced, err := policy.forcedChannels()
	if err != nil {
		return nil, fmt.Errorf("forced channels: %w", err)
	}
	flags, err := feature.NewMemoryProvider(feature.FlagsFromConfig(policy.FeatureFlags, website.IDFromContext)...)
	if err != nil {
		return nil, fmt.Errorf("feature flags: %w", err)
	}
	gate, err := notifications.NewGate(d.store, forced,
		notifications.WithFeatureFlags(flags),
		notifications.WithGateLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("notification gate: %w", err)
	}

	recipients := policy.Notifications.Recipients
	endpoints := policy.webhookEndpoints()
	sender := webhook.NewSender(
		webhook.WithTimeout(policy.Notifications.WebhookTimeout),
		webhook.WithCircuitBreaker(5, time.Minute),
		webhook.WithClock(d.now),
	)

	opts := []notifications.DispatcherOption{
		notifications.WithDeliverer(notifications.ChannelInApp, notifications.NewInAppDeliverer(d.inbox)),
		notifications.WithDeliverer(notifications.ChannelEmail, notifications.NewEmailDeliverer(d.mailer,
			notifications.RecipientFunc(func(_ context.Context, _, userID string) (string, error) {
				return recipients[userID], nil
			}),
		)),
		notifications.WithDeliverer(notifications.ChannelWebhook, notifications.NewWebhookDeliverer(sender,
			notifications.EndpointFunc(func(_ context.Context, websiteID string) (webhook.Endpoint, bool, error) {
				t, ok := endpoints[websiteID]
				return webhook.Endpoint{URL: t.url, Secret: t.secret}, ok, nil
			}),
			notifications.WithWebhookLimiter(limiter, notifications.WebhookScope),
			notifications.WithWebhookLogger(log),
		)),
		notifications.WithDispatcherLogger(log),
		notifications.WithDispatcherMetrics(notifications.NewMetrics(d.registry)),
		notifications.WithDispatcherClock(d.now),
	}
	if policy.Notifications.DedupeTTL > 0 {
		opts = append(opts, notifications.WithDedupeTTL(policy.Notifications.DedupeTTL))
	}
	return notifications.NewDispatcher(gate, opts...), nil
}

func (a *app) routes(cfg Config, policy Policy, d deps) http.Handler {
	log := d.logger
	ips := clientip.NewResolver(cfg.ClientIPHeaders...)
	sites := website.NewMemoryProvider(policy.sites()...)

	r := chi.NewRouter()
	r.Use(requestid.Middleware, ips.Middleware, middleware.Recoverer)

	r.Get("/health/live", httpserver.Liveness())
	r.Get("/health/ready", httpserver.Readiness(log, cfg.HTTP.HealthTimeout, d.checks...))
	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(
			website.Middleware(
				website.FirstOf(website.HeaderResolver(""), website.HostResolver()),
				sites,
				website.WithLogger(log),
			),
			website.RequireWebsite,
			ratelimit.Middleware(a.limiter,
				ratelimit.WithIPResolver(ips),
				ratelimit.WithUserIDFunc(func(r *http.Request) string {
					return strings.TrimSpace(r.Header.Get(orders.HeaderUserID))
				}),
				ratelimit.WithWebsiteIDFunc(func(r *http.Request) string {
					return website.IDFromContext(r.Context())
				}),
			),
		)
		r.Mount("/orders", orders.NewHandler(a.orders, orders.WithHandlerLogger(log)).Routes())
		r.Mount("/notifications", inbox.NewHandler(notifications.NewInbox(d.inbox), inbox.WithLogger(log)).Routes())
	})

	return r
}
