package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/scribeworks/ordergate/pkg/config"
	"github.com/scribeworks/ordergate/pkg/email"
	"github.com/scribeworks/ordergate/pkg/feature"
	"github.com/scribeworks/ordergate/pkg/httpserver"
	"github.com/scribeworks/ordergate/pkg/mongo"
	"github.com/scribeworks/ordergate/pkg/notifications"
	"github.com/scribeworks/ordergate/pkg/pg"
	"github.com/scribeworks/ordergate/pkg/ratelimit"
	"github.com/scribeworks/ordergate/pkg/rbac"
	"github.com/scribeworks/ordergate/pkg/redis"
	"github.com/scribeworks/ordergate/pkg/statemachine"
	"github.com/scribeworks/ordergate/pkg/website"
	"github.com/scribeworks/ordergate/svc/orders"
)

// Config is the process configuration read from the environment.
type Config struct {
	Env        string `env:"APP_ENV" envDefault:"development"`
	Service    string `env:"APP_SERVICE" envDefault:"ordergate"`
	PolicyPath string `env:"POLICY_PATH" envDefault:"configs/policy.yaml"`

	// ClientIPHeaders are trusted proxy headers, checked in order.
	ClientIPHeaders []string `env:"CLIENT_IP_HEADERS" envSeparator:"," envDefault:"X-Forwarded-For,X-Real-IP"`

	HTTP  httpserver.Config
	Redis redis.Config
	PG    pg.Config
	Mongo mongo.Config
	Email email.Config
}

// Policy is the YAML document describing websites, quotas, the order workflow
// and notification rules.
type Policy struct {
	Websites      []SitePolicy                  `yaml:"websites"`
	RateLimits    []ratelimit.Rule              `yaml:"rate_limits"`
	Transitions   map[string][]string           `yaml:"transitions"`
	Roles         map[string]rbac.Role          `yaml:"roles"`
	FeatureFlags  map[string]feature.FlagConfig `yaml:"feature_flags"`
	Notifications NotificationPolicy            `yaml:"notifications"`
}

// SitePolicy describes one website. The webhook secret is read from the
// environment variable named by WebhookSecretEnv.
type SitePolicy struct {
	ID               string `yaml:"id"`
	Domain           string `yaml:"domain"`
	Name             string `yaml:"name"`
	Active           bool   `yaml:"active"`
	WebhookURL       string `yaml:"webhook_url"`
	WebhookSecretEnv string `yaml:"webhook_secret_env"`
}

type NotificationPolicy struct {
	DedupeTTL      time.Duration       `yaml:"dedupe_ttl"`
	Forced         map[string][]string `yaml:"forced_channels"`
	Defaults       map[string]bool     `yaml:"default_preferences"`
	Recipients     map[string]string   `yaml:"recipients"`
	WebhookTimeout time.Duration       `yaml:"webhook_timeout"`
}

var errInvalidPolicy = errors.New("invalid policy")

func loadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadPolicy(path string) (Policy, error) {
	var p Policy
	if err := config.LoadYAMLFile(path, &p); err != nil {
		return Policy{}, err
	}
	if len(p.Websites) == 0 {
		return Policy{}, fmt.Errorf("%w: no websites defined", errInvalidPolicy)
	}
	if len(p.RateLimits) == 0 {
		return Policy{}, fmt.Errorf("%w: no rate limits defined", errInvalidPolicy)
	}
	if p.Notifications.Defaults[notifications.ChannelEmail] && len(p.Notifications.Recipients) == 0 {
		return Policy{}, fmt.Errorf("%w: email is on by default but no recipients are defined", errInvalidPolicy)
	}
	return p, nil
}

func (p Policy) sites() []website.Website {
	out := make([]website.Website, 0, len(p.Websites))
	for _, s := range p.Websites {
		out = append(out, website.Website{ID: s.ID, Domain: s.Domain, Name: s.Name, Active: s.Active})
	}
	return out
}

func (p Policy) registry() (*ratelimit.Registry, error) {
	return ratelimit.NewRegistry(p.RateLimits...)
}

// transitionMap falls back to the built-in order workflow.
func (p Policy) transitionMap() (*statemachine.TransitionMap, error) {
	if len(p.Transitions) == 0 {
		return orders.DefaultTransitions(), nil
	}
	def := make(map[statemachine.State][]statemachine.State, len(p.Transitions))
	for from, targets := range p.Transitions {
		states := make([]statemachine.State, len(targets))
		for i, t := range targets {
			states[i] = statemachine.State(t)
		}
		def[statemachine.State(from)] = states
	}
	return statemachine.NewTransitionMap(def)
}

// roles falls back to rbac.DefaultRoles.
func (p Policy) roles() map[string]rbac.Role {
	if len(p.Roles) == 0 {
		return rbac.DefaultRoles()
	}
	return p.Roles
}

func (p Policy) forcedChannels() (*notifications.ForcedChannels, error) {
	return notifications.NewForcedChannels(p.Notifications.Forced)
}

// preferences returns the channel opt-ins applied to every recipient.
func (p Policy) preferences() notifications.Preferences {
	if len(p.Notifications.Defaults) == 0 {
		return notifications.Preferences{notifications.ChannelInApp: true}
	}
	prefs := make(notifications.Preferences, len(p.Notifications.Defaults))
	for ch, on := range p.Notifications.Defaults {
		prefs[ch] = on
	}
	return prefs
}

// webhookEndpoints maps website ids to their registered endpoint.
func (p Policy) webhookEndpoints() map[string]webhookTarget {
	out := make(map[string]webhookTarget)
	for _, s := range p.Websites {
		if s.WebhookURL == "" {
			continue
		}
		secret := ""
		if s.WebhookSecretEnv != "" {
			secret = os.Getenv(s.WebhookSecretEnv)
		}
		out[s.ID] = webhookTarget{url: s.WebhookURL, secret: secret}
	}
	return out
}

type webhookTarget struct {
	url    string
	secret string
}
