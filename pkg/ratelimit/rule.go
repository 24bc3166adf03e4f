package ratelimit

import (
	"fmt"
	"strings"
	"time"
)

// Bucket selects the identity a rule counts attempts against.
type Bucket string

const (
	ByUser  Bucket = "by_user"
	ByIP    Bucket = "by_ip"
	ByEmail Bucket = "by_email"
)

func (b Bucket) valid() bool {
	switch b {
	case ByUser, ByIP, ByEmail:
		return true
	}
	return false
}

// FailPolicy decides the outcome when the counter store cannot be reached.
type FailPolicy string

const (
	// FailOpen admits requests while the store is down.
	FailOpen FailPolicy = "open"
	// FailClosed rejects requests while the store is down.
	FailClosed FailPolicy = "closed"
)

// sensitiveScopes default to FailClosed when a rule leaves the policy empty.
var sensitiveScopes = map[string]struct{}{
	"login":          {},
	"password_reset": {},
	"magic_link":     {},
	"signup":         {},
}

// Rule is a quota for one scope. Rules are immutable once registered.
type Rule struct {
	Scope      string        `yaml:"scope"`
	Path       string        `yaml:"path"`
	Window     time.Duration `yaml:"window"`
	MaxCount   int           `yaml:"max_count"`
	Bucket     Bucket        `yaml:"bucket"`
	FailPolicy FailPolicy    `yaml:"fail_policy"`
}

// normalize fills defaults and validates the rule.
func (r Rule) normalize() (Rule, error) {
	r.Scope = strings.TrimSpace(r.Scope)
	r.Path = strings.TrimSpace(r.Path)

	if r.Scope == "" {
		return r, fmt.Errorf("%w: scope is required", ErrInvalidRule)
	}
	if r.Window < time.Second {
		return r, fmt.Errorf("%w: scope %q: window must be at least 1s", ErrInvalidRule, r.Scope)
	}
	if r.Window%time.Second != 0 {
		return r, fmt.Errorf("%w: scope %q: window must be a whole number of seconds", ErrInvalidRule, r.Scope)
	}
	if r.MaxCount <= 0 {
		return r, fmt.Errorf("%w: scope %q: max_count must be positive", ErrInvalidRule, r.Scope)
	}
	if r.Bucket == "" {
		r.Bucket = ByIP
	}
	if !r.Bucket.valid() {
		return r, fmt.Errorf("%w: scope %q: unknown bucket %q", ErrInvalidRule, r.Scope, r.Bucket)
	}
	switch r.FailPolicy {
	case FailOpen, FailClosed:
	case "":
		r.FailPolicy = DefaultFailPolicy(r.Scope)
	default:
		return r, fmt.Errorf("%w: scope %q: unknown fail_policy %q", ErrInvalidRule, r.Scope, r.FailPolicy)
	}
	if r.Path != "" && !strings.HasPrefix(r.Path, "/") {
		return r, fmt.Errorf("%w: scope %q: path must start with '/'", ErrInvalidRule, r.Scope)
	}

	return r, nil
}

// DefaultFailPolicy returns FailClosed for security sensitive scopes and
// FailOpen for everything else.
func DefaultFailPolicy(scope string) FailPolicy {
	if _, ok := sensitiveScopes[scope]; ok {
		return FailClosed
	}
	return FailOpen
}

// WindowStart truncates t to the start of the rule's fixed window.
func (r Rule) WindowStart(t time.Time) time.Time {
	return t.Truncate(r.Window)
}
