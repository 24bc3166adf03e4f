package ratelimit

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/scribeworks/ordergate/pkg/clientip"
	"github.com/scribeworks/ordergate/pkg/response"
)

// SubjectFunc builds the rate limit subject for a request.
type SubjectFunc func(*http.Request) Subject

// MiddlewareOption configures middleware behavior.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	userID     func(*http.Request) string
	websiteID  func(*http.Request) string
	ip         *clientip.Resolver
	emailField string
	skipFunc   func(*http.Request) bool
	onLimit    func(w http.ResponseWriter, r *http.Request, res *Result)
	onDegraded func(w http.ResponseWriter, r *http.Request, res *Result)
}

// WithUserIDFunc sets how the authenticated user id is read from a request.
func WithUserIDFunc(fn func(*http.Request) string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.userID = fn
	}
}

// WithWebsiteIDFunc sets how the request's website is read. User and email
// buckets are kept apart per website when it returns a non-empty id.
func WithWebsiteIDFunc(fn func(*http.Request) string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.websiteID = fn
	}
}

// WithIPResolver sets the client IP resolver. Defaults to clientip.Default.
func WithIPResolver(res *clientip.Resolver) MiddlewareOption {
	return func(c *middlewareConfig) {
		if res != nil {
			c.ip = res
		}
	}
}

// WithEmailField sets the form field or header carrying the email for by_email
// rules. Defaults to "email" and the X-Login-Email header.
func WithEmailField(field string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.emailField = field
	}
}

// WithSkipFunc sets a function to determine if rate limiting should be skipped.
func WithSkipFunc(fn func(*http.Request) bool) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skipFunc = fn
	}
}

// WithOnLimitReached replaces the default 429 response.
func WithOnLimitReached(fn func(w http.ResponseWriter, r *http.Request, res *Result)) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.onLimit = fn
		}
	}
}

// Middleware enforces the limiter's registry on request paths. Paths without a
// rule pass through untouched. When the counter store is down the matched
// rule's fail policy decides: fail-open rules continue, fail-closed rules get
// a 503.
func Middleware(limiter *Limiter, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if limiter == nil {
		panic("ratelimit.Middleware: limiter is required")
	}

	cfg := &middlewareConfig{
		ip:         clientip.Default,
		emailField: "email",
		onLimit:    writeLimited,
		onDegraded: writeUnavailable,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.skipFunc != nil && cfg.skipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			rule, ok := limiter.Registry().RuleFor(r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.AdmitRule(r.Context(), rule, cfg.subject(r, rule.Bucket))
			if err != nil && res == nil {
				res = &Result{
					Scope:    rule.Scope,
					Allowed:  rule.FailPolicy == FailOpen,
					Degraded: true,
				}
			}

			setHeaders(w, res)

			switch {
			case res.Allowed:
				next.ServeHTTP(w, r)
			case res.Degraded:
				cfg.onDegraded(w, r, res)
			default:
				cfg.onLimit(w, r, res)
			}
		})
	}
}

func (c *middlewareConfig) subject(r *http.Request, b Bucket) Subject {
	s := Subject{IP: c.ip.FromRequest(r)}
	if c.userID != nil {
		s.UserID = c.userID(r)
	}
	if c.websiteID != nil {
		s.WebsiteID = c.websiteID(r)
	}
	if b == ByEmail && c.emailField != "" {
		s.Email = r.Header.Get("X-Login-Email")
		if s.Email == "" && isForm(r) {
			s.Email = r.PostFormValue(c.emailField)
		}
	}
	return s
}

func isForm(r *http.Request) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return false
	}
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data")
}

func setHeaders(w http.ResponseWriter, res *Result) {
	if res.Degraded || res.Unlimited() {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
}

func writeLimited(w http.ResponseWriter, _ *http.Request, res *Result) {
	_ = response.Error(w, http.StatusTooManyRequests, response.ErrorDetail{
		Kind:        response.KindRateLimited,
		Message:     "Too many attempts. Try again in " + strconv.Itoa(res.WaitSeconds) + " seconds.",
		WaitSeconds: res.WaitSeconds,
	})
}

func writeUnavailable(w http.ResponseWriter, _ *http.Request, res *Result) {
	_ = response.Error(w, http.StatusServiceUnavailable, response.ErrorDetail{
		Kind:        response.KindUnavailable,
		Message:     "Service temporarily unavailable. Try again shortly.",
		WaitSeconds: res.WaitSeconds,
	})
}
