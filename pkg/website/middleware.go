package website

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/scribeworks/ordergate/pkg/logger"
	"github.com/scribeworks/ordergate/pkg/response"
)

// ErrorHandler writes the response for a failed resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type config struct {
	errorHandler ErrorHandler
	skipPaths    []string
	cacheTTL     time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures the middleware.
type Option func(*config)

// WithErrorHandler replaces the JSON error responses.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *config) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithSkipPaths lists path prefixes that are served without a website.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

// WithCacheTTL sets how long resolved websites are cached. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl >= 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithLogger sets the logger used for provider failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Middleware resolves the website of each request and stores it in the
// context. Requests without an identifier pass through unchanged; unknown and
// inactive websites are rejected.
func Middleware(resolver Resolver, provider Provider, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		errorHandler: defaultErrorHandler,
		cacheTTL:     time.Minute,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	cache := &siteCache{items: make(map[string]cachedSite)}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			identifier := resolver.Resolve(r)
			if identifier == "" {
				next.ServeHTTP(w, r)
				return
			}

			site, ok := cache.get(identifier, cfg.now())
			if !ok {
				var err error
				site, err = provider.GetByIdentifier(r.Context(), identifier)
				if err != nil {
					if !errors.Is(err, ErrWebsiteNotFound) {
						cfg.logger.ErrorContext(r.Context(), "website lookup failed",
							slog.String("identifier", identifier),
							logger.Error(err),
						)
					}
					cfg.errorHandler(w, r, err)
					return
				}
				if cfg.cacheTTL > 0 {
					cache.set(identifier, site, cfg.now().Add(cfg.cacheTTL))
				}
			}

			if !site.Active {
				cfg.errorHandler(w, r, ErrInactiveWebsite)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithWebsite(r.Context(), site)))
		})
	}
}

// RequireWebsite rejects requests that reached it without a website.
func RequireWebsite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			defaultErrorHandler(w, r, ErrNoWebsiteInContext)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	switch {
	case errors.Is(err, ErrWebsiteNotFound):
		_ = response.Error(w, http.StatusNotFound, response.ErrorDetail{Kind: response.KindNotFound, Message: "Website not found."})
	case errors.Is(err, ErrInactiveWebsite):
		_ = response.Error(w, http.StatusForbidden, response.ErrorDetail{Kind: response.KindForbidden, Message: "Website is inactive."})
	case errors.Is(err, ErrNoWebsiteInContext):
		_ = response.Error(w, http.StatusBadRequest, response.ErrorDetail{Kind: response.KindBadRequest, Message: "Website is required."})
	default:
		_ = response.Error(w, http.StatusInternalServerError, response.ErrorDetail{Kind: response.KindInternal, Message: "Internal server error."})
	}
}

type cachedSite struct {
	site      *Website
	expiresAt time.Time
}

type siteCache struct {
	mu    sync.RWMutex
	items map[string]cachedSite
}

func (c *siteCache) get(key string, now time.Time) (*Website, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[key]
	if !ok || !now.Before(item.expiresAt) {
		return nil, false
	}
	return item.site, true
}

func (c *siteCache) set(key string, site *Website, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cachedSite{site: site, expiresAt: expiresAt}
}
