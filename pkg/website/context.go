package website

import (
	"context"
	"log/slog"

	"github.com/scribeworks/ordergate/pkg/logger"
)

type contextKey struct{}

// WithWebsite adds a website to the context.
func WithWebsite(ctx context.Context, site *Website) context.Context {
	return context.WithValue(ctx, contextKey{}, site)
}

// FromContext retrieves the website from the context.
func FromContext(ctx context.Context) (*Website, bool) {
	site, ok := ctx.Value(contextKey{}).(*Website)
	return site, ok && site != nil
}

// IDFromContext returns the website id or "" when none is set.
// It satisfies feature.TenantExtractor.
func IDFromContext(ctx context.Context) string {
	if site, ok := FromContext(ctx); ok {
		return site.ID
	}
	return ""
}

// LoggerExtractor adds website_id to log records.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := IDFromContext(ctx); id != "" {
			return logger.WebsiteID(id), true
		}
		return slog.Attr{}, false
	}
}
