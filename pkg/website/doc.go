// Package website binds requests to a tenant website.
//
// Many branded websites share one deployment. Middleware resolves the website
// from the X-Website-ID header or the request host, loads it through a
// Provider and stores it in the request context:
//
//	r.Use(website.Middleware(
//	    website.FirstOf(website.HeaderResolver(""), website.HostResolver()),
//	    provider,
//	    website.WithSkipPaths("/healthz", "/metrics"),
//	))
//
// IDFromContext is a feature.TenantExtractor and LoggerExtractor adds
// website_id to every log record written with the request context.
package website
