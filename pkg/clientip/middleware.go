package clientip

import "net/http"

// Middleware stores the resolved client IP in the request context.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := SetIPToContext(r.Context(), res.Resolve(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromRequest returns the IP stored in the request context, resolving it with
// res when Middleware did not run.
func (res *Resolver) FromRequest(r *http.Request) string {
	if ip := GetIPFromContext(r.Context()); ip != "" {
		return ip
	}
	return res.Resolve(r)
}
