package clientip

import "context"

type ipCtxKey struct{}

// SetIPToContext stores the client IP in ctx.
func SetIPToContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipCtxKey{}, ip)
}

// GetIPFromContext returns the client IP stored by Middleware, or "".
func GetIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ipCtxKey{}).(string)
	return ip
}
