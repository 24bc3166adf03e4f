// Package clientip resolves the originating client address of an HTTP request
// behind reverse proxies.
//
// A Resolver trusts an explicit, ordered list of proxy headers and falls back
// to the TCP peer address. Addresses are normalized (IPv4-mapped IPv6 is
// unmapped, zones dropped) so they can be used as rate limit bucket keys.
//
//	resolver := clientip.NewResolver("CF-Connecting-IP", "X-Forwarded-For")
//	router.Use(resolver.Middleware)
//	ip := clientip.GetIPFromContext(r.Context())
package clientip
