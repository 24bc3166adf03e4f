package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// DefaultHeaders are consulted in order before falling back to RemoteAddr.
var DefaultHeaders = []string{"X-Forwarded-For", "X-Real-IP"}

// Resolver extracts the client address from a request. Only headers set by a
// trusted proxy should be listed; anything else lets callers pick their own
// rate limit bucket.
type Resolver struct {
	headers []string
}

// NewResolver creates a resolver that trusts the given headers in order.
// With no headers only RemoteAddr is used.
func NewResolver(headers ...string) *Resolver {
	hs := make([]string, 0, len(headers))
	for _, h := range headers {
		if h = strings.TrimSpace(h); h != "" {
			hs = append(hs, http.CanonicalHeaderKey(h))
		}
	}
	return &Resolver{headers: hs}
}

// Default resolves with DefaultHeaders.
var Default = NewResolver(DefaultHeaders...)

// GetIP resolves r's client address with the default resolver.
func GetIP(r *http.Request) string {
	return Default.Resolve(r)
}

// Resolve returns the normalized client IP or an empty string.
// Comma separated headers yield their first valid address.
func (res *Resolver) Resolve(r *http.Request) string {
	for _, h := range res.headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		for part := range strings.SplitSeq(v, ",") {
			if ip := parseIP(part); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// parseIP validates and normalizes an address. IPv4-mapped IPv6 addresses are
// unmapped and zones dropped so one client always yields one key.
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}
