package website

import (
	"net"
	"net/http"
	"strings"
)

// DefaultHeader carries the website id on API requests.
const DefaultHeader = "X-Website-ID"

// Resolver extracts a website identifier from a request. An empty result
// means the request is not bound to a website.
type Resolver interface {
	Resolve(r *http.Request) string
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(r *http.Request) string

func (f ResolverFunc) Resolve(r *http.Request) string {
	return f(r)
}

// HeaderResolver reads the identifier from a header.
func HeaderResolver(name string) Resolver {
	if name == "" {
		name = DefaultHeader
	}
	return ResolverFunc(func(r *http.Request) string {
		return strings.TrimSpace(r.Header.Get(name))
	})
}

// HostResolver uses the request host without port, so that each website's
// own domain maps to it through the Provider.
func HostResolver() Resolver {
	return ResolverFunc(func(r *http.Request) string {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		return strings.ToLower(strings.TrimPrefix(host, "www."))
	})
}

// FirstOf tries resolvers in order and returns the first non-empty identifier.
func FirstOf(resolvers ...Resolver) Resolver {
	return ResolverFunc(func(r *http.Request) string {
		for _, res := range resolvers {
			if id := res.Resolve(r); id != "" {
				return id
			}
		}
		return ""
	})
}
