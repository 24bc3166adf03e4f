package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scribeworks/ordergate/pkg/clientip"
)

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		trusted    []string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "first forwarded address",
			trusted:    clientip.DefaultHeaders,
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			remoteAddr: "10.0.0.2:4000",
			want:       "203.0.113.7",
		},
		{
			name:       "skips invalid forwarded entries",
			trusted:    clientip.DefaultHeaders,
			headers:    map[string]string{"X-Forwarded-For": "unknown, 198.51.100.4"},
			remoteAddr: "10.0.0.2:4000",
			want:       "198.51.100.4",
		},
		{
			name:       "header order is respected",
			trusted:    []string{"cf-connecting-ip", "X-Forwarded-For"},
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.4", "CF-Connecting-IP": "203.0.113.9"},
			remoteAddr: "10.0.0.2:4000",
			want:       "203.0.113.9",
		},
		{
			name:       "untrusted headers are ignored",
			trusted:    nil,
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			remoteAddr: "192.0.2.10:5555",
			want:       "192.0.2.10",
		},
		{
			name:       "ipv4 mapped ipv6 is unmapped",
			trusted:    nil,
			remoteAddr: "[::ffff:192.0.2.1]:80",
			want:       "192.0.2.1",
		},
		{
			name:       "remote addr without port",
			trusted:    nil,
			remoteAddr: "2001:db8::1",
			want:       "2001:db8::1",
		},
		{
			name:       "garbage yields empty",
			trusted:    clientip.DefaultHeaders,
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			remoteAddr: "pipe",
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.NewResolver(tt.trusted...).Resolve(r))
		})
	}
}

func TestResolver_Middleware(t *testing.T) {
	t.Parallel()

	res := clientip.NewResolver("X-Real-IP")
	var got string
	h := res.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = clientip.GetIPFromContext(r.Context())
		assert.Equal(t, got, res.FromRequest(r))
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-IP", "203.0.113.50")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "203.0.113.50", got)

	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	plain.RemoteAddr = "192.0.2.33:1234"
	assert.Equal(t, "192.0.2.33", res.FromRequest(plain))
}
