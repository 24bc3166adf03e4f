package ratelimit_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeworks/ordergate/pkg/clientip"
	"github.com/scribeworks/ordergate/pkg/ratelimit"
	"github.com/scribeworks/ordergate/pkg/response"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestMiddleware_ThrottlesByIP(t *testing.T) {
	t.Parallel()

	c := &clock{now: time.Unix(1_767_225_600, 0)}
	lim, _ := newLimiter(t, c, ratelimit.Rule{
		Scope: "login", Path: "/auth/login", Window: time.Minute, MaxCount: 2, Bucket: ratelimit.ByIP,
	})
	h := ratelimit.Middleware(lim, ratelimit.WithIPResolver(clientip.NewResolver("X-Forwarded-For")))(okHandler)

	send := func(ip string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		r.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	w := send("203.0.113.7")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1767225660", w.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, http.StatusOK, send("203.0.113.7").Code)

	w = send("203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var body response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, response.KindRateLimited, body.Error.Kind)
	assert.Equal(t, 60, body.Error.WaitSeconds)
	assert.NotEmpty(t, body.Error.Message)

	assert.Equal(t, http.StatusOK, send("198.51.100.1").Code)
}

func TestMiddleware_UnmatchedPathPassesThrough(t *testing.T) {
	t.Parallel()

	lim, _ := newLimiter(t, &clock{now: time.Now()}, loginRule)
	h := ratelimit.Middleware(lim)(okHandler)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/login-help", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestMiddleware_ByEmailFromForm(t *testing.T) {
	t.Parallel()

	lim, _ := newLimiter(t, &clock{now: time.Unix(1_767_225_600, 0)}, ratelimit.Rule{
		Scope: "magic_link", Path: "/auth/magic-link", Window: time.Minute, MaxCount: 1, Bucket: ratelimit.ByEmail,
	})
	h := ratelimit.Middleware(lim)(okHandler)

	send := func(email string) int {
		form := url.Values{"email": {email}}
		r := httptest.NewRequest(http.MethodPost, "/auth/magic-link", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("a@example.com"))
	assert.Equal(t, http.StatusTooManyRequests, send("A@example.com"))
	// Same IP, different email, separate bucket.
	assert.Equal(t, http.StatusOK, send("b@example.com"))
}

func TestMiddleware_ByUser(t *testing.T) {
	t.Parallel()

	lim, _ := newLimiter(t, &clock{now: time.Unix(1_767_225_600, 0)}, ratelimit.Rule{
		Scope: "order_transition", Path: "/orders/{id}/transitions", Window: time.Minute, MaxCount: 1, Bucket: ratelimit.ByUser,
	})
	h := ratelimit.Middleware(lim,
		ratelimit.WithUserIDFunc(func(r *http.Request) string { return r.Header.Get("X-User-ID") }),
	)(okHandler)

	send := func(user, path string) int {
		r := httptest.NewRequest(http.MethodPost, path, nil)
		r.Header.Set("X-User-ID", user)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("u-1", "/orders/1/transitions"))
	assert.Equal(t, http.StatusTooManyRequests, send("u-1", "/orders/2/transitions"))
	assert.Equal(t, http.StatusOK, send("u-2", "/orders/1/transitions"))
}

func TestMiddleware_ByUserPerWebsite(t *testing.T) {
	t.Parallel()

	lim, _ := newLimiter(t, &clock{now: time.Unix(1_767_225_600, 0)}, ratelimit.Rule{
		Scope: "order_read", Path: "/orders/{id}", Window: time.Minute, MaxCount: 1, Bucket: ratelimit.ByUser,
	})
	h := ratelimit.Middleware(lim,
		ratelimit.WithUserIDFunc(func(r *http.Request) string { return r.Header.Get("X-User-ID") }),
		ratelimit.WithWebsiteIDFunc(func(r *http.Request) string { return r.Header.Get("X-Website-ID") }),
	)(okHandler)

	send := func(site string) int {
		r := httptest.NewRequest(http.MethodGet, "/orders/1", nil)
		r.Header.Set("X-User-ID", "u-1")
		r.Header.Set("X-Website-ID", site)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("w-essays"))
	assert.Equal(t, http.StatusTooManyRequests, send("w-essays"))
	// The same user id on another website has its own quota.
	assert.Equal(t, http.StatusOK, send("w-labs"))
}

func TestMiddleware_FailPolicy(t *testing.T) {
	t.Parallel()

	reg := ratelimit.MustNewRegistry(
		loginRule,
		ratelimit.Rule{Scope: "search", Path: "/search", Window: time.Minute, MaxCount: 100},
	)
	lim, err := ratelimit.NewLimiter(downStore{}, reg)
	require.NoError(t, err)
	h := ratelimit.Middleware(lim)(okHandler)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), response.KindUnavailable)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_Options(t *testing.T) {
	t.Parallel()

	lim, _ := newLimiter(t, &clock{now: time.Unix(1_767_225_600, 0)}, ratelimit.Rule{
		Scope: "login", Path: "/auth/login", Window: time.Minute, MaxCount: 1,
	})

	called := false
	h := ratelimit.Middleware(lim,
		ratelimit.WithSkipFunc(func(r *http.Request) bool { return r.Header.Get("X-Internal") == "1" }),
		ratelimit.WithOnLimitReached(func(w http.ResponseWriter, _ *http.Request, res *ratelimit.Result) {
			called = true
			w.WriteHeader(http.StatusTeapot)
		}),
	)(okHandler)

	for range 3 {
		r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		r.Header.Set("X-Internal", "1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	for _, want := range []int{http.StatusOK, http.StatusTeapot} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
		assert.Equal(t, want, w.Code)
	}
	assert.True(t, called)

	assert.Panics(t, func() { ratelimit.Middleware(nil) })
}
