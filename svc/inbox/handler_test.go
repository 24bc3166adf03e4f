package inbox_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeworks/ordergate/pkg/notifications"
	"github.com/scribeworks/ordergate/pkg/response"
	"github.com/scribeworks/ordergate/pkg/website"
	"github.com/scribeworks/ordergate/svc/inbox"
)

const userID = "u-writer"

func newServer(t *testing.T) (http.Handler, *notifications.MemoryStorage) {
	t.Helper()
	storage := notifications.NewMemoryStorage()
	base := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	seed := []notifications.Notification{
		{ID: "n-1", WebsiteID: "w-1", UserID: userID, EventKey: "order.assigned", Title: "Assigned", CreatedAt: base},
		{ID: "n-2", WebsiteID: "w-1", UserID: userID, EventKey: "order.status_changed", Title: "Approved", CreatedAt: base.Add(time.Minute)},
		{ID: "n-3", WebsiteID: "w-2", UserID: userID, EventKey: "order.status_changed", Title: "Other site", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "n-4", WebsiteID: "w-1", UserID: "u-other", EventKey: "order.assigned", Title: "Not mine", CreatedAt: base},
	}
	for _, n := range seed {
		require.NoError(t, storage.Create(context.Background(), n))
	}

	provider := website.NewMemoryProvider(
		website.Website{ID: "w-1", Domain: "essays.example", Active: true},
		website.Website{ID: "w-2", Domain: "labs.example", Active: true},
	)
	r := chi.NewRouter()
	r.Use(website.Middleware(website.HeaderResolver(""), provider))
	r.Mount("/notifications", inbox.NewHandler(notifications.NewInbox(storage)).Routes())
	return r, storage
}

func do(t *testing.T, h http.Handler, method, path, user, site string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if user != "" {
		req.Header.Set(inbox.HeaderUserID, user)
	}
	req.Header.Set(website.DefaultHeader, site)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data  T                     `json:"data"`
		Error *response.ErrorDetail `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env.Data
}

func ids(items []notifications.Notification) []string {
	out := make([]string, len(items))
	for i, n := range items {
		out[i] = n.ID
	}
	return out
}

func TestHandler_List(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		site string
		want []string
	}{
		{name: "website scoped newest first", path: "/notifications", site: "w-1", want: []string{"n-2", "n-1"}},
		{name: "other website", path: "/notifications", site: "w-2", want: []string{"n-3"}},
		{name: "limit", path: "/notifications?limit=1", site: "w-1", want: []string{"n-2"}},
		{name: "offset", path: "/notifications?offset=1", site: "w-1", want: []string{"n-1"}},
		{name: "event filter", path: "/notifications?event=order.assigned", site: "w-1", want: []string{"n-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, _ := newServer(t)
			w := do(t, h, http.MethodGet, tt.path, userID, tt.site)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, ids(decode[[]notifications.Notification](t, w)))
		})
	}
}

func TestHandler_ReadFlow(t *testing.T) {
	t.Parallel()
	h, _ := newServer(t)

	w := do(t, h, http.MethodGet, "/notifications/unread-count", userID, "w-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[map[string]int](t, w)["unread"])

	w = do(t, h, http.MethodPost, "/notifications/n-2/read", userID, "w-1")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/notifications?unread=true", userID, "w-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"n-1"}, ids(decode[[]notifications.Notification](t, w)))

	w = do(t, h, http.MethodPost, "/notifications/read", userID, "w-1")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/notifications/unread-count", userID, "w-1")
	assert.Equal(t, 0, decode[map[string]int](t, w)["unread"])

	w = do(t, h, http.MethodDelete, "/notifications/n-1", userID, "w-1")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/notifications", userID, "w-1")
	assert.Equal(t, []string{"n-2"}, ids(decode[[]notifications.Notification](t, w)))
}

func TestHandler_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		site   string
		status int
		kind   string
	}{
		{name: "anonymous", method: http.MethodGet, path: "/notifications", site: "w-1", status: http.StatusUnauthorized, kind: response.KindUnauthorized},
		{name: "bad limit", method: http.MethodGet, path: "/notifications?limit=zero", user: userID, site: "w-1", status: http.StatusBadRequest, kind: response.KindBadRequest},
		{name: "negative offset", method: http.MethodGet, path: "/notifications?offset=-1", user: userID, site: "w-1", status: http.StatusBadRequest, kind: response.KindBadRequest},
		{name: "unknown id", method: http.MethodPost, path: "/notifications/n-9/read", user: userID, site: "w-1", status: http.StatusNotFound, kind: response.KindNotFound},
		{name: "other user", method: http.MethodDelete, path: "/notifications/n-4", user: userID, site: "w-1", status: http.StatusNotFound, kind: response.KindNotFound},
		{name: "other website", method: http.MethodPost, path: "/notifications/n-3/read", user: userID, site: "w-1", status: http.StatusNotFound, kind: response.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, _ := newServer(t)
			w := do(t, h, tt.method, tt.path, tt.user, tt.site)
			require.Equal(t, tt.status, w.Code)

			var env response.Envelope
			require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.kind, env.Error.Kind)
		})
	}
}
