package inbox

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/scribeworks/ordergate/pkg/logger"
	"github.com/scribeworks/ordergate/pkg/notifications"
	"github.com/scribeworks/ordergate/pkg/response"
	"github.com/scribeworks/ordergate/pkg/website"
)

// HeaderUserID carries the caller id set by the authenticating gateway.
const HeaderUserID = "X-User-ID"

const maxPageSize = 100

// ErrUserRequired is returned by a UserFunc when the caller is anonymous.
var ErrUserRequired = errors.New("inbox: user id is required")

// UserFunc extracts the caller id from a request.
type UserFunc func(r *http.Request) (string, error)

// UserFromHeader reads the caller id from HeaderUserID.
func UserFromHeader(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return "", ErrUserRequired
	}
	return id, nil
}

// Handler serves the in-app notification inbox of the calling user, scoped to
// the website resolved for the request.
type Handler struct {
	inbox  *notifications.Inbox
	user   UserFunc
	logger *slog.Logger
}

type Option func(*Handler)

func WithUserFunc(fn UserFunc) Option {
	return func(h *Handler) {
		if fn != nil {
			h.user = fn
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHandler(inbox *notifications.Inbox, opts ...Option) *Handler {
	h := &Handler{inbox: inbox, user: UserFromHeader, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the inbox routes, meant to be mounted at /notifications.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/unread-count", h.unreadCount)
	r.Post("/read", h.markAllRead)
	r.Post("/{id}/read", h.markRead)
	r.Delete("/{id}", h.delete)
	return r
}

type countResponse struct {
	Unread int `json:"unread"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	opts := notifications.ListOptions{
		WebsiteID:  website.IDFromContext(r.Context()),
		OnlyUnread: q.Get("unread") == "true",
		Limit:      maxPageSize,
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.badRequest(w, "limit must be a positive integer")
			return
		}
		opts.Limit = min(n, maxPageSize)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.badRequest(w, "offset must be a non-negative integer")
			return
		}
		opts.Offset = n
	}
	if v := q.Get("event"); v != "" {
		opts.EventKeys = strings.Split(v, ",")
	}

	items, err := h.inbox.List(r.Context(), userID, opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []notifications.Notification{}
	}
	_ = response.JSON(w, http.StatusOK, items)
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	n, err := h.inbox.CountUnread(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = response.JSON(w, http.StatusOK, countResponse{Unread: n})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	n, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	if err := h.inbox.MarkRead(r.Context(), userID, n.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if err := h.inbox.MarkAllRead(r.Context(), userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	n, ok := h.load(w, r, userID)
	if !ok {
		return
	}
	if err := h.inbox.Delete(r.Context(), userID, n.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// load fetches the notification named in the path. Notifications of other
// websites are reported as missing.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, userID string) (*notifications.Notification, bool) {
	n, err := h.inbox.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err == nil {
		if site := website.IDFromContext(r.Context()); site != "" && n.WebsiteID != site {
			err = notifications.ErrNotificationNotFound
		}
	}
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return n, true
}

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := h.user(r)
	if err != nil {
		_ = response.Error(w, http.StatusUnauthorized, response.ErrorDetail{
			Kind:    response.KindUnauthorized,
			Message: "caller identity is missing",
		})
		return "", false
	}
	return id, true
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	_ = response.Error(w, http.StatusBadRequest, response.ErrorDetail{
		Kind:    response.KindBadRequest,
		Message: msg,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, notifications.ErrNotificationNotFound) {
		_ = response.Error(w, http.StatusNotFound, response.ErrorDetail{
			Kind:    response.KindNotFound,
			Message: "notification not found",
		})
		return
	}
	h.logger.ErrorContext(r.Context(), "inbox request failed", logger.Error(err))
	_ = response.Error(w, http.StatusInternalServerError, response.ErrorDetail{
		Kind:    response.KindInternal,
		Message: "Something went wrong.",
	})
}
