package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/scribeworks/ordergate/pkg/counter"
	"github.com/scribeworks/ordergate/pkg/logger"
	"github.com/scribeworks/ordergate/pkg/ratelimit"
	"github.com/scribeworks/ordergate/pkg/rbac"
	"github.com/scribeworks/ordergate/pkg/response"
	"github.com/scribeworks/ordergate/pkg/statemachine"
	"github.com/scribeworks/ordergate/pkg/website"
)

// Identity headers set by the authenticating gateway in front of the service.
const (
	HeaderUserID = "X-User-ID"
	HeaderRole   = "X-User-Role"
)

const maxBodyBytes = 1 << 16

// ActorFunc extracts the caller from a request.
type ActorFunc func(r *http.Request) (statemachine.Actor, error)

// ActorFromHeaders reads the user id and role from gateway headers, falling
// back to an rbac role in the request context, and the website from the
// context set by website.Middleware.
func ActorFromHeaders(r *http.Request) (statemachine.Actor, error) {
	actor := statemachine.Actor{
		ID:        strings.TrimSpace(r.Header.Get(HeaderUserID)),
		Role:      strings.TrimSpace(r.Header.Get(HeaderRole)),
		WebsiteID: website.IDFromContext(r.Context()),
	}
	if actor.Role == "" {
		actor.Role, _ = rbac.RoleFromContext(r.Context())
	}
	if actor.ID == "" || actor.Role == "" {
		return statemachine.Actor{}, ErrActorRequired
	}
	return actor, nil
}

// Handler exposes the order service over HTTP.
type Handler struct {
	svc    *Service
	actor  ActorFunc
	logger *slog.Logger
}

type HandlerOption func(*Handler)

func WithActorFunc(fn ActorFunc) HandlerOption {
	return func(h *Handler) {
		if fn != nil {
			h.actor = fn
		}
	}
}

func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHandler(svc *Service, opts ...HandlerOption) *Handler {
	h := &Handler{svc: svc, actor: ActorFromHeaders, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the order routes, meant to be mounted at /orders.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Get("/transitions", h.allowedTransitions)
		r.Post("/transitions", h.transition)
		r.Post("/approve-and-start", h.approveAndStart)
		r.Get("/history", h.history)
		r.Put("/writer", h.assign)
		r.Post("/deposit", h.recordDeposit)
	})
	return r
}

type transitionRequest struct {
	Target string `json:"target"`
}

type assignRequest struct {
	WriterID string `json:"writer_id"`
}

type transitionsResponse struct {
	Status  statemachine.State   `json:"status"`
	Targets []statemachine.State `json:"targets"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	var in NewOrder
	if !h.decode(w, r, &in) {
		return
	}
	o, err := h.svc.Create(r.Context(), actor, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = response.JSON(w, http.StatusCreated, o)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	o, err := h.svc.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = response.JSON(w, http.StatusOK, o)
}

func (h *Handler) allowedTransitions(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	o, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	targets, err := h.svc.AllowedTransitions(r.Context(), actor, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if targets == nil {
		targets = []statemachine.State{}
	}
	_ = response.JSON(w, http.StatusOK, transitionsResponse{Status: o.State, Targets: targets})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	var in transitionRequest
	if !h.decode(w, r, &in) {
		return
	}
	target := statemachine.State(strings.TrimSpace(in.Target))
	if target == "" {
		_ = response.Error(w, http.StatusBadRequest, response.ErrorDetail{
			Kind:    response.KindBadRequest,
			Message: "target status is required",
		})
		return
	}

	o, err := h.svc.Transition(r.Context(), actor, chi.URLParam(r, "id"), target)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = response.JSON(w, http.StatusOK, o)
}

func (h *Handler) approveAndStart(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	o, err := h.svc.ApproveAndStart(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = response.JSON(w, http.StatusOK, o)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	changes, err := h.svc.History(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if changes == nil {
		changes = []StatusChange{}
	}
	_ = response.JSON(w, http.StatusOK, changes)
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	var in assignRequest
	if !h.decode(w, r, &in) {
		return
	}
	o, err := h.svc.Assign(r.Context(), actor, chi.URLParam(r, "id"), in.WriterID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = response.JSON(w, http.StatusOK, o)
}

func (h *Handler) recordDeposit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	o, err := h.svc.RecordDeposit(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = response.JSON(w, http.StatusOK, o)
}

func (h *Handler) requireActor(w http.ResponseWriter, r *http.Request) (statemachine.Actor, bool) {
	actor, err := h.actor(r)
	if err != nil {
		_ = response.Error(w, http.StatusUnauthorized, response.ErrorDetail{
			Kind:    response.KindUnauthorized,
			Message: "caller identity is missing",
		})
		return statemachine.Actor{}, false
	}
	return actor, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		_ = response.Error(w, http.StatusBadRequest, response.ErrorDetail{
			Kind:    response.KindBadRequest,
			Message: "invalid request body",
		})
		return false
	}
	return true
}

// writeError maps service errors to the structured error body.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := errorDetail(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "order request failed",
			logger.OrderID(chi.URLParam(r, "id")), logger.Error(err))
	}
	_ = response.Error(w, status, detail)
}

func errorDetail(err error) (int, response.ErrorDetail) {
	switch {
	case ratelimit.IsExceeded(err):
		wait := ratelimit.WaitSeconds(err)
		return http.StatusTooManyRequests, response.ErrorDetail{
			Kind:        response.KindRateLimited,
			Message:     "Too many status changes. Try again later.",
			WaitSeconds: wait,
		}
	case errors.Is(err, counter.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, response.ErrorDetail{
			Kind:    response.KindUnavailable,
			Message: "Service temporarily unavailable. Try again shortly.",
		}
	case statemachine.IsInvalidTransitionError(err):
		return http.StatusConflict, response.ErrorDetail{
			Kind:    response.KindInvalidTransition,
			Message: invalidTransitionMessage(err),
		}
	case errors.Is(err, ErrStatusConflict):
		return http.StatusConflict, response.ErrorDetail{
			Kind:    response.KindInvalidTransition,
			Message: "The order was updated by someone else. Reload and try again.",
		}
	case errors.Is(err, ErrActorRequired):
		return http.StatusUnauthorized, response.ErrorDetail{
			Kind:    response.KindUnauthorized,
			Message: "caller identity is missing",
		}
	case errors.Is(err, ErrOrderNotFound):
		return http.StatusNotFound, response.ErrorDetail{
			Kind:    response.KindNotFound,
			Message: "Order not found.",
		}
	case errors.Is(err, ErrTitleRequired):
		return http.StatusBadRequest, response.ErrorDetail{
			Kind:    response.KindBadRequest,
			Message: "Order title is required.",
		}
	case statemachine.IsGuardRejectedError(err),
		errors.Is(err, rbac.ErrInsufficientPermissions),
		errors.Is(err, rbac.ErrInvalidRole):
		return http.StatusForbidden, response.ErrorDetail{
			Kind:    response.KindForbidden,
			Message: forbiddenMessage(err),
		}
	default:
		return http.StatusInternalServerError, response.ErrorDetail{
			Kind:    response.KindInternal,
			Message: "Something went wrong.",
		}
	}
}

func invalidTransitionMessage(err error) string {
	var invalid *statemachine.InvalidTransitionError
	if errors.As(err, &invalid) {
		return "Cannot move order from " + humanize(invalid.From) + " to " + humanize(invalid.To) + "."
	}
	return "This status change is not allowed."
}

func forbiddenMessage(err error) string {
	switch {
	case errors.Is(err, ErrDepositRequired):
		return "The deposit must be paid before work starts."
	case errors.Is(err, ErrWriterNotAssigned):
		return "Assign a writer before work starts."
	case errors.Is(err, ErrNotAssignedWriter):
		return "Only the assigned writer can do this."
	case errors.Is(err, ErrNotOwner):
		return "Only the client who placed the order can do this."
	default:
		return "You are not allowed to do this."
	}
}
