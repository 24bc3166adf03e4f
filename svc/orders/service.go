package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scribeworks/ordergate/pkg/logger"
	"github.com/scribeworks/ordergate/pkg/notifications"
	"github.com/scribeworks/ordergate/pkg/ratelimit"
	"github.com/scribeworks/ordergate/pkg/rbac"
	"github.com/scribeworks/ordergate/pkg/statemachine"
)

// Rate limit scopes checked by the service.
const (
	ScopeTransition = "order_transition"
	ScopeCreate     = "order_create"
)

// Notification event keys.
const (
	EventStatusChanged = "order.status_changed"
	EventAssigned      = "order.assigned"
)

// PreferencesFunc loads a recipient's channel preferences.
type PreferencesFunc func(ctx context.Context, websiteID, userID string) (notifications.Preferences, error)

// NewOrder is the input of Service.Create.
type NewOrder struct {
	Title       string `json:"title"`
	DepositPaid bool   `json:"deposit_paid"`
}

// Service runs order use cases: creation, assignment and status transitions
// gated by rate limits, with notifications to the parties of the order.
type Service struct {
	repo        Repository
	authz       *rbac.Authorizer
	transitions *statemachine.TransitionMap
	machine     *statemachine.Machine
	limiter     *ratelimit.Limiter
	dispatcher  *notifications.Dispatcher
	prefs       PreferencesFunc
	metrics     *Metrics
	logger      *slog.Logger
	now         func() time.Time
}

type ServiceOption func(*Service)

// WithTransitions replaces DefaultTransitions, e.g. with a map from the
// policy file.
func WithTransitions(tm *statemachine.TransitionMap) ServiceOption {
	return func(s *Service) {
		if tm != nil {
			s.transitions = tm
		}
	}
}

// WithLimiter gates Create and Transition with the order_create and
// order_transition scopes.
func WithLimiter(l *ratelimit.Limiter) ServiceOption {
	return func(s *Service) { s.limiter = l }
}

// WithDispatcher sends order.status_changed and order.assigned notifications.
func WithDispatcher(d *notifications.Dispatcher) ServiceOption {
	return func(s *Service) { s.dispatcher = d }
}

func WithPreferences(fn PreferencesFunc) ServiceOption {
	return func(s *Service) { s.prefs = fn }
}

func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the order state machine with role guards over repo.
func NewService(repo Repository, authz *rbac.Authorizer, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if authz == nil {
		return nil, ErrAuthorizerRequired
	}

	s := &Service{
		repo:        repo,
		authz:       authz,
		transitions: DefaultTransitions(),
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	machineOpts := append(guards(s.transitions, authz),
		statemachine.WithLogger(s.logger),
		statemachine.WithClock(s.now),
		statemachine.WithHooks(s.logTransition),
	)
	m, err := statemachine.New(s.transitions, statemachine.SaverFunc(s.save), machineOpts...)
	if err != nil {
		return nil, fmt.Errorf("build order state machine: %w", err)
	}
	s.machine = m
	return s, nil
}

// MustNewService is like NewService but panics on error.
func MustNewService(repo Repository, authz *rbac.Authorizer, opts ...ServiceOption) *Service {
	s, err := NewService(repo, authz, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Create places a pending order for the acting client on their website.
func (s *Service) Create(ctx context.Context, actor statemachine.Actor, in NewOrder) (*Order, error) {
	if actor.ID == "" {
		return nil, ErrActorRequired
	}
	if err := s.authz.Can(actor.Role, rbac.PermOrdersCreate); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if err := s.admit(ctx, ScopeCreate, actor); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	o := &Order{
		ID:          uuid.NewString(),
		WebsiteID:   actor.WebsiteID,
		ClientID:    actor.ID,
		Title:       title,
		State:       StatusPending,
		DepositPaid: in.DepositPaid,
		CreatedAt:   now,
		UpdatedAt:   now,
		UpdatedBy:   actor.ID,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order created", logger.OrderID(o.ID), logger.UserID(actor.ID))
	return o, nil
}

// Get returns an order the actor may see. Clients see their own orders,
// writers their own and assigned ones, reviewers everything on the website.
func (s *Service) Get(ctx context.Context, actor statemachine.Actor, orderID string) (*Order, error) {
	return s.load(ctx, actor, orderID)
}

// AllowedTransitions lists the statuses reachable from the order's current
// status according to the transition map. Guards may still reject them.
func (s *Service) AllowedTransitions(ctx context.Context, actor statemachine.Actor, orderID string) ([]statemachine.State, error) {
	o, err := s.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	return s.machine.Map().Targets(o.State), nil
}

// History lists the order's status changes oldest first.
func (s *Service) History(ctx context.Context, actor statemachine.Actor, orderID string) ([]StatusChange, error) {
	if _, err := s.Get(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, orderID)
}

// Transition moves the order to target on behalf of actor. The call is rate
// limited per user, checked against the transition map and role guards, saved
// once and announced to the other parties of the order.
func (s *Service) Transition(ctx context.Context, actor statemachine.Actor, orderID string, target statemachine.State) (*Order, error) {
	if actor.ID == "" {
		return nil, ErrActorRequired
	}
	if err := s.admit(ctx, ScopeTransition, actor); err != nil {
		return nil, err
	}
	o, err := s.load(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, actor, o, target)
}

// ApproveAndStart approves a pending order and, when a writer is assigned and
// the deposit is paid, starts work in a second transition. An order that is
// not ready to start is returned approved.
func (s *Service) ApproveAndStart(ctx context.Context, actor statemachine.Actor, orderID string) (*Order, error) {
	if actor.ID == "" {
		return nil, ErrActorRequired
	}
	if err := s.admit(ctx, ScopeTransition, actor); err != nil {
		return nil, err
	}
	o, err := s.load(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}

	o, err = s.apply(ctx, actor, o, StatusApproved)
	if err != nil {
		return nil, err
	}
	if o.WriterID == "" || !o.DepositPaid {
		return o, nil
	}
	return s.apply(ctx, actor, o, StatusInProgress)
}

// Assign sets the order's writer and notifies them.
func (s *Service) Assign(ctx context.Context, actor statemachine.Actor, orderID, writerID string) (*Order, error) {
	if actor.ID == "" {
		return nil, ErrActorRequired
	}
	if err := s.authz.Can(actor.Role, rbac.PermOrdersReview); err != nil {
		return nil, err
	}
	o, err := s.load(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}

	o, err = s.repo.SetWriter(ctx, o.ID, strings.TrimSpace(writerID), s.now().UTC(), actor.ID)
	if err != nil {
		return nil, err
	}

	if o.WriterID != "" {
		s.notify(ctx, o, o.WriterID, notifications.Notification{
			EventKey: EventAssigned,
			Type:     notifications.TypeInfo,
			Title:    fmt.Sprintf("You were assigned to %q", o.Title),
			Message:  "A new order is waiting for you.",
			Link:     "/orders/" + o.ID,
		})
	}
	return o, nil
}

// RecordDeposit marks the order's deposit as paid.
func (s *Service) RecordDeposit(ctx context.Context, actor statemachine.Actor, orderID string) (*Order, error) {
	if actor.ID == "" {
		return nil, ErrActorRequired
	}
	if err := s.authz.Can(actor.Role, rbac.PermOrdersManage); err != nil {
		return nil, err
	}
	o, err := s.load(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}

	return s.repo.MarkDepositPaid(ctx, o.ID, s.now().UTC(), actor.ID)
}

func (s *Service) apply(ctx context.Context, actor statemachine.Actor, o *Order, target statemachine.State) (*Order, error) {
	from := o.State
	updatedAt, updatedBy := o.UpdatedAt, o.UpdatedBy
	o.UpdatedAt = s.now().UTC()
	o.UpdatedBy = actor.ID

	if _, err := s.machine.Transition(ctx, actor, o, target); err != nil {
		o.UpdatedAt, o.UpdatedBy = updatedAt, updatedBy
		s.metrics.observe(string(from), string(target), transitionResult(err))
		return nil, err
	}
	s.metrics.observe(string(from), string(target), resultOK)

	n := notifications.Notification{
		EventKey: EventStatusChanged,
		Type:     statusNotificationType(target),
		Title:    fmt.Sprintf("Order %q is now %s", o.Title, humanize(target)),
		Message:  fmt.Sprintf("Status changed from %s to %s.", humanize(from), humanize(target)),
		Link:     "/orders/" + o.ID,
		Data: map[string]any{
			"order_id": o.ID,
			"from":     string(from),
			"to":       string(target),
		},
	}
	for _, recipient := range []string{o.ClientID, o.WriterID} {
		if recipient != "" && recipient != actor.ID {
			s.notify(ctx, o, recipient, n)
		}
	}
	return o, nil
}

func (s *Service) save(ctx context.Context, e statemachine.Entity, _ []string) error {
	o, ok := e.(*Order)
	if !ok {
		return ErrUnexpectedEntity
	}
	return s.repo.UpdateStatus(ctx, o)
}

func (s *Service) logTransition(ctx context.Context, rec statemachine.TransitionRecord) {
	s.logger.InfoContext(ctx, "order status changed",
		logger.OrderID(rec.EntityID),
		logger.UserID(rec.Actor.ID),
		logger.Role(rec.Actor.Role),
		slog.String("from", string(rec.From)),
		slog.String("to", string(rec.To)),
	)
}

// admit applies the scope's rate limit. A degraded fail-open result lets the
// call through; the limiter already logged the store failure.
func (s *Service) admit(ctx context.Context, scope string, actor statemachine.Actor) error {
	if s.limiter == nil {
		return nil
	}
	res, err := s.limiter.Admit(ctx, scope, ratelimit.Subject{WebsiteID: actor.WebsiteID, UserID: actor.ID})
	if res != nil && res.Allowed {
		return nil
	}
	if err != nil {
		return err
	}
	return res.Err()
}

// load fetches an order the actor may see. Orders of other websites and
// orders the actor has no part in are reported as ErrOrderNotFound, so
// reads and writes alike never reveal that they exist.
func (s *Service) load(ctx context.Context, actor statemachine.Actor, orderID string) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, ErrOrderNotFound
	}
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.WebsiteID != "" && o.WebsiteID != actor.WebsiteID {
		return nil, ErrOrderNotFound
	}
	if err := s.canView(actor, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) canView(actor statemachine.Actor, o *Order) error {
	if err := s.authz.Can(actor.Role, rbac.PermOrdersRead); err != nil {
		return err
	}
	if s.authz.Can(actor.Role, rbac.PermOrdersReview) == nil {
		return nil
	}
	if actor.ID == o.ClientID || (o.WriterID != "" && actor.ID == o.WriterID) {
		return nil
	}
	return ErrOrderNotFound
}

func (s *Service) notify(ctx context.Context, o *Order, recipient string, n notifications.Notification) {
	if s.dispatcher == nil {
		return
	}
	n.WebsiteID = o.WebsiteID
	n.UserID = recipient

	var prefs notifications.Preferences
	if s.prefs != nil {
		p, err := s.prefs(ctx, o.WebsiteID, recipient)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to load notification preferences",
				logger.UserID(recipient), logger.Error(err))
		}
		prefs = p
	}

	report, err := s.dispatcher.Dispatch(ctx, n, prefs)
	if err != nil {
		s.logger.ErrorContext(ctx, "order notification failed",
			logger.OrderID(o.ID), logger.UserID(recipient), logger.EventKey(n.EventKey), logger.Error(err))
		return
	}
	s.logger.DebugContext(ctx, "order notification dispatched",
		logger.OrderID(o.ID), logger.UserID(recipient), logger.EventKey(n.EventKey),
		slog.String("outcome", string(report.Outcome)))
}

func transitionResult(err error) string {
	switch {
	case statemachine.IsInvalidTransitionError(err):
		return resultInvalid
	case statemachine.IsGuardRejectedError(err):
		return resultForbidden
	case errors.Is(err, ErrStatusConflict):
		return resultConflict
	default:
		return resultError
	}
}

func statusNotificationType(s statemachine.State) notifications.Type {
	switch s {
	case StatusCompleted, StatusApproved:
		return notifications.TypeSuccess
	case StatusRejected, StatusCancelled:
		return notifications.TypeWarning
	default:
		return notifications.TypeInfo
	}
}

func humanize(s statemachine.State) string {
	return strings.ReplaceAll(string(s), "_", " ")
}
