package orders

import (
	"time"

	"github.com/scribeworks/ordergate/pkg/statemachine"
)

// Order statuses.
const (
	StatusPending           = statemachine.State("pending")
	StatusApproved          = statemachine.State("approved")
	StatusRejected          = statemachine.State("rejected")
	StatusInProgress        = statemachine.State("in_progress")
	StatusSubmitted         = statemachine.State("submitted")
	StatusInReview          = statemachine.State("in_review")
	StatusRevisionRequested = statemachine.State("revision_requested")
	StatusCompleted         = statemachine.State("completed")
	StatusCancelled         = statemachine.State("cancelled")
)

// Order is a writing order placed by a client on one website. State is only
// ever changed through Service.Transition.
type Order struct {
	ID          string             `json:"id"`
	WebsiteID   string             `json:"website_id"`
	ClientID    string             `json:"client_id"`
	WriterID    string             `json:"writer_id,omitempty"`
	Title       string             `json:"title"`
	State       statemachine.State `json:"status"`
	DepositPaid bool               `json:"deposit_paid"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	UpdatedBy   string             `json:"updated_by,omitempty"`

	previous statemachine.State
}

func (o *Order) Status() statemachine.State { return o.State }

// SetStatus remembers the replaced status so the repository can write the
// update conditionally on it.
func (o *Order) SetStatus(s statemachine.State) {
	o.previous = o.State
	o.State = s
}

func (o *Order) EntityID() string { return o.ID }

// PreviousStatus is the status replaced by the last SetStatus call.
func (o *Order) PreviousStatus() statemachine.State { return o.previous }

// StatusChange is one row of an order's status history.
type StatusChange struct {
	OrderID string             `json:"order_id"`
	From    statemachine.State `json:"from"`
	To      statemachine.State `json:"to"`
	ActorID string             `json:"actor_id"`
	At      time.Time          `json:"at"`
}

// DefaultTransitions is the order lifecycle used when no policy file
// overrides it.
func DefaultTransitions() *statemachine.TransitionMap {
	return statemachine.NewBuilder().
		From(StatusPending).To(StatusApproved, StatusRejected, StatusCancelled).
		From(StatusApproved).To(StatusInProgress, StatusCancelled).
		From(StatusInProgress).To(StatusSubmitted, StatusCancelled).
		From(StatusSubmitted).To(StatusInReview).
		From(StatusInReview).To(StatusCompleted, StatusRevisionRequested).
		From(StatusRevisionRequested).To(StatusInProgress).
		Terminal(StatusRejected, StatusCompleted, StatusCancelled).
		MustBuild()
}
