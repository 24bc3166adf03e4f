package statemachine

import (
	"context"
	"time"
)

// State is the status value stored on a persisted entity.
type State string

func (s State) String() string {
	return string(s)
}

// Entity is anything whose status is governed by a Machine.
// Code outside the Machine must not call SetStatus directly.
type Entity interface {
	Status() State
	SetStatus(State)
}

// Identifiable entities expose an ID that is attached to transition records.
type Identifiable interface {
	EntityID() string
}

// Saver persists an entity after its status changed.
// Implementations should be safe to retry; the Machine itself never retries.
type Saver interface {
	Save(ctx context.Context, entity Entity, changedFields []string) error
}

// SaverFunc adapts a plain function to the Saver interface.
type SaverFunc func(ctx context.Context, entity Entity, changedFields []string) error

func (f SaverFunc) Save(ctx context.Context, entity Entity, changedFields []string) error {
	return f(ctx, entity, changedFields)
}

// Actor identifies who requested a transition. It is passed explicitly on every
// mutating call and ends up in transition records for audit attribution.
type Actor struct {
	ID        string
	Role      string
	WebsiteID string
}

// Guard vetoes a transition by returning an error. Guards run after the
// transition map check and before any mutation.
type Guard func(ctx context.Context, actor Actor, from, to State, entity Entity) error

// Hook observes committed transitions. Hooks run after the save succeeded and
// cannot undo the transition.
type Hook func(ctx context.Context, rec TransitionRecord)

// TransitionRecord describes a committed transition.
type TransitionRecord struct {
	EntityID string
	From     State
	To       State
	Actor    Actor
	At       time.Time
}

// StatusField is the only field reported as changed to the Saver.
const StatusField = "status"
