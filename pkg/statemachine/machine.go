package statemachine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scribeworks/ordergate/pkg/logger"
)

// Machine validates and applies status transitions against a TransitionMap.
// It holds no per-entity state: all configuration is fixed by New, so a single
// Machine can be shared by concurrent request handlers.
type Machine struct {
	transitions  *TransitionMap
	saver        Saver
	edgeGuards   map[edge][]Guard
	targetGuards map[State][]Guard
	hooks        []Hook
	logger       *slog.Logger
	now          func() time.Time
}

// New creates a Machine over the given transition map, persisting through saver.
func New(transitions *TransitionMap, saver Saver, opts ...Option) (*Machine, error) {
	if transitions == nil {
		return nil, fmt.Errorf("%w: transition map is required", ErrInvalidMap)
	}
	if saver == nil {
		return nil, ErrSaverRequired
	}

	m := &Machine{
		transitions:  transitions,
		saver:        saver,
		edgeGuards:   make(map[edge][]Guard),
		targetGuards: make(map[State][]Guard),
		logger:       slog.Default(),
		now:          time.Now,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// MustNew is like New but panics on error. Misconfigured state machines must
// prevent startup rather than surface at request time.
func MustNew(transitions *TransitionMap, saver Saver, opts ...Option) *Machine {
	m, err := New(transitions, saver, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// Map returns the transition map the machine enforces.
func (m *Machine) Map() *TransitionMap {
	return m.transitions
}

// CanTransition reports whether target is reachable from current.
// It has no side effects and ignores guards.
func (m *Machine) CanTransition(current, target State) bool {
	return m.transitions.Allows(current, target)
}

// Transition moves entity to target. On rejection the entity is left untouched
// and nothing is written. On success the entity is saved exactly once and hooks
// are notified. A failed save restores the previous status.
func (m *Machine) Transition(ctx context.Context, actor Actor, entity Entity, target State) (Entity, error) {
	if entity == nil {
		return nil, ErrNilEntity
	}

	from := entity.Status()
	if !m.transitions.Allows(from, target) {
		m.logger.LogAttrs(ctx, slog.LevelDebug, "transition rejected",
			slog.String("from", string(from)),
			slog.String("to", string(target)),
			logger.UserID(actor.ID),
		)
		return nil, NewInvalidTransitionError(from, target)
	}

	if err := m.checkGuards(ctx, actor, from, target, entity); err != nil {
		return nil, err
	}

	entity.SetStatus(target)
	if err := m.saver.Save(ctx, entity, []string{StatusField}); err != nil {
		entity.SetStatus(from)
		m.logger.LogAttrs(ctx, slog.LevelError, "failed to persist transition",
			slog.String("from", string(from)),
			slog.String("to", string(target)),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	rec := TransitionRecord{
		From:  from,
		To:    target,
		Actor: actor,
		At:    m.now(),
	}
	if id, ok := entity.(Identifiable); ok {
		rec.EntityID = id.EntityID()
	}
	for _, h := range m.hooks {
		h(ctx, rec)
	}

	return entity, nil
}

func (m *Machine) checkGuards(ctx context.Context, actor Actor, from, to State, entity Entity) error {
	guards := m.edgeGuards[edge{from: from, to: to}]
	guards = append(guards[:len(guards):len(guards)], m.targetGuards[to]...)
	for _, g := range guards {
		if err := g(ctx, actor, from, to, entity); err != nil {
			return fmt.Errorf("%w: %w", ErrGuardRejected, err)
		}
	}
	return nil
}
