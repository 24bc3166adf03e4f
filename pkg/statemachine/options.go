package statemachine

import (
	"fmt"
	"log/slog"
	"time"
)

// Option configures a Machine during construction.
type Option func(*Machine) error

type edge struct {
	from State
	to   State
}

// WithGuard attaches a guard to a single edge. The edge must exist in the
// transition map; otherwise New fails.
func WithGuard(from, to State, guard Guard) Option {
	return func(m *Machine) error {
		if guard == nil {
			return nil
		}
		if !m.transitions.Allows(from, to) {
			return fmt.Errorf("%w: guard on undeclared edge '%s' -> '%s'", ErrInvalidMap, from, to)
		}
		e := edge{from: from, to: to}
		m.edgeGuards[e] = append(m.edgeGuards[e], guard)
		return nil
	}
}

// WithTargetGuard attaches a guard to every edge ending in to.
func WithTargetGuard(to State, guard Guard) Option {
	return func(m *Machine) error {
		if guard == nil {
			return nil
		}
		if !m.transitions.Has(to) {
			return fmt.Errorf("%w: guard on unknown state '%s'", ErrInvalidMap, to)
		}
		m.targetGuards[to] = append(m.targetGuards[to], guard)
		return nil
	}
}

// WithHooks registers observers called after each committed transition, in order.
func WithHooks(hooks ...Hook) Option {
	return func(m *Machine) error {
		for _, h := range hooks {
			if h != nil {
				m.hooks = append(m.hooks, h)
			}
		}
		return nil
	}
}

// WithLogger sets the logger used for rejected and failed transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) error {
		if logger != nil {
			m.logger = logger
		}
		return nil
	}
}

// WithClock overrides the time source used for transition records.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) error {
		if now != nil {
			m.now = now
		}
		return nil
	}
}
