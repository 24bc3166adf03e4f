package statemachine

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// TransitionMap lists, for every state, the states reachable directly from it.
// It is immutable once constructed and safe for concurrent reads.
//
// The state universe is the set of declared keys plus every referenced target.
// A target that is never declared as a key is terminal.
type TransitionMap struct {
	edges  map[State]map[State]struct{}
	states map[State]struct{}
}

// NewTransitionMap validates def and builds an immutable TransitionMap.
// Self-transitions are allowed only when listed explicitly.
func NewTransitionMap(def map[State][]State) (*TransitionMap, error) {
	if len(def) == 0 {
		return nil, fmt.Errorf("%w: no states declared", ErrInvalidMap)
	}

	tm := &TransitionMap{
		edges:  make(map[State]map[State]struct{}, len(def)),
		states: make(map[State]struct{}, len(def)),
	}

	for from, targets := range def {
		if strings.TrimSpace(string(from)) == "" {
			return nil, fmt.Errorf("%w: empty state name", ErrInvalidMap)
		}
		set := make(map[State]struct{}, len(targets))
		for _, to := range targets {
			if strings.TrimSpace(string(to)) == "" {
				return nil, fmt.Errorf("%w: empty target state in '%s'", ErrInvalidMap, from)
			}
			set[to] = struct{}{}
			tm.states[to] = struct{}{}
		}
		tm.edges[from] = set
		tm.states[from] = struct{}{}
	}

	return tm, nil
}

// MustNewTransitionMap is like NewTransitionMap but panics on invalid input.
// Intended for maps declared in code.
func MustNewTransitionMap(def map[State][]State) *TransitionMap {
	tm, err := NewTransitionMap(def)
	if err != nil {
		panic(fmt.Sprintf("failed to create transition map: %v", err))
	}
	return tm
}

// ParseTransitionMap decodes a YAML document of the form
//
//	pending: [approved, rejected]
//	approved: [in_progress]
//
// into a TransitionMap.
func ParseTransitionMap(data []byte) (*TransitionMap, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMap, err)
	}
	return FromStrings(raw)
}

// FromStrings builds a TransitionMap from plain string keys, as produced by
// configuration decoders.
func FromStrings(raw map[string][]string) (*TransitionMap, error) {
	def := make(map[State][]State, len(raw))
	for from, targets := range raw {
		states := make([]State, 0, len(targets))
		for _, t := range targets {
			states = append(states, State(t))
		}
		def[State(from)] = states
	}
	return NewTransitionMap(def)
}

// Allows reports whether to is directly reachable from from.
// Unknown source states yield false.
func (tm *TransitionMap) Allows(from, to State) bool {
	if tm == nil {
		return false
	}
	targets, ok := tm.edges[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// Has reports whether s belongs to the state universe.
func (tm *TransitionMap) Has(s State) bool {
	if tm == nil {
		return false
	}
	_, ok := tm.states[s]
	return ok
}

// Targets returns the states reachable from from, sorted by name.
func (tm *TransitionMap) Targets(from State) []State {
	if tm == nil {
		return nil
	}
	targets := tm.edges[from]
	out := make([]State, 0, len(targets))
	for s := range targets {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// States returns every known state, sorted by name.
func (tm *TransitionMap) States() []State {
	if tm == nil {
		return nil
	}
	out := make([]State, 0, len(tm.states))
	for s := range tm.states {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// IsTerminal reports whether s has no outgoing transitions.
func (tm *TransitionMap) IsTerminal(s State) bool {
	return tm.Has(s) && len(tm.edges[s]) == 0
}
