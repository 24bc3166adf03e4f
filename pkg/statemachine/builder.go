package statemachine

// Builder provides a fluent API for declaring a TransitionMap in code.
type Builder struct {
	def     map[State][]State
	current State
}

// NewBuilder creates an empty transition map builder.
func NewBuilder() *Builder {
	return &Builder{
		def: make(map[State][]State),
	}
}

// From selects the source state for subsequent To calls.
// Declaring a state without targets marks it terminal.
func (b *Builder) From(state State) *Builder {
	b.current = state
	if _, ok := b.def[state]; !ok {
		b.def[state] = nil
	}
	return b
}

// To adds targets reachable from the state selected with From.
func (b *Builder) To(states ...State) *Builder {
	b.def[b.current] = append(b.def[b.current], states...)
	return b
}

// Terminal declares states with no outgoing transitions.
func (b *Builder) Terminal(states ...State) *Builder {
	for _, s := range states {
		if _, ok := b.def[s]; !ok {
			b.def[s] = nil
		}
	}
	return b
}

// Build validates the declarations and returns the TransitionMap.
func (b *Builder) Build() (*TransitionMap, error) {
	return NewTransitionMap(b.def)
}

// MustBuild is like Build but panics on invalid declarations.
func (b *Builder) MustBuild() *TransitionMap {
	return MustNewTransitionMap(b.def)
}
