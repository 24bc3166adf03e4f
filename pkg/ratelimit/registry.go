package ratelimit

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the rate limit rules of the process. It is built at startup
// and read concurrently while serving. Registration is append-only.
type Registry struct {
	mu        sync.RWMutex
	byScope   map[string]Rule
	exact     map[string]string // normalized path -> scope
	templates []templateRule
}

type templateRule struct {
	tpl   pathTemplate
	scope string
	order int
}

// NewRegistry creates a registry with the given rules.
func NewRegistry(rules ...Rule) (*Registry, error) {
	r := &Registry{
		byScope: make(map[string]Rule, len(rules)),
		exact:   make(map[string]string),
	}
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on invalid rules.
func MustNewRegistry(rules ...Rule) *Registry {
	r, err := NewRegistry(rules...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds a rule. Scopes and paths must be unique.
func (r *Registry) Register(rule Rule) error {
	rule, err := rule.normalize()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byScope[rule.Scope]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateScope, rule.Scope)
	}

	if rule.Path != "" {
		path := normalizePath(rule.Path)
		tpl := parseTemplate(path)
		if tpl.wildcardN == 0 {
			if owner, ok := r.exact[path]; ok {
				return fmt.Errorf("%w: %s already bound to %s", ErrDuplicatePath, path, owner)
			}
			r.exact[path] = rule.Scope
		} else {
			for _, t := range r.templates {
				if t.tpl.raw == tpl.raw {
					return fmt.Errorf("%w: %s already bound to %s", ErrDuplicatePath, path, t.scope)
				}
			}
			r.templates = append(r.templates, templateRule{tpl: tpl, scope: rule.Scope, order: len(r.templates)})
			// Fewest wildcards first, then declaration order.
			sort.SliceStable(r.templates, func(i, j int) bool {
				if r.templates[i].tpl.wildcardN != r.templates[j].tpl.wildcardN {
					return r.templates[i].tpl.wildcardN < r.templates[j].tpl.wildcardN
				}
				return r.templates[i].order < r.templates[j].order
			})
		}
	}

	r.byScope[rule.Scope] = rule
	return nil
}

// RuleFor returns the rule bound to path. Exact paths win over templates and
// templates match whole segments only.
func (r *Registry) RuleFor(path string) (Rule, bool) {
	if r == nil {
		return Rule{}, false
	}

	path = normalizePath(path)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if scope, ok := r.exact[path]; ok {
		return r.byScope[scope], true
	}

	segs := splitPath(path)
	for _, t := range r.templates {
		if t.tpl.match(segs) {
			return r.byScope[t.scope], true
		}
	}
	return Rule{}, false
}

// RuleForScope returns the rule registered for scope.
func (r *Registry) RuleForScope(scope string) (Rule, bool) {
	if r == nil {
		return Rule{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.byScope[scope]
	return rule, ok
}

// Rules returns all registered rules sorted by scope.
func (r *Registry) Rules() []Rule {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rules := make([]Rule, 0, len(r.byScope))
	for _, rule := range r.byScope {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Scope < rules[j].Scope })
	return rules
}
