package rbac

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Authorizer answers permission checks for roles. It is immutable after
// construction and safe for concurrent use.
type Authorizer struct {
	// permissions holds direct and inherited permissions per role.
	permissions map[string][]string
	// depth is the inheritance depth per role; base roles are 0.
	depth map[string]int
	// sorted lists roles base first.
	sorted []string
}

// NewAuthorizer loads roles from source and precomputes inherited permissions.
func NewAuthorizer(ctx context.Context, source RoleSource) (*Authorizer, error) {
	roles, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}

	a := &Authorizer{
		permissions: make(map[string][]string, len(roles)),
		depth:       make(map[string]int, len(roles)),
	}
	for name := range roles {
		d, err := roleDepth(name, roles, nil)
		if err != nil {
			return nil, err
		}
		a.depth[name] = d
		a.permissions[name] = normalize(collect(name, roles, map[string]bool{}))
		a.sorted = append(a.sorted, name)
	}
	slices.SortFunc(a.sorted, func(x, y string) int {
		if a.depth[x] != a.depth[y] {
			return a.depth[x] - a.depth[y]
		}
		if x < y {
			return -1
		}
		if x > y {
			return 1
		}
		return 0
	})
	return a, nil
}

// MustNewAuthorizer is like NewAuthorizer but panics on error.
func MustNewAuthorizer(ctx context.Context, source RoleSource) *Authorizer {
	a, err := NewAuthorizer(ctx, source)
	if err != nil {
		panic(err)
	}
	return a
}

// Can checks if a role has the permission, directly or inherited.
func (a *Authorizer) Can(role, permission string) error {
	granted, ok := a.permissions[role]
	if !ok {
		return ErrInvalidRole
	}
	if !hasPermission(granted, permission) {
		return ErrInsufficientPermissions
	}
	return nil
}

// CanAny checks if a role has any of the permissions.
func (a *Authorizer) CanAny(role string, permissions ...string) error {
	if len(permissions) == 0 {
		return nil
	}
	granted, ok := a.permissions[role]
	if !ok {
		return ErrInvalidRole
	}
	for _, p := range permissions {
		if hasPermission(granted, p) {
			return nil
		}
	}
	return ErrInsufficientPermissions
}

// CanFromContext checks the role stored in ctx.
func (a *Authorizer) CanFromContext(ctx context.Context, permission string) error {
	role, ok := RoleFromContext(ctx)
	if !ok {
		return errors.Join(ErrRoleNotInContext, ErrInsufficientPermissions)
	}
	return a.Can(role, permission)
}

// AtLeast reports whether role sits at or above min in the inheritance chain.
func (a *Authorizer) AtLeast(role, min string) (bool, error) {
	rd, ok := a.depth[role]
	if !ok {
		return false, ErrInvalidRole
	}
	md, ok := a.depth[min]
	if !ok {
		return false, ErrInvalidRole
	}
	return rd >= md, nil
}

// VerifyRole returns ErrInvalidRole for unknown roles.
func (a *Authorizer) VerifyRole(role string) error {
	if _, ok := a.permissions[role]; !ok {
		return ErrInvalidRole
	}
	return nil
}

// Roles returns all role names, base roles first.
func (a *Authorizer) Roles() []string {
	return slices.Clone(a.sorted)
}

func collect(name string, roles map[string]Role, visited map[string]bool) []string {
	if visited[name] {
		return nil
	}
	visited[name] = true

	role, ok := roles[name]
	if !ok {
		return nil
	}
	out := slices.Clone(role.Permissions)
	for _, parent := range role.Inherits {
		out = append(out, collect(parent, roles, visited)...)
	}
	return out
}

// roleDepth returns the longest inheritance chain below name and rejects
// cycles and chains deeper than MaxInheritanceDepth.
func roleDepth(name string, roles map[string]Role, path []string) (int, error) {
	if slices.Contains(path, name) {
		return 0, fmt.Errorf("%w: %v -> %s", ErrCircularInheritance, path, name)
	}
	if len(path) > MaxInheritanceDepth {
		return 0, fmt.Errorf("%w: inheritance deeper than %d", ErrCircularInheritance, MaxInheritanceDepth)
	}

	role, ok := roles[name]
	if !ok {
		return 0, nil
	}
	depth := 0
	for _, parent := range role.Inherits {
		if _, ok := roles[parent]; !ok {
			return 0, fmt.Errorf("%w: %s inherits unknown role %s", ErrInvalidRole, name, parent)
		}
		d, err := roleDepth(parent, roles, append(slices.Clone(path), name))
		if err != nil {
			return 0, err
		}
		depth = max(depth, d+1)
	}
	return depth, nil
}
