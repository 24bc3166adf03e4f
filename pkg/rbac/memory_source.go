package rbac

import (
	"context"
	"slices"
)

// RoleSource provides role definitions.
type RoleSource interface {
	Load(ctx context.Context) (map[string]Role, error)
}

type inMemRoleSource struct {
	roles map[string]Role
}

// NewInMemRoleSource returns a source holding a deep copy of roles.
func NewInMemRoleSource(roles map[string]Role) RoleSource {
	cp := make(map[string]Role, len(roles))
	for name, r := range roles {
		cp[name] = Role{
			Permissions: slices.Clone(r.Permissions),
			Inherits:    slices.Clone(r.Inherits),
		}
	}
	return &inMemRoleSource{roles: cp}
}

func (s *inMemRoleSource) Load(context.Context) (map[string]Role, error) {
	return s.roles, nil
}
