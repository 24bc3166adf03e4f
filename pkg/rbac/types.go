package rbac

// MaxInheritanceDepth bounds role inheritance chains.
const MaxInheritanceDepth = 10

// Marketplace roles, lowest first.
const (
	RoleClient  = "client"
	RoleWriter  = "writer"
	RoleEditor  = "editor"
	RoleSupport = "support"
	RoleAdmin   = "admin"
)

// Order permissions.
const (
	PermOrdersRead      = "orders.read"
	PermOrdersCreate    = "orders.create"
	PermOrdersCancelOwn = "orders.cancel_own"
	PermOrdersWork      = "orders.work"
	PermOrdersReview    = "orders.review"
	PermOrdersManage    = "orders.manage"
)

// Role is a set of permissions with optional inheritance. Permissions are
// dot-separated and may end in a wildcard, e.g. "orders.*" or "*".
type Role struct {
	Permissions []string `yaml:"permissions"`
	Inherits    []string `yaml:"inherits"`
}

// DefaultRoles is the client < writer < editor < support < admin hierarchy.
// Each role inherits everything below it.
func DefaultRoles() map[string]Role {
	return map[string]Role{
		RoleClient: {
			Permissions: []string{PermOrdersRead, PermOrdersCreate, PermOrdersCancelOwn},
		},
		RoleWriter: {
			Permissions: []string{PermOrdersWork},
			Inherits:    []string{RoleClient},
		},
		RoleEditor: {
			Permissions: []string{PermOrdersReview},
			Inherits:    []string{RoleWriter},
		},
		RoleSupport: {
			Permissions: []string{PermOrdersManage},
			Inherits:    []string{RoleEditor},
		},
		RoleAdmin: {
			Permissions: []string{"*"},
			Inherits:    []string{RoleSupport},
		},
	}
}
