// Package rbac maps marketplace roles to permissions.
//
// Roles inherit from each other. DefaultRoles builds the chain
// client < writer < editor < support < admin, where each role holds every
// permission of the roles below it:
//
//	auth := rbac.MustNewAuthorizer(ctx, rbac.NewInMemRoleSource(rbac.DefaultRoles()))
//	if err := auth.Can(actor.Role, rbac.PermOrdersReview); err != nil {
//	    // 403
//	}
//
// Permissions are dot-separated; "orders.*" grants every orders permission
// and "*" grants all. AtLeast compares roles by their position in the chain.
package rbac
