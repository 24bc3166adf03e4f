package orders

import (
	"context"
	"errors"

	"github.com/scribeworks/ordergate/pkg/rbac"
	"github.com/scribeworks/ordergate/pkg/statemachine"
)

// guards returns the target guards enforcing who may move an order where.
// States this package does not know about require orders.manage.
func guards(tm *statemachine.TransitionMap, authz *rbac.Authorizer) []statemachine.Option {
	review := requirePermission(authz, rbac.PermOrdersReview)
	byTarget := map[statemachine.State]statemachine.Guard{
		StatusApproved:          review,
		StatusRejected:          review,
		StatusInReview:          review,
		StatusRevisionRequested: review,
		StatusCompleted:         review,
		StatusInProgress:        startGuard(authz),
		StatusSubmitted:         submitGuard(authz),
		StatusCancelled:         cancelGuard(authz),
	}

	var opts []statemachine.Option
	for _, s := range tm.States() {
		g, ok := byTarget[s]
		if !ok {
			g = requirePermission(authz, rbac.PermOrdersManage)
		}
		opts = append(opts, statemachine.WithTargetGuard(s, g))
	}
	return opts
}

func requirePermission(authz *rbac.Authorizer, perm string) statemachine.Guard {
	return func(_ context.Context, actor statemachine.Actor, _, _ statemachine.State, _ statemachine.Entity) error {
		return authz.Can(actor.Role, perm)
	}
}

// startGuard lets the assigned writer, or a reviewer on their behalf, start
// work once a writer is assigned and the deposit is paid.
func startGuard(authz *rbac.Authorizer) statemachine.Guard {
	return func(_ context.Context, actor statemachine.Actor, _, _ statemachine.State, e statemachine.Entity) error {
		o, ok := e.(*Order)
		if !ok {
			return ErrUnexpectedEntity
		}
		if o.WriterID == "" {
			return ErrWriterNotAssigned
		}
		if !o.DepositPaid {
			return ErrDepositRequired
		}
		if authz.Can(actor.Role, rbac.PermOrdersReview) == nil {
			return nil
		}
		if err := authz.Can(actor.Role, rbac.PermOrdersWork); err != nil {
			return err
		}
		if actor.ID != o.WriterID {
			return ErrNotAssignedWriter
		}
		return nil
	}
}

func submitGuard(authz *rbac.Authorizer) statemachine.Guard {
	return func(_ context.Context, actor statemachine.Actor, _, _ statemachine.State, e statemachine.Entity) error {
		o, ok := e.(*Order)
		if !ok {
			return ErrUnexpectedEntity
		}
		if err := authz.Can(actor.Role, rbac.PermOrdersWork); err != nil {
			return err
		}
		if actor.ID != o.WriterID {
			return ErrNotAssignedWriter
		}
		return nil
	}
}

// cancelGuard allows the owning client or anyone who manages orders.
func cancelGuard(authz *rbac.Authorizer) statemachine.Guard {
	return func(_ context.Context, actor statemachine.Actor, _, _ statemachine.State, e statemachine.Entity) error {
		o, ok := e.(*Order)
		if !ok {
			return ErrUnexpectedEntity
		}
		if authz.Can(actor.Role, rbac.PermOrdersManage) == nil {
			return nil
		}
		if err := authz.Can(actor.Role, rbac.PermOrdersCancelOwn); err != nil {
			return err
		}
		if actor.ID != o.ClientID {
			return errors.Join(rbac.ErrInsufficientPermissions, ErrNotOwner)
		}
		return nil
	}
}
