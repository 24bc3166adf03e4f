// Package orders implements the order lifecycle of the marketplace on top of
// pkg/statemachine.
//
// Statuses flow pending → approved → in_progress → submitted → in_review →
// completed, with rejected, cancelled and revision_requested branches (see
// DefaultTransitions). Who may move an order where is enforced by guards built
// from the rbac role hierarchy:
//
//   - approve, reject, review and complete need orders.review;
//   - starting work needs an assigned writer and a paid deposit, and the
//     actor must be that writer or a reviewer;
//   - submitting needs orders.work and the actor must be the assigned writer;
//   - cancelling is open to the client who placed the order or to anyone
//     with orders.manage.
//
// Service.Transition is rate limited per user through the order_transition
// scope and notifies the other parties with an order.status_changed event.
// ApproveAndStart sequences approve and start as two explicit transitions.
//
// PostgresRepository writes status updates conditionally on the previous
// status, so of two concurrent transitions of one order only one succeeds; the
// other gets ErrStatusConflict. Schema migrations are embedded in Migrations.
package orders
