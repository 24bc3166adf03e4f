package orders

import (
	"context"
	"time"
)

// Repository persists orders and their status history.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)

	// SetWriter stores the order's writer and returns the stored order. It
	// touches no other field, so it cannot undo a concurrent MarkDepositPaid.
	SetWriter(ctx context.Context, id, writerID string, at time.Time, by string) (*Order, error)

	// MarkDepositPaid sets the deposit flag and returns the stored order.
	MarkDepositPaid(ctx context.Context, id string, at time.Time, by string) (*Order, error)

	// UpdateStatus moves o from o.PreviousStatus() to o.State and appends a
	// history row in the same write. It returns ErrStatusConflict when the
	// stored status no longer equals o.PreviousStatus().
	UpdateStatus(ctx context.Context, o *Order) error

	// History lists status changes oldest first.
	History(ctx context.Context, id string) ([]StatusChange, error)
}
