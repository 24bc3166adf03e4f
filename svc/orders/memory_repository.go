package orders

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryRepository keeps orders in process memory. Used by tests and local
// development without Postgres.
type MemoryRepository struct {
	mu      sync.RWMutex
	orders  map[string]Order
	history map[string][]StatusChange
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders:  make(map[string]Order),
		history: make(map[string][]StatusChange),
	}
}

func (r *MemoryRepository) Create(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[o.ID]; ok {
		return ErrOrderExists
	}
	r.orders[o.ID] = *o
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &o, nil
}

func (r *MemoryRepository) SetWriter(_ context.Context, id, writerID string, at time.Time, by string) (*Order, error) {
	return r.modify(id, at, by, func(o *Order) { o.WriterID = writerID })
}

func (r *MemoryRepository) MarkDepositPaid(_ context.Context, id string, at time.Time, by string) (*Order, error) {
	return r.modify(id, at, by, func(o *Order) { o.DepositPaid = true })
}

func (r *MemoryRepository) modify(id string, at time.Time, by string, fn func(*Order)) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	fn(&stored)
	stored.UpdatedAt = at
	stored.UpdatedBy = by
	r.orders[id] = stored
	return &stored, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[o.ID]
	if !ok {
		return ErrOrderNotFound
	}
	if stored.State != o.PreviousStatus() {
		return ErrStatusConflict
	}

	stored.State = o.State
	stored.UpdatedAt = o.UpdatedAt
	stored.UpdatedBy = o.UpdatedBy
	r.orders[o.ID] = stored
	r.history[o.ID] = append(r.history[o.ID], StatusChange{
		OrderID: o.ID,
		From:    o.PreviousStatus(),
		To:      o.State,
		ActorID: o.UpdatedBy,
		At:      o.UpdatedAt,
	})
	return nil
}

func (r *MemoryRepository) History(_ context.Context, id string) ([]StatusChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.orders[id]; !ok {
		return nil, ErrOrderNotFound
	}
	return slices.Clone(r.history[id]), nil
}
