package notifications

import (
	"context"
	"fmt"
)

// Deliverer sends a notification through one channel. Implementations make
// a single attempt; retries belong to the transport.
type Deliverer interface {
	Deliver(ctx context.Context, notif Notification) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, notif Notification) error

func (f DelivererFunc) Deliver(ctx context.Context, notif Notification) error {
	return f(ctx, notif)
}

// NoOpDeliverer accepts every notification. Used for channels whose transport
// is disabled in the current environment.
type NoOpDeliverer struct{}

func (NoOpDeliverer) Deliver(context.Context, Notification) error {
	return nil
}

// InAppDeliverer stores notifications in the user's inbox.
type InAppDeliverer struct {
	storage Storage
}

// NewInAppDeliverer creates an in-app deliverer backed by storage.
func NewInAppDeliverer(storage Storage) *InAppDeliverer {
	return &InAppDeliverer{storage: storage}
}

func (d *InAppDeliverer) Deliver(ctx context.Context, notif Notification) error {
	if err := d.storage.Create(ctx, notif); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}
