package feature

import (
	"context"
	"time"
)

// Flag is a named on/off switch, optionally narrowed by a Strategy.
type Flag struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Enabled     bool      `json:"enabled"`
	Strategy    Strategy  `json:"-"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// Strategy narrows an enabled flag for a specific request context.
type Strategy interface {
	Evaluate(ctx context.Context) (bool, error)
}

// TenantExtractor returns the website id carried by ctx.
type TenantExtractor func(ctx context.Context) string

// Provider answers flag lookups.
type Provider interface {
	// IsEnabled reports whether flagName is on for ctx.
	// Unknown flags return false and ErrFlagNotFound.
	IsEnabled(ctx context.Context, flagName string) (bool, error)

	// GetFlag returns a copy of the flag configuration.
	GetFlag(ctx context.Context, flagName string) (*Flag, error)

	// ListFlags returns all flags sorted by name.
	ListFlags(ctx context.Context) ([]*Flag, error)

	// SetFlag creates or replaces a flag.
	SetFlag(ctx context.Context, flag *Flag) error
}
