package feature

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryProvider keeps flags in process memory. Flags are usually loaded once
// at startup; SetFlag allows runtime toggles from an admin surface.
type MemoryProvider struct {
	flags map[string]*Flag
	mu    sync.RWMutex
}

// NewMemoryProvider creates a provider seeded with flags.
func NewMemoryProvider(initialFlags ...*Flag) (*MemoryProvider, error) {
	provider := &MemoryProvider{
		flags: make(map[string]*Flag, len(initialFlags)),
	}

	for _, flag := range initialFlags {
		if flag == nil {
			continue
		}
		if err := provider.SetFlag(context.Background(), flag); err != nil {
			return nil, err
		}
	}

	return provider, nil
}

func (m *MemoryProvider) IsEnabled(ctx context.Context, flagName string) (bool, error) {
	m.mu.RLock()
	flag, exists := m.flags[flagName]
	m.mu.RUnlock()

	if !exists {
		return false, ErrFlagNotFound
	}
	if !flag.Enabled {
		return false, nil
	}
	if flag.Strategy == nil {
		return true, nil
	}
	return flag.Strategy.Evaluate(ctx)
}

func (m *MemoryProvider) GetFlag(_ context.Context, flagName string) (*Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, exists := m.flags[flagName]
	if !exists {
		return nil, ErrFlagNotFound
	}
	flagCopy := *flag
	return &flagCopy, nil
}

func (m *MemoryProvider) ListFlags(_ context.Context) ([]*Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flags := make([]*Flag, 0, len(m.flags))
	for _, f := range m.flags {
		flagCopy := *f
		flags = append(flags, &flagCopy)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })
	return flags, nil
}

func (m *MemoryProvider) SetFlag(_ context.Context, flag *Flag) error {
	if flag == nil || strings.TrimSpace(flag.Name) == "" {
		return errors.Join(ErrInvalidFlag, errors.New("flag name cannot be empty"))
	}

	flagCopy := *flag
	if flagCopy.UpdatedAt.IsZero() {
		flagCopy.UpdatedAt = time.Now()
	}

	m.mu.Lock()
	m.flags[flagCopy.Name] = &flagCopy
	m.mu.Unlock()
	return nil
}
