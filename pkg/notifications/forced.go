package notifications

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ForcedChannels lists, per event key, the channels used regardless of user
// preference. Registration only ever adds channels.
type ForcedChannels struct {
	mu      sync.RWMutex
	byEvent map[string][]string
}

// NewForcedChannels builds the set from a static table, usually loaded from
// the policy file at startup.
func NewForcedChannels(table map[string][]string) (*ForcedChannels, error) {
	f := &ForcedChannels{byEvent: make(map[string][]string, len(table))}
	for eventKey, channels := range table {
		if err := f.Register(eventKey, channels...); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// MustNewForcedChannels is like NewForcedChannels but panics on error.
func MustNewForcedChannels(table map[string][]string) *ForcedChannels {
	f, err := NewForcedChannels(table)
	if err != nil {
		panic(err)
	}
	return f
}

// Register adds channels to eventKey. Already registered channels are kept.
func (f *ForcedChannels) Register(eventKey string, channels ...string) error {
	eventKey = strings.TrimSpace(eventKey)
	if eventKey == "" {
		return ErrEventKeyRequired
	}
	for _, ch := range channels {
		if strings.TrimSpace(ch) == "" {
			return fmt.Errorf("%w: empty channel for event %q", ErrInvalidChannel, eventKey)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.byEvent == nil {
		f.byEvent = make(map[string][]string)
	}
	current := f.byEvent[eventKey]
	for _, ch := range channels {
		ch = strings.TrimSpace(ch)
		if !slices.Contains(current, ch) {
			current = append(current, ch)
		}
	}
	sortStrings(current)
	f.byEvent[eventKey] = current
	return nil
}

// ForcedChannelsFor returns the forced channels of eventKey, or an empty slice.
func (f *ForcedChannels) ForcedChannelsFor(eventKey string) []string {
	if f == nil {
		return []string{}
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	cur := f.byEvent[eventKey]
	out := make([]string, len(cur))
	copy(out, cur)
	return out
}

func sortStrings(s []string) {
	slices.Sort(s)
}
