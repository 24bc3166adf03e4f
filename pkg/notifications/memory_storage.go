package notifications

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage for development and tests.
type MemoryStorage struct {
	notifications map[string][]Notification // userID -> notifications
	mu            sync.RWMutex
	now           func() time.Time
}

// MemoryStorageOption configures a MemoryStorage.
type MemoryStorageOption func(*MemoryStorage)

// WithStorageClock overrides the time source used for expiry and read marks.
func WithStorageClock(now func() time.Time) MemoryStorageOption {
	return func(s *MemoryStorage) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStorage creates a new in-memory notification storage.
func NewMemoryStorage(opts ...MemoryStorageOption) *MemoryStorage {
	s := &MemoryStorage{
		notifications: make(map[string][]Notification),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStorage) Create(ctx context.Context, notif Notification) error {
	if notif.ID == "" {
		return ErrIDRequired
	}
	if notif.UserID == "" {
		return ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications[notif.UserID] {
		if n.ID == notif.ID {
			return ErrNotificationExists
		}
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = s.now()
	}
	s.notifications[notif.UserID] = append(s.notifications[notif.UserID], notif)
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, userID, notifID string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.notifications[userID] {
		if n.ID == notifID {
			return &n, nil
		}
	}
	return nil, ErrNotificationNotFound
}

func (s *MemoryStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	filtered := []Notification{}
	for _, n := range s.notifications[userID] {
		switch {
		case n.IsExpired(now):
			continue
		case opts.OnlyUnread && n.Read:
			continue
		case opts.WebsiteID != "" && n.WebsiteID != opts.WebsiteID:
			continue
		case len(opts.EventKeys) > 0 && !slices.Contains(opts.EventKeys, n.EventKey):
			continue
		case opts.Since != nil && n.CreatedAt.Before(*opts.Since):
			continue
		}
		filtered = append(filtered, n)
	}

	slices.SortStableFunc(filtered, func(a, b Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	start := min(opts.Offset, len(filtered))
	end := len(filtered)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	return filtered[start:end], nil
}

func (s *MemoryStorage) MarkRead(ctx context.Context, userID string, notifIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	notifications := s.notifications[userID]
	for i := range notifications {
		if !notifications[i].Read && slices.Contains(notifIDs, notifications[i].ID) {
			notifications[i].MarkAsRead(now)
		}
	}
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, userID string, notifIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications, ok := s.notifications[userID]
	if !ok {
		return nil
	}
	s.notifications[userID] = slices.DeleteFunc(notifications, func(n Notification) bool {
		return slices.Contains(notifIDs, n.ID)
	})
	return nil
}

func (s *MemoryStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	count := 0
	for _, n := range s.notifications[userID] {
		if !n.Read && !n.IsExpired(now) {
			count++
		}
	}
	return count, nil
}
