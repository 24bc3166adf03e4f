package counter

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory. It is atomic within a single
// process only and is meant for tests and single-instance development setups.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
}

type entry struct {
	count     int64
	expiresAt time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often expired keys are swept.
// Zero disables the background sweep; expired keys are still ignored on read.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval >= 0 {
			s.cleanupInterval = interval
		}
	}
}

// WithClock overrides the time source. Used by tests to move across windows.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an in-memory store. Call Close to stop the sweeper.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		entries:         make(map[string]*entry),
		now:             time.Now,
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cleanupInterval > 0 {
		go s.cleanupLoop()
	}

	return s
}

func (s *MemoryStore) IncrementIfUnder(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if err := validateIncrement(key, limit, window); err != nil {
		return Decision{}, err
	}
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		e = &entry{expiresAt: now.Add(window)}
		s.entries[key] = e
	}

	ttl := e.expiresAt.Sub(now)
	if e.count >= int64(limit) {
		return Decision{Allowed: false, Count: e.count, ResetIn: ttl}, nil
	}

	e.count++
	return Decision{Allowed: true, Count: e.count, ResetIn: ttl}, nil
}

func (s *MemoryStore) ClaimIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := validateClaim(key, ttl); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}

	s.entries[key] = &entry{count: 1, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *MemoryStore) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Len returns the number of live keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for _, e := range s.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *MemoryStore) Close() error {
	s.cleanupOnce.Do(func() {
		close(s.stopCleanup)
	})
	return nil
}
