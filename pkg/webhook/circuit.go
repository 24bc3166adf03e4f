package webhook

import (
	"sync"
	"time"
)

// breaker opens after threshold consecutive failures and lets a single probe
// through once cooldown has passed.
type breaker struct {
	mu        sync.Mutex
	failures  int
	openUntil time.Time
	probing   bool
}

func (b *breaker) allow(now time.Time, threshold int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < threshold {
		return true
	}
	if now.Before(b.openUntil) || b.probing {
		return false
	}
	b.probing = true
	return true
}

func (b *breaker) record(ok bool, now time.Time, threshold int, cooldown time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if ok {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= threshold {
		b.openUntil = now.Add(cooldown)
	}
}

// breakers tracks one breaker per endpoint host.
type breakers struct {
	mu        sync.Mutex
	byHost    map[string]*breaker
	threshold int
	cooldown  time.Duration
}

func newBreakers(threshold int, cooldown time.Duration) *breakers {
	return &breakers{
		byHost:    make(map[string]*breaker),
		threshold: threshold,
		cooldown:  cooldown,
	}
}

func (bs *breakers) get(host string) *breaker {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	b, ok := bs.byHost[host]
	if !ok {
		b = &breaker{}
		bs.byHost[host] = b
	}
	return b
}
