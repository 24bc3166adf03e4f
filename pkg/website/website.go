package website

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Website is a branded tenant of the marketplace. Most records carry its ID.
type Website struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Provider loads websites by id or domain.
type Provider interface {
	// GetByIdentifier returns ErrWebsiteNotFound if nothing matches.
	GetByIdentifier(ctx context.Context, identifier string) (*Website, error)
}

// MemoryProvider is a static Provider, typically filled from configuration.
type MemoryProvider struct {
	mu       sync.RWMutex
	byID     map[string]*Website
	byDomain map[string]*Website
}

// NewMemoryProvider creates a provider holding sites.
func NewMemoryProvider(sites ...Website) *MemoryProvider {
	p := &MemoryProvider{
		byID:     make(map[string]*Website, len(sites)),
		byDomain: make(map[string]*Website, len(sites)),
	}
	for _, s := range sites {
		p.Add(s)
	}
	return p
}

// Add registers or replaces a website.
func (p *MemoryProvider) Add(site Website) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := site
	p.byID[s.ID] = &s
	if s.Domain != "" {
		p.byDomain[strings.ToLower(s.Domain)] = &s
	}
}

func (p *MemoryProvider) GetByIdentifier(_ context.Context, identifier string) (*Website, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.byID[identifier]
	if !ok {
		s, ok = p.byDomain[strings.ToLower(identifier)]
	}
	if !ok {
		return nil, ErrWebsiteNotFound
	}
	cp := *s
	return &cp, nil
}
