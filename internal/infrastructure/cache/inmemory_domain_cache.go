package cache

import (
	"context"
	"sync"
	"time"

	"github.com/slotbook/backend/internal/domain/identity"
)

type domainEntry struct {
	slug      string
	expiresAt time.Time
}

// InMemoryDomainCache implements identity.CustomDomainCache with a local map.
// It suits single-instance deployments and tests: invalidations made by one
// process are not seen by others until the entry's TTL runs out.
type InMemoryDomainCache struct {
	mu        sync.RWMutex
	entries   map[string]domainEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryDomainCache creates a cache and starts its cleanup goroutine
func NewInMemoryDomainCache() *InMemoryDomainCache {
	c := &InMemoryDomainCache{
		entries:  make(map[string]domainEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get returns the cached slug for domain
func (c *InMemoryDomainCache) Get(_ context.Context, domain string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[domain]
	if !ok || !c.now().Before(e.expiresAt) {
		return "", false, nil
	}
	return e.slug, true, nil
}

// Set caches slug for domain. An empty slug caches a negative result.
func (c *InMemoryDomainCache) Set(_ context.Context, domain, slug string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[domain] = domainEntry{slug: slug, expiresAt: c.now().Add(ttl)}
	return nil
}

// Invalidate drops the entries of the given domains
func (c *InMemoryDomainCache) Invalidate(_ context.Context, domains ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range domains {
		delete(c.entries, d)
	}
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryDomainCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryDomainCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryDomainCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for domain, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, domain)
		}
	}
}

// Size returns the number of entries, expired ones included
func (c *InMemoryDomainCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ identity.CustomDomainCache = (*InMemoryDomainCache)(nil)
