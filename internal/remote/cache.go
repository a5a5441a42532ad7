package remote

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const DefaultMetadataTTL = 5 * time.Minute

type cachedMetadata struct {
	md        *Metadata
	fetchedAt time.Time
}

// CachingClient wraps a Client and caches successful metadata lookups for a
// fixed TTL. Thumbnail uploads and clip jobs always go to the backend.
type CachingClient struct {
	Client
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]cachedMetadata
}

func NewCachingClient(inner Client, ttl time.Duration, logger *slog.Logger) *CachingClient {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	return &CachingClient{
		Client:  inner,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]cachedMetadata),
	}
}

// FetchMetadata returns a fresh cached entry if one exists, otherwise asks the
// wrapped client. Failures are never cached.
func (c *CachingClient) FetchMetadata(ctx context.Context, platform, sourceID string) (*Metadata, error) {
	key := platform + "/" + sourceID

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		c.logger.Debug("metadata cache hit", "source_id", sourceID)
		return entry.md.clone(), nil
	}

	md, err := c.Client.FetchMetadata(ctx, platform, sourceID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cachedMetadata{md: md.clone(), fetchedAt: c.now()}
	c.mu.Unlock()
	return md, nil
}

// Invalidate drops every cached entry.
func (c *CachingClient) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cachedMetadata)
	c.mu.Unlock()
}

func (c *CachingClient) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
