package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ventia/ventia/internal/observability"
	"github.com/ventia/ventia/internal/sales"
)

// StatsCache holds per-tenant descriptive statistics with time-based expiry.
// Refresh is lazy and blocking: an expired or missing entry is recomputed by
// the requesting call. Concurrent refreshes for the same tenant may each
// recompute; each writer stores a complete entry, so last writer wins.
type StatsCache struct {
	reader sales.StatsReader
	ttl    time.Duration
	topK   int
	clock  func() time.Time

	mu      sync.Mutex
	entries map[string]sales.TenantStats
}

func NewStatsCache(reader sales.StatsReader, ttl time.Duration, topK int) *StatsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if topK <= 0 {
		topK = 5
	}
	return &StatsCache{
		reader:  reader,
		ttl:     ttl,
		topK:    topK,
		clock:   time.Now,
		entries: map[string]sales.TenantStats{},
	}
}

// Get returns a live entry for the tenant, refreshing synchronously when the
// cached one is absent or expired. An expired entry is never returned.
func (c *StatsCache) Get(ctx context.Context, tenantID string) (sales.TenantStats, error) {
	if tenantID == "" {
		return sales.TenantStats{}, fmt.Errorf("tenant id is required")
	}

	now := c.clock()

	c.mu.Lock()
	entry, ok := c.entries[tenantID]
	c.mu.Unlock()
	if ok && now.Sub(entry.CapturedAt) < c.ttl {
		return entry, nil
	}

	fresh, err := c.reader.ReadTenantStats(ctx, tenantID, c.topK)
	if err != nil {
		observability.IncrementStatsCacheRefresh("failure")
		return sales.TenantStats{}, fmt.Errorf("refresh tenant stats: %w", err)
	}
	observability.IncrementStatsCacheRefresh("success")
	fresh.TenantID = tenantID
	fresh.CapturedAt = c.clock()

	c.mu.Lock()
	c.entries[tenantID] = fresh
	c.mu.Unlock()

	return fresh, nil
}
