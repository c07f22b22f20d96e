// Package cache keeps recently computed channel statistics so dashboard reads do
// not aggregate over every video on each request.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/metrics"
	"github.com/videotube/backend/internal/models"
)

// StatsCache stores channel statistics keyed by channel id.
type StatsCache interface {
	Get(ctx context.Context, channelID string) (models.ChannelStats, bool, error)
	Set(ctx context.Context, channelID string, stats models.ChannelStats) error
}

// StatsSource computes channel statistics on a cache miss.
type StatsSource interface {
	ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error)
}

type memoryEntry struct {
	stats   models.ChannelStats
	expires time.Time
}

// MemoryStatsCache is a TTL cache held in process memory.
type MemoryStatsCache struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	items map[string]memoryEntry
}

// NewMemoryStatsCache returns a cache whose entries expire after ttl.
func NewMemoryStatsCache(ttl time.Duration) *MemoryStatsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &MemoryStatsCache{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]memoryEntry),
	}
}

// WithNowFunc allows tests to override the time source.
func (c *MemoryStatsCache) WithNowFunc(now func() time.Time) *MemoryStatsCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

func (c *MemoryStatsCache) Get(_ context.Context, channelID string) (models.ChannelStats, bool, error) {
	c.mu.RLock()
	entry, ok := c.items[channelID]
	now := c.now()
	c.mu.RUnlock()
	if !ok || !now.Before(entry.expires) {
		return models.ChannelStats{}, false, nil
	}
	return entry.stats, true, nil
}

func (c *MemoryStatsCache) Set(_ context.Context, channelID string, stats models.ChannelStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.items[channelID] = memoryEntry{stats: stats, expires: now.Add(c.ttl)}
	for key, entry := range c.items {
		if !now.Before(entry.expires) {
			delete(c.items, key)
		}
	}
	return nil
}

// CachedDashboard serves channel statistics from a StatsCache, falling back to the
// source on a miss. Cache failures degrade to a direct read.
type CachedDashboard struct {
	source StatsSource
	cache  StatsCache
}

// NewCachedDashboard wraps source with cache.
func NewCachedDashboard(source StatsSource, cache StatsCache) *CachedDashboard {
	return &CachedDashboard{source: source, cache: cache}
}

func (d *CachedDashboard) ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error) {
	logger := logging.FromContext(ctx)

	stats, ok, err := d.cache.Get(ctx, channelID)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		logger.Warn("stats cache lookup failed", slog.String("channel_id", channelID), slog.Any("error", err))
	case ok:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return stats, nil
	default:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	stats, err = d.source.ChannelStats(ctx, channelID)
	if err != nil {
		return models.ChannelStats{}, err
	}

	if err := d.cache.Set(ctx, channelID, stats); err != nil {
		logger.Warn("stats cache store failed", slog.String("channel_id", channelID), slog.Any("error", err))
	}
	return stats, nil
}
