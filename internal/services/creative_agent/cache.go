package creative_agent

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/numaras/salesagent-sub000/internal/models"
)

// FormatCache stores creative agent format catalogs keyed by normalized
// agent URL. Entries expire after a fixed TTL; there is no per-entry
// invalidation.
type FormatCache interface {
	Get(ctx context.Context, agentURL string) ([]models.Format, bool)
	Set(ctx context.Context, agentURL string, formats []models.Format)
}

// NormalizeAgentURL reduces an agent URL to scheme://host/path without a
// trailing slash, so "https://x.com" and "https://x.com/" share one entry
func NormalizeAgentURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(raw, "/")
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + strings.TrimSuffix(u.Path, "/")
}

type cacheEntry struct {
	formats   []models.Format
	expiresAt time.Time
}

// MemoryFormatCache is a process-local FormatCache
type MemoryFormatCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func NewMemoryFormatCache(ttl time.Duration) *MemoryFormatCache {
	return &MemoryFormatCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *MemoryFormatCache) Get(_ context.Context, agentURL string) ([]models.Format, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[NormalizeAgentURL(agentURL)]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.formats, true
}

func (c *MemoryFormatCache) Set(_ context.Context, agentURL string, formats []models.Format) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[NormalizeAgentURL(agentURL)] = cacheEntry{
		formats:   formats,
		expiresAt: c.now().Add(c.ttl),
	}
}

// RedisFormatCache shares format catalogs between sales agent replicas
type RedisFormatCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisFormatCache(client *redis.Client, ttl time.Duration) *RedisFormatCache {
	return &RedisFormatCache{
		client: client,
		ttl:    ttl,
		prefix: "salesagent:formats:",
	}
}

func (c *RedisFormatCache) key(agentURL string) string {
	return c.prefix + NormalizeAgentURL(agentURL)
}

func (c *RedisFormatCache) Get(ctx context.Context, agentURL string) ([]models.Format, bool) {
	data, err := c.client.Get(ctx, c.key(agentURL)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logrus.WithError(err).Warn("Format cache read failed")
		}
		return nil, false
	}

	var formats []models.Format
	if err := json.Unmarshal(data, &formats); err != nil {
		logrus.WithError(err).Warn("Discarding unreadable format cache entry")
		return nil, false
	}
	return formats, true
}

func (c *RedisFormatCache) Set(ctx context.Context, agentURL string, formats []models.Format) {
	data, err := json.Marshal(formats)
	if err != nil {
		logrus.WithError(err).Warn("Failed to encode format catalog")
		return
	}
	if err := c.client.Set(ctx, c.key(agentURL), data, c.ttl).Err(); err != nil {
		logrus.WithError(err).Warn("Format cache write failed")
	}
}
