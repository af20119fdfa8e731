package creative_agent

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numaras/salesagent-sub000/internal/models"
)

func sampleFormats() []models.Format {
	return []models.Format{
		{FormatID: models.FormatID{AgentURL: "https://creative.example.com", ID: "display_300x250"}, Name: "Medium Rectangle"},
	}
}

func TestNormalizeAgentURL(t *testing.T) {
	assert.Equal(t, "https://x.com", NormalizeAgentURL("https://x.com/"))
	assert.Equal(t, "https://x.com", NormalizeAgentURL("https://X.com"))
	assert.Equal(t, "https://x.com/mcp", NormalizeAgentURL("https://x.com/mcp/"))
	assert.Equal(t, "https://x.com/a", NormalizeAgentURL(" https://x.com/a?debug=1 "))
	assert.Equal(t, "broadstreet://default", NormalizeAgentURL("broadstreet://default/"))
}

func TestMemoryFormatCacheSharesTrailingSlashEntry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryFormatCache(time.Hour)
	c.Set(ctx, "https://x.com/", sampleFormats())

	got, ok := c.Get(ctx, "https://x.com")
	require.True(t, ok)
	assert.Len(t, got, 1)
	assert.Len(t, c.entries, 1)
}

func TestMemoryFormatCacheExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryFormatCache(time.Hour)
	c.now = func() time.Time { return now }

	c.Set(ctx, "https://x.com", sampleFormats())

	now = now.Add(59 * time.Minute)
	_, ok := c.Get(ctx, "https://x.com")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get(ctx, "https://x.com")
	assert.False(t, ok)
}

func TestRedisFormatCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisFormatCache(client, time.Hour)

	_, ok := c.Get(ctx, "https://x.com")
	assert.False(t, ok)

	c.Set(ctx, "https://x.com/", sampleFormats())
	assert.True(t, mr.Exists("salesagent:formats:https://x.com"))

	got, ok := c.Get(ctx, "https://x.com")
	require.True(t, ok)
	assert.Equal(t, "display_300x250", got[0].FormatID.ID)

	mr.FastForward(61 * time.Minute)
	_, ok = c.Get(ctx, "https://x.com")
	assert.False(t, ok)
}

func TestRedisFormatCacheDiscardsGarbage(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisFormatCache(client, time.Hour)

	require.NoError(t, mr.Set("salesagent:formats:https://x.com", "not json"))
	_, ok := c.Get(ctx, "https://x.com")
	assert.False(t, ok)
}
