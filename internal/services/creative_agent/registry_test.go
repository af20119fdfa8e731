package creative_agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numaras/salesagent-sub000/internal/models"
)

type fakeClient struct {
	catalogs map[string][]models.Format
	fail     map[string]error
	calls    map[string]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		catalogs: map[string][]models.Format{},
		fail:     map[string]error{},
		calls:    map[string]int{},
	}
}

func (f *fakeClient) ListFormats(_ context.Context, agentURL string) ([]models.Format, error) {
	key := NormalizeAgentURL(agentURL)
	f.calls[key]++
	if err := f.fail[key]; err != nil {
		return nil, err
	}
	return f.catalogs[key], nil
}

func (f *fakeClient) PreviewCreative(context.Context, string, *PreviewRequest) (*PreviewResult, error) {
	return &PreviewResult{}, nil
}

func (f *fakeClient) BuildCreative(context.Context, string, *BuildRequest) (*BuildResult, error) {
	return &BuildResult{}, nil
}

func TestValidatorDistinguishesMissingFormatFromUnreachableAgent(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	client.catalogs["https://good.example.com"] = []models.Format{{FormatID: models.FormatID{ID: "display_300x250"}}}
	client.fail["https://down.example.com"] = errors.New("dial tcp: connection refused")

	v := NewValidator(NewRegistry(client, NewMemoryFormatCache(time.Hour)), "https://good.example.com")

	f, err := v.Validate(ctx, models.FormatID{ID: "display_300x250"})
	require.NoError(t, err)
	assert.Equal(t, "display_300x250", f.FormatID.ID)

	_, err = v.Validate(ctx, models.FormatID{AgentURL: "https://good.example.com", ID: "video_30s"})
	assert.ErrorIs(t, err, ErrFormatNotFound)
	assert.False(t, IsRetryable(err))

	_, err = v.Validate(ctx, models.FormatID{AgentURL: "https://down.example.com", ID: "display_300x250"})
	assert.ErrorIs(t, err, ErrAgentUnreachable)
	assert.True(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestValidatorSkipsNonHTTPAgents(t *testing.T) {
	client := newFakeClient()
	v := NewValidator(NewRegistry(client, NewMemoryFormatCache(time.Hour)), "https://good.example.com")

	f, err := v.Validate(context.Background(), models.FormatID{AgentURL: "broadstreet://default", ID: "native"})
	assert.NoError(t, err)
	assert.Nil(t, f)
	assert.Empty(t, client.calls)
}

func TestPrefetchFetchesEachAgentOnce(t *testing.T) {
	client := newFakeClient()
	client.catalogs["https://a.example.com"] = []models.Format{{FormatID: models.FormatID{ID: "f1"}}, {FormatID: models.FormatID{ID: "f2"}}}
	reg := NewRegistry(client, NewMemoryFormatCache(time.Hour))

	fids := []models.FormatID{
		{AgentURL: "https://a.example.com", ID: "f1"},
		{AgentURL: "https://a.example.com/", ID: "f2"},
		{AgentURL: "https://a.example.com", ID: "f3"},
		{AgentURL: "broadstreet://default", ID: "native"},
	}
	catalog := reg.Prefetch(context.Background(), fids)
	assert.Equal(t, 1, client.calls["https://a.example.com"])

	_, err := catalog.Resolve(fids[1])
	assert.NoError(t, err)
	_, err = catalog.Resolve(fids[2])
	assert.ErrorIs(t, err, ErrFormatNotFound)
	f, err := catalog.Resolve(fids[3])
	assert.NoError(t, err)
	assert.Nil(t, f)

	// A second batch within the TTL is served from the cache
	reg.Prefetch(context.Background(), fids)
	assert.Equal(t, 1, client.calls["https://a.example.com"])
}

func TestRefreshBypassesCache(t *testing.T) {
	client := newFakeClient()
	client.catalogs["https://creative.example.com"] = []models.Format{{FormatID: models.FormatID{ID: "display_300x250"}}}
	registry := NewRegistry(client, NewMemoryFormatCache(time.Hour))
	ctx := context.Background()

	_, err := registry.ListFormats(ctx, "https://creative.example.com")
	require.NoError(t, err)
	_, err = registry.Refresh(ctx, "https://creative.example.com/")
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls["https://creative.example.com"])

	client.fail["https://creative.example.com"] = errors.New("timeout")
	_, err = registry.Refresh(ctx, "https://creative.example.com")
	assert.True(t, IsRetryable(err))

	// the last good catalog stays cached
	formats, err := registry.ListFormats(ctx, "https://creative.example.com")
	require.NoError(t, err)
	assert.Len(t, formats, 1)
}

func TestCacheWarmerFillsCache(t *testing.T) {
	client := newFakeClient()
	client.catalogs["https://a.example.com"] = []models.Format{{FormatID: models.FormatID{ID: "a"}}}
	client.fail["https://down.example.com"] = errors.New("connection refused")
	cache := NewMemoryFormatCache(time.Hour)
	warmer := NewCacheWarmer(NewRegistry(client, cache), time.Hour, "https://down.example.com", "https://a.example.com")

	warmer.warm()

	formats, ok := cache.Get(context.Background(), "https://a.example.com")
	require.True(t, ok)
	assert.Len(t, formats, 1)
	_, ok = cache.Get(context.Background(), "https://down.example.com")
	assert.False(t, ok)
}
