package creative_agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/numaras/salesagent-sub000/internal/models"
)

var (
	// ErrFormatNotFound means the agent answered but does not offer the format
	ErrFormatNotFound = errors.New("format not found")
	// ErrAgentUnreachable means the catalog fetch itself failed. Callers
	// should treat it as retryable.
	ErrAgentUnreachable = errors.New("creative agent unreachable")
)

// IsRetryable reports whether err is a transient agent failure
func IsRetryable(err error) bool {
	return errors.Is(err, ErrAgentUnreachable)
}

// Registry resolves formats from creative agents through a FormatCache
type Registry struct {
	client AgentClient
	cache  FormatCache
}

func NewRegistry(client AgentClient, cache FormatCache) *Registry {
	return &Registry{client: client, cache: cache}
}

// Client returns the underlying agent client
func (r *Registry) Client() AgentClient {
	return r.client
}

// ListFormats returns the agent's catalog, fetching the whole catalog once
// on a cache miss
func (r *Registry) ListFormats(ctx context.Context, agentURL string) ([]models.Format, error) {
	if formats, ok := r.cache.Get(ctx, agentURL); ok {
		return formats, nil
	}

	formats, err := r.client.ListFormats(ctx, agentURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAgentUnreachable, agentURL, err)
	}
	r.cache.Set(ctx, agentURL, formats)

	logrus.WithFields(logrus.Fields{
		"agent_url": agentURL,
		"formats":   len(formats),
	}).Debug("Fetched creative agent format catalog")
	return formats, nil
}

// Refresh refetches an agent's catalog regardless of what is cached
func (r *Registry) Refresh(ctx context.Context, agentURL string) ([]models.Format, error) {
	formats, err := r.client.ListFormats(ctx, agentURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAgentUnreachable, agentURL, err)
	}
	r.cache.Set(ctx, agentURL, formats)
	return formats, nil
}

// GetFormat looks one format up in its agent's catalog
func (r *Registry) GetFormat(ctx context.Context, fid models.FormatID) (*models.Format, error) {
	formats, err := r.ListFormats(ctx, fid.AgentURL)
	if err != nil {
		return nil, err
	}
	return findFormat(formats, fid)
}

func findFormat(formats []models.Format, fid models.FormatID) (*models.Format, error) {
	for i := range formats {
		if formats[i].FormatID.ID == fid.ID {
			f := formats[i]
			return &f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s at %s", ErrFormatNotFound, fid.ID, fid.AgentURL)
}

type catalogEntry struct {
	formats []models.Format
	err     error
}

// Catalog is the set of format catalogs fetched for one sync batch. Each
// agent is fetched at most once per batch regardless of how many creatives
// reference it.
type Catalog struct {
	entries map[string]catalogEntry
}

// Prefetch loads the catalog of every HTTP agent referenced by fids.
// Fetch failures are kept and reported per creative by Resolve.
func (r *Registry) Prefetch(ctx context.Context, fids []models.FormatID) *Catalog {
	c := &Catalog{entries: make(map[string]catalogEntry)}
	for _, fid := range fids {
		if !fid.IsHTTPAgent() {
			continue
		}
		key := NormalizeAgentURL(fid.AgentURL)
		if _, done := c.entries[key]; done {
			continue
		}
		formats, err := r.ListFormats(ctx, fid.AgentURL)
		c.entries[key] = catalogEntry{formats: formats, err: err}
	}
	return c
}

// Resolve validates fid against the prefetched catalogs. Formats hosted by
// non-HTTP agents (adapter pseudo formats such as broadstreet://default)
// are not validated here and resolve to nil.
func (c *Catalog) Resolve(fid models.FormatID) (*models.Format, error) {
	if !fid.IsHTTPAgent() {
		return nil, nil
	}
	e, ok := c.entries[NormalizeAgentURL(fid.AgentURL)]
	if !ok {
		return nil, fmt.Errorf("%w: %s: catalog was not fetched", ErrAgentUnreachable, fid.AgentURL)
	}
	if e.err != nil {
		return nil, e.err
	}
	return findFormat(e.formats, fid)
}

// Validator confirms a declared format exists at its agent
type Validator struct {
	registry        *Registry
	defaultAgentURL string
}

func NewValidator(registry *Registry, defaultAgentURL string) *Validator {
	return &Validator{registry: registry, defaultAgentURL: defaultAgentURL}
}

// Registry returns the registry backing the validator
func (v *Validator) Registry() *Registry {
	return v.registry
}

// Qualify fills in the default creative agent for bare format strings
func (v *Validator) Qualify(fid models.FormatID) models.FormatID {
	if strings.TrimSpace(fid.AgentURL) == "" {
		fid.AgentURL = v.defaultAgentURL
	}
	return fid
}

// Validate checks a single format without a batch catalog
func (v *Validator) Validate(ctx context.Context, fid models.FormatID) (*models.Format, error) {
	fid = v.Qualify(fid)
	if !fid.IsHTTPAgent() {
		return nil, nil
	}
	return v.registry.GetFormat(ctx, fid)
}
