package creative_agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/numaras/salesagent-sub000/internal/config"
	"github.com/numaras/salesagent-sub000/internal/models"
)

// AgentClient talks to AdCP creative agents
type AgentClient interface {
	ListFormats(ctx context.Context, agentURL string) ([]models.Format, error)
	PreviewCreative(ctx context.Context, agentURL string, req *PreviewRequest) (*PreviewResult, error)
	BuildCreative(ctx context.Context, agentURL string, req *BuildRequest) (*BuildResult, error)
}

// PreviewRequest asks an agent to render a static creative manifest
type PreviewRequest struct {
	FormatID         models.FormatID        `json:"format_id"`
	CreativeManifest map[string]interface{} `json:"creative_manifest"`
}

// Dimensions of one render
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Render is one rendered view of a preview
type Render struct {
	RenderID   string      `json:"render_id,omitempty"`
	PreviewURL string      `json:"preview_url,omitempty"`
	Role       string      `json:"role,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
}

// Preview is one preview variant returned by the agent
type Preview struct {
	PreviewID string   `json:"preview_id,omitempty"`
	Renders   []Render `json:"renders"`
}

type PreviewResult struct {
	Previews       []Preview `json:"previews"`
	InteractiveURL string    `json:"interactive_url,omitempty"`
	ExpiresAt      string    `json:"expires_at,omitempty"`
}

// BuildRequest asks an agent to generate a creative from a brief
type BuildRequest struct {
	Message           string                 `json:"message"`
	TargetFormatID    models.FormatID        `json:"target_format_id"`
	PromotedOfferings map[string]interface{} `json:"promoted_offerings,omitempty"`
	ContextID         string                 `json:"context_id,omitempty"`
}

type BuildResult struct {
	Status         string                 `json:"status,omitempty"`
	Message        string                 `json:"message,omitempty"`
	ContextID      string                 `json:"context_id,omitempty"`
	CreativeOutput map[string]interface{} `json:"creative_output,omitempty"`
}

type listFormatsResponse struct {
	Formats []models.Format `json:"formats"`
}

// HTTPClient is an AgentClient over the agents' JSON HTTP endpoints. Each
// agent gets its own circuit breaker so one dead agent does not slow down
// syncs against healthy ones.
type HTTPClient struct {
	httpClient   *resty.Client
	routes       map[string]string
	geminiAPIKey string

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewHTTPClient creates a creative agent client
func NewHTTPClient(cfg *config.CreativeAgentConfig) *HTTPClient {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPClient{
		httpClient:   client,
		routes:       cfg.Routes,
		geminiAPIKey: cfg.GeminiAPIKey,
		breakers:     make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (c *HTTPClient) breaker(agentURL string) *gobreaker.CircuitBreaker {
	key := NormalizeAgentURL(agentURL)

	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[key]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        key,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"agent_url": name,
				"from":      from.String(),
				"to":        to.String(),
			}).Warn("Creative agent circuit breaker state change")
		},
	})
	c.breakers[key] = cb
	return cb
}

func (c *HTTPClient) post(ctx context.Context, agentURL, route string, body, result interface{}) error {
	path, ok := c.routes[route]
	if !ok {
		return fmt.Errorf("unknown creative agent route %q", route)
	}
	url := NormalizeAgentURL(agentURL) + path

	_, err := c.breaker(agentURL).Execute(func() (interface{}, error) {
		req := c.httpClient.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(result)
		if route == "build_creative" && c.geminiAPIKey != "" {
			req.SetHeader("X-Gemini-Api-Key", c.geminiAPIKey)
		}

		resp, err := req.Post(url)
		if err != nil {
			return nil, fmt.Errorf("failed to call %s: %w", url, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("%s returned status %d: %s", url, resp.StatusCode(), truncate(resp.String(), 200))
		}
		return nil, nil
	})
	return err
}

// ListFormats fetches the agent's full format catalog
func (c *HTTPClient) ListFormats(ctx context.Context, agentURL string) ([]models.Format, error) {
	var out listFormatsResponse
	if err := c.post(ctx, agentURL, "list_creative_formats", map[string]interface{}{}, &out); err != nil {
		return nil, err
	}

	// Agents may omit agent_url on their own formats
	for i := range out.Formats {
		if out.Formats[i].FormatID.AgentURL == "" {
			out.Formats[i].FormatID.AgentURL = agentURL
		}
	}
	return out.Formats, nil
}

// PreviewCreative renders a static creative manifest
func (c *HTTPClient) PreviewCreative(ctx context.Context, agentURL string, req *PreviewRequest) (*PreviewResult, error) {
	var out PreviewResult
	if err := c.post(ctx, agentURL, "preview_creative", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BuildCreative generates a creative from a brief
func (c *HTTPClient) BuildCreative(ctx context.Context, agentURL string, req *BuildRequest) (*BuildResult, error) {
	var out BuildResult
	if err := c.post(ctx, agentURL, "build_creative", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
