package approval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/numaras/salesagent-sub000/internal/models"
)

// Decision is an AI reviewer's verdict on one creative
type Decision struct {
	Status     string
	Reason     string
	Confidence float64
}

// Reviewer decides whether a creative may run
type Reviewer interface {
	Review(ctx context.Context, tenant *models.Tenant, creative *models.Creative) (*Decision, error)
}

type reviewRequest struct {
	TenantID   string                 `json:"tenant_id"`
	CreativeID string                 `json:"creative_id"`
	Name       string                 `json:"name"`
	AgentURL   string                 `json:"agent_url"`
	Format     string                 `json:"format"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

type reviewResponse struct {
	Decision   string  `json:"decision"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// HTTPReviewer calls an external review agent at POST {baseURL}/review
type HTTPReviewer struct {
	httpClient *resty.Client
}

func NewHTTPReviewer(baseURL string, timeout time.Duration) *HTTPReviewer {
	return &HTTPReviewer{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
	}
}

func (r *HTTPReviewer) Review(ctx context.Context, tenant *models.Tenant, creative *models.Creative) (*Decision, error) {
	var out reviewResponse
	resp, err := r.httpClient.R().
		SetContext(ctx).
		SetBody(reviewRequest{
			TenantID:   tenant.TenantID,
			CreativeID: creative.CreativeID,
			Name:       creative.Name,
			AgentURL:   creative.AgentURL,
			Format:     creative.Format,
			Data:       creative.Data,
		}).
		SetResult(&out).
		Post("/review")
	if err != nil {
		return nil, fmt.Errorf("failed to call review agent: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("review agent returned status %d", resp.StatusCode())
	}

	return &Decision{
		Status:     decisionStatus(out.Decision),
		Reason:     out.Reason,
		Confidence: out.Confidence,
	}, nil
}

func decisionStatus(decision string) string {
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case "approve", "approved":
		return models.CreativeStatusApproved
	case "reject", "rejected":
		return models.CreativeStatusRejected
	default:
		return models.CreativeStatusPendingReview
	}
}

// NoopReviewer leaves every creative for a human when no review agent is
// configured
type NoopReviewer struct{}

func (NoopReviewer) Review(context.Context, *models.Tenant, *models.Creative) (*Decision, error) {
	return &Decision{
		Status: models.CreativeStatusPendingReview,
		Reason: "no review agent configured",
	}, nil
}
