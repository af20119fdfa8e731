package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/numaras/salesagent-sub000/internal/database/memstore"
	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/services/creative_agent"
	"github.com/numaras/salesagent-sub000/internal/services/notification"
)

const testAgentURL = "https://creative.example.com"

type fakeAgent struct {
	mu         sync.Mutex
	formats    map[string][]models.Format
	listErr    map[string]error
	previewErr map[string]error
	noPreviews bool
	build      *creative_agent.BuildResult

	previews     int
	builds       int
	lastBuildReq *creative_agent.BuildRequest
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{
		formats: map[string][]models.Format{
			testAgentURL: {
				{FormatID: models.FormatID{AgentURL: testAgentURL, ID: "display_300x250"}, Name: "Medium Rectangle"},
				{FormatID: models.FormatID{AgentURL: testAgentURL, ID: "display_728x90"}, Name: "Leaderboard"},
				{
					FormatID:        models.FormatID{AgentURL: testAgentURL, ID: "gen_banner"},
					Name:            "Generated Banner",
					OutputFormatIDs: []models.FormatID{{AgentURL: testAgentURL, ID: "display_300x250"}},
				},
			},
		},
		listErr:    map[string]error{},
		previewErr: map[string]error{},
	}
}

func (a *fakeAgent) ListFormats(_ context.Context, agentURL string) ([]models.Format, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.listErr[agentURL]; err != nil {
		return nil, err
	}
	return a.formats[agentURL], nil
}

func (a *fakeAgent) PreviewCreative(_ context.Context, _ string, req *creative_agent.PreviewRequest) (*creative_agent.PreviewResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.previews++
	id, _ := req.CreativeManifest["creative_id"].(string)
	if err := a.previewErr[id]; err != nil {
		return nil, err
	}
	if a.noPreviews {
		return &creative_agent.PreviewResult{}, nil
	}
	return &creative_agent.PreviewResult{
		Previews: []creative_agent.Preview{{
			PreviewID: "prev_" + id,
			Renders: []creative_agent.Render{{
				RenderID:   "r1",
				PreviewURL: "https://preview.example.com/" + id + ".png",
				Role:       "primary",
				Dimensions: &creative_agent.Dimensions{Width: 300, Height: 250},
			}},
		}},
	}, nil
}

func (a *fakeAgent) BuildCreative(_ context.Context, _ string, req *creative_agent.BuildRequest) (*creative_agent.BuildResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.builds++
	a.lastBuildReq = req
	if a.build != nil {
		return a.build, nil
	}
	return &creative_agent.BuildResult{
		Status:    "completed",
		ContextID: "build_ctx_1",
		CreativeOutput: map[string]interface{}{
			"url": "https://generated.example.com/banner.png",
		},
	}, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.Message
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, _ string, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

type recordingReviews struct {
	mu        sync.Mutex
	submitted []string
	err       error
}

func (r *recordingReviews) Submit(_ context.Context, _, _, creativeID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.submitted = append(r.submitted, creativeID)
	return "review_" + creativeID, nil
}

type syncFixture struct {
	store    *memstore.Store
	agent    *fakeAgent
	notifier *recordingNotifier
	reviews  *recordingReviews
	svc      *CreativeSyncService
	identity *models.Identity
}

func newSyncFixture(t *testing.T, approvalMode string) *syncFixture {
	t.Helper()

	store := memstore.New()
	store.PutTenant(models.Tenant{
		TenantID:        "t1",
		Name:            "Acme News",
		ApprovalMode:    approvalMode,
		SlackWebhookURL: "https://hooks.example.com/t1",
		AdServer:        "mock",
	})
	store.PutPrincipal(models.Principal{TenantID: "t1", PrincipalID: "p1", Name: "Buyer One"})
	store.PutPrincipal(models.Principal{TenantID: "t1", PrincipalID: "p2", Name: "Buyer Two"})

	agent := newFakeAgent()
	registry := creative_agent.NewRegistry(agent, creative_agent.NewMemoryFormatCache(time.Hour))
	validator := creative_agent.NewValidator(registry, testAgentURL)
	notifier := &recordingNotifier{}
	reviews := &recordingReviews{}

	svc := NewCreativeSyncService(
		store,
		validator,
		NewCreativeProcessor(validator, "test-gemini-key"),
		NewAssignmentService(store),
		NewWorkflowService(store, notifier),
		NewAuditService(store),
		reviews,
	)

	return &syncFixture{
		store:    store,
		agent:    agent,
		notifier: notifier,
		reviews:  reviews,
		svc:      svc,
		identity: &models.Identity{TenantID: "t1", PrincipalID: "p1", Protocol: "mcp"},
	}
}

func bareFormat(id string) *models.FormatID {
	return &models.FormatID{ID: id}
}

func displayCreative(id, name string) models.CreativeAsset {
	return models.CreativeAsset{
		CreativeID: id,
		Name:       name,
		FormatID:   bareFormat("display_300x250"),
		URL:        "https://cdn.example.com/" + id + ".png",
		ClickURL:   "https://brand.example.com/landing",
	}
}

var errAgentDown = errors.New("connection refused")
