package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numaras/salesagent-sub000/internal/database/memstore"
	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/services/approval"
)

func approvalBatch(mode approval.Mode, creatives ...*models.Creative) *ApprovalBatch {
	return &ApprovalBatch{
		Tenant:        &models.Tenant{TenantID: "t1", Name: "Acme News", SlackWebhookURL: "https://hooks.example.com/t1"},
		PrincipalName: "Buyer One",
		Mode:          mode,
		Creatives:     creatives,
		Push:          &models.PushNotificationConfig{URL: "https://buyer.example.com/webhook"},
	}
}

func pendingCreative(id string) *models.Creative {
	return &models.Creative{TenantID: "t1", PrincipalID: "p1", CreativeID: id, Name: "Creative " + id,
		AgentURL: testAgentURL, Format: "display_300x250", Status: models.CreativeStatusPendingReview}
}

func TestApprovalStepsShareOneContextPerPrincipal(t *testing.T) {
	store := memstore.New()
	notifier := &recordingNotifier{}
	svc := NewWorkflowService(store, notifier)
	ctx := context.Background()
	identity := &models.Identity{TenantID: "t1", PrincipalID: "p1", Protocol: "a2a"}

	first, err := svc.CreateCreativeApprovalSteps(ctx, identity, approvalBatch(approval.RequireHuman, pendingCreative("c1")))
	require.NoError(t, err)
	second, err := svc.CreateCreativeApprovalSteps(ctx, identity, approvalBatch(approval.RequireHuman, pendingCreative("c2")))
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ContextID, second[0].ContextID)
	assert.Equal(t, "a2a", first[0].RequestData["protocol"])
	assert.Contains(t, first[0].RequestData, "push_notification_config")
	assert.Contains(t, first[0].Comments[0].Text, "requires manual approval")
	assert.Len(t, notifier.sent, 2)
}

func TestApprovalStepsNotificationFailureIsSwallowed(t *testing.T) {
	store := memstore.New()
	notifier := &recordingNotifier{err: errors.New("slack down")}
	svc := NewWorkflowService(store, notifier)

	steps, err := svc.CreateCreativeApprovalSteps(context.Background(), &models.Identity{TenantID: "t1", PrincipalID: "p1"},
		approvalBatch(approval.RequireHuman, pendingCreative("c1"), pendingCreative("c2")))
	require.NoError(t, err)
	assert.Len(t, steps, 2)
	assert.Len(t, store.Mappings(), 2)
}

func TestApprovalStepsRequirePrincipal(t *testing.T) {
	svc := NewWorkflowService(memstore.New(), &recordingNotifier{})
	_, err := svc.CreateCreativeApprovalSteps(context.Background(), &models.Identity{TenantID: "t1"},
		approvalBatch(approval.RequireHuman, pendingCreative("c1")))
	assert.ErrorIs(t, err, ErrPrincipalRequired)
}

func TestApprovalComment(t *testing.T) {
	c := pendingCreative("c1")
	assert.Equal(t, "Creative 'Creative c1' (c1) requires manual approval", approvalComment(approval.RequireHuman, c))
	assert.Contains(t, approvalComment(approval.AIPowered, c), "per AI recommendation")

	c.Status = models.CreativeStatusRejected
	assert.Contains(t, approvalComment(approval.AIPowered, c), "was rejected by AI review")
}

func TestFinishStepRecordsOutcome(t *testing.T) {
	store := memstore.New()
	svc := NewWorkflowService(store, &recordingNotifier{})
	ctx := context.Background()
	identity := &models.Identity{TenantID: "t1", PrincipalID: "p1"}

	step, err := svc.OpenStep(ctx, store, identity, StepTypeMediaBuyUpdate, AuditOpUpdateMediaBuy,
		StepOwnerPrincipal, models.StepStatusInProgress, map[string]interface{}{"media_buy_id": "mb1"}, "")
	require.NoError(t, err)

	svc.FinishStep(ctx, step, nil, errors.New("ad server timeout"))

	got, err := store.Workflows().GetStep(ctx, step.StepID)
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusFailed, got.Status)
	assert.Equal(t, "ad server timeout", got.ErrorMessage)
	assert.NotNil(t, got.CompletedAt)
}
