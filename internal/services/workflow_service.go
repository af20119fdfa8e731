package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/numaras/salesagent-sub000/internal/database/repository"
	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/services/approval"
	"github.com/numaras/salesagent-sub000/internal/services/notification"
	"github.com/numaras/salesagent-sub000/internal/utils"
)

// Workflow step vocabulary
const (
	StepTypeCreativeApproval = "creative_approval"
	StepTypeMediaBuyUpdate   = "media_buy_update"
	StepOwnerPublisher       = "publisher"
	StepOwnerPrincipal       = "principal"
	ObjectTypeCreative       = "creative"
	ObjectTypeMediaBuy       = "media_buy"
)

// WorkflowService opens workflow steps that track work needing a human and
// notifies publishers about them
type WorkflowService struct {
	store    repository.Store
	notifier notification.Notifier
}

func NewWorkflowService(store repository.Store, notifier notification.Notifier) *WorkflowService {
	return &WorkflowService{store: store, notifier: notifier}
}

// ApprovalBatch is the set of creatives of one sync that need approval
type ApprovalBatch struct {
	Tenant        *models.Tenant
	PrincipalName string
	Mode          approval.Mode
	Creatives     []*models.Creative
	Push          *models.PushNotificationConfig
	Context       map[string]interface{}
}

// CreateCreativeApprovalSteps opens one step and one object mapping per
// creative in a single transaction, under one async context for the whole
// batch. Publishers of require-human tenants are notified afterwards.
func (s *WorkflowService) CreateCreativeApprovalSteps(ctx context.Context, identity *models.Identity, batch *ApprovalBatch) ([]*models.WorkflowStep, error) {
	if identity == nil || identity.PrincipalID == "" {
		return nil, ErrPrincipalRequired
	}
	if len(batch.Creatives) == 0 {
		return nil, nil
	}

	var steps []*models.WorkflowStep
	err := s.store.InTransaction(ctx, func(uow repository.UnitOfWork) error {
		wc, err := uow.Workflows().GetOrCreateContext(ctx, identity.TenantID, identity.PrincipalID)
		if err != nil {
			return fmt.Errorf("failed to get workflow context: %w", err)
		}

		for _, c := range batch.Creatives {
			step := &models.WorkflowStep{
				StepID:      utils.NewID("step"),
				ContextID:   wc.ContextID,
				StepType:    StepTypeCreativeApproval,
				Tool:        "sync_creatives",
				Owner:       StepOwnerPublisher,
				Status:      models.StepStatusRequiresApproval,
				RequestData: creativeApprovalRequestData(identity, batch, c),
				Comments: []models.WorkflowComment{{
					User:      "system",
					Text:      approvalComment(batch.Mode, c),
					Timestamp: time.Now().UTC(),
				}},
			}
			if err := uow.Workflows().CreateStep(ctx, step); err != nil {
				return fmt.Errorf("failed to create workflow step for creative %s: %w", c.CreativeID, err)
			}
			if err := uow.Workflows().CreateMapping(ctx, &models.ObjectWorkflowMapping{
				ObjectType: ObjectTypeCreative,
				ObjectID:   c.CreativeID,
				StepID:     step.StepID,
				Action:     "approval_required",
			}); err != nil {
				return fmt.Errorf("failed to link creative %s to workflow step: %w", c.CreativeID, err)
			}
			steps = append(steps, step)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"tenant_id":    identity.TenantID,
		"principal_id": identity.PrincipalID,
		"steps":        len(steps),
	}).Info("Created creative approval workflow steps")

	if batch.Mode.NotifiesOnSync() && batch.Tenant.SlackWebhookURL != "" {
		s.notifyPendingCreatives(ctx, batch)
	}
	return steps, nil
}

func (s *WorkflowService) notifyPendingCreatives(ctx context.Context, batch *ApprovalBatch) {
	pending := make([]notification.PendingCreative, len(batch.Creatives))
	for i, c := range batch.Creatives {
		pending[i] = notification.PendingCreative{
			CreativeID: c.CreativeID,
			Name:       c.Name,
			Format:     c.Format,
			Status:     c.Status,
		}
	}
	msg := notification.CreativesPendingApproval(batch.Tenant.Name, batch.PrincipalName, pending)
	if err := s.notifier.Notify(ctx, batch.Tenant.SlackWebhookURL, msg); err != nil {
		logrus.WithError(err).WithField("tenant_id", batch.Tenant.TenantID).Warn("Failed to send creative approval notification")
		utils.CaptureError(err, logrus.Fields{"tenant_id": batch.Tenant.TenantID})
	}
}

func approvalComment(mode approval.Mode, c *models.Creative) string {
	switch {
	case c.Status == models.CreativeStatusRejected:
		return fmt.Sprintf("Creative '%s' (%s) was rejected by AI review", c.Name, c.CreativeID)
	case mode == approval.AIPowered:
		return fmt.Sprintf("Creative '%s' (%s) requires human review per AI recommendation", c.Name, c.CreativeID)
	default:
		return fmt.Sprintf("Creative '%s' (%s) requires manual approval", c.Name, c.CreativeID)
	}
}

func creativeApprovalRequestData(identity *models.Identity, batch *ApprovalBatch, c *models.Creative) map[string]interface{} {
	data := map[string]interface{}{
		"creative_id":   c.CreativeID,
		"format":        c.Format,
		"agent_url":     c.AgentURL,
		"name":          c.Name,
		"status":        c.Status,
		"approval_mode": batch.Mode.String(),
		"principal_id":  identity.PrincipalID,
		"protocol":      protocolOf(identity),
	}
	if batch.Push != nil {
		data["push_notification_config"] = batch.Push
	}
	if len(batch.Context) > 0 {
		data["context"] = batch.Context
	}
	return toJSONMap(data)
}

func protocolOf(identity *models.Identity) string {
	if identity.Protocol == "a2a" {
		return "a2a"
	}
	return "mcp"
}

// OpenStep records a standalone workflow step under the principal's async
// context
func (s *WorkflowService) OpenStep(ctx context.Context, repos repository.Repositories, identity *models.Identity,
	stepType, tool, owner, status string, requestData map[string]interface{}, comment string) (*models.WorkflowStep, error) {
	if identity == nil || identity.PrincipalID == "" {
		return nil, ErrPrincipalRequired
	}
	wc, err := repos.Workflows().GetOrCreateContext(ctx, identity.TenantID, identity.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow context: %w", err)
	}

	step := &models.WorkflowStep{
		StepID:      utils.NewID("step"),
		ContextID:   wc.ContextID,
		StepType:    stepType,
		Tool:        tool,
		Owner:       owner,
		Status:      status,
		RequestData: toJSONMap(requestData),
	}
	if comment != "" {
		step.Comments = []models.WorkflowComment{{User: "system", Text: comment, Timestamp: time.Now().UTC()}}
	}
	if err := repos.Workflows().CreateStep(ctx, step); err != nil {
		return nil, fmt.Errorf("failed to create workflow step: %w", err)
	}
	return step, nil
}

// FinishStep moves a step to completed or failed. Failures to record the
// outcome are logged and swallowed so they never mask the primary result.
func (s *WorkflowService) FinishStep(ctx context.Context, step *models.WorkflowStep, response map[string]interface{}, cause error) {
	if step == nil {
		return
	}
	now := time.Now().UTC()
	step.CompletedAt = &now
	step.ResponseData = toJSONMap(response)
	if cause != nil {
		step.Status = models.StepStatusFailed
		step.ErrorMessage = cause.Error()
	} else {
		step.Status = models.StepStatusCompleted
	}

	if err := s.store.Workflows().UpdateStep(ctx, step); err != nil {
		logrus.WithError(err).WithField("step_id", step.StepID).Warn("Failed to record workflow step outcome")
		utils.CaptureError(err, logrus.Fields{"step_id": step.StepID})
	}
}
