package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/numaras/salesagent-sub000/internal/database/repository"
	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/services/notification"
	"github.com/numaras/salesagent-sub000/internal/utils"
)

// Processor executes review tasks: it asks the reviewer, applies the
// decision to the creative, records the task outcome and sends the
// publisher notification that ai-powered tenants defer until now.
type Processor struct {
	store    repository.Store
	reviewer Reviewer
	notifier notification.Notifier
}

func NewProcessor(store repository.Store, reviewer Reviewer, notifier notification.Notifier) *Processor {
	return &Processor{store: store, reviewer: reviewer, notifier: notifier}
}

// Process runs one review task
func (p *Processor) Process(ctx context.Context, msg ReviewTaskMessage) error {
	log := logrus.WithFields(logrus.Fields{
		"task_id":     msg.TaskID,
		"tenant_id":   msg.TenantID,
		"creative_id": msg.CreativeID,
	})

	task, err := p.store.ReviewTasks().GetByID(ctx, msg.TaskID)
	if err != nil {
		return fmt.Errorf("failed to load review task: %w", err)
	}
	task.Status = models.ReviewTaskStatusRunning
	if err := p.store.ReviewTasks().Update(ctx, task); err != nil {
		log.WithError(err).Warn("Failed to mark review task running")
	}

	decision, tenant, creative, err := p.review(ctx, msg)
	if err != nil {
		p.fail(ctx, task, err)
		return err
	}

	if decision.Status != models.CreativeStatusPendingReview {
		if err := p.store.Creatives().UpdateStatus(ctx, msg.TenantID, msg.PrincipalID, msg.CreativeID, decision.Status); err != nil {
			err = fmt.Errorf("failed to apply review decision: %w", err)
			p.fail(ctx, task, err)
			return err
		}
	}

	now := time.Now().UTC()
	task.Status = models.ReviewTaskStatusCompleted
	task.Decision = decision.Status
	task.Reason = decision.Reason
	task.Confidence = decision.Confidence
	task.CompletedAt = &now
	if err := p.store.ReviewTasks().Update(ctx, task); err != nil {
		log.WithError(err).Warn("Failed to record review task outcome")
	}

	log.WithField("decision", decision.Status).Info("AI review completed")

	if tenant.SlackWebhookURL != "" {
		msg := notification.CreativeReviewed(creative.CreativeID, creative.Name, decision.Status, decision.Reason, decision.Confidence)
		if err := p.notifier.Notify(ctx, tenant.SlackWebhookURL, msg); err != nil {
			log.WithError(err).Warn("Failed to send review notification")
			utils.CaptureError(err, logrus.Fields{"task_id": task.TaskID})
		}
	}
	return nil
}

func (p *Processor) review(ctx context.Context, msg ReviewTaskMessage) (*Decision, *models.Tenant, *models.Creative, error) {
	tenant, err := p.store.Tenants().GetByID(ctx, msg.TenantID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	creative, err := p.store.Creatives().GetByPrincipal(ctx, msg.TenantID, msg.PrincipalID, msg.CreativeID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load creative: %w", err)
	}
	decision, err := p.reviewer.Review(ctx, tenant, creative)
	if err != nil {
		return nil, nil, nil, err
	}
	return decision, tenant, creative, nil
}

func (p *Processor) fail(ctx context.Context, task *models.ReviewTask, cause error) {
	now := time.Now().UTC()
	task.Status = models.ReviewTaskStatusFailed
	task.Reason = cause.Error()
	task.CompletedAt = &now
	if err := p.store.ReviewTasks().Update(ctx, task); err != nil {
		logrus.WithError(err).WithField("task_id", task.TaskID).Warn("Failed to mark review task failed")
	}
	utils.CaptureError(cause, logrus.Fields{"task_id": task.TaskID})
}
