package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/numaras/salesagent-sub000/internal/database/repository"
	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/services/rabbitmq"
	"github.com/numaras/salesagent-sub000/internal/utils"
)

// SyncJobMessage is the creative_sync_jobs queue payload
type SyncJobMessage struct {
	SyncID      string `json:"sync_id"`
	TenantID    string `json:"tenant_id"`
	PrincipalID string `json:"principal_id"`
	Protocol    string `json:"protocol"`
}

// SyncJobService runs sync_creatives in the background and records each
// run as a SyncJob. Jobs go through RabbitMQ when it is configured and run
// in a goroutine otherwise.
type SyncJobService struct {
	store    repository.Store
	syncer   *CreativeSyncService
	rabbitMQ *rabbitmq.Service

	wg sync.WaitGroup
}

func NewSyncJobService(store repository.Store, syncer *CreativeSyncService, rabbitMQ *rabbitmq.Service) *SyncJobService {
	return &SyncJobService{store: store, syncer: syncer, rabbitMQ: rabbitMQ}
}

// Enqueue records a pending job for req and hands it to a runner
func (s *SyncJobService) Enqueue(ctx context.Context, identity *models.Identity, req *models.SyncCreativesRequest) (*models.SyncJob, error) {
	if identity == nil || identity.PrincipalID == "" {
		return nil, ErrPrincipalRequired
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sync request: %w", err)
	}

	job := &models.SyncJob{
		SyncID:      utils.NewID("sync"),
		TenantID:    identity.TenantID,
		PrincipalID: identity.PrincipalID,
		SyncType:    "creatives",
		Status:      models.SyncJobStatusPending,
		Request:     payload,
		TriggeredBy: "api",
		StartedAt:   time.Now().UTC(),
	}
	if err := s.store.SyncJobs().Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create sync job: %w", err)
	}

	msg := SyncJobMessage{
		SyncID:      job.SyncID,
		TenantID:    identity.TenantID,
		PrincipalID: identity.PrincipalID,
		Protocol:    identity.Protocol,
	}
	if s.rabbitMQ != nil {
		if err := s.rabbitMQ.PublishJSON(ctx, rabbitmq.QueueCreativeSyncJobs, msg); err != nil {
			s.finish(context.Background(), job, nil, err)
			return nil, fmt.Errorf("failed to queue sync job: %w", err)
		}
	} else {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.Run(context.Background(), msg); err != nil {
				logrus.WithError(err).WithField("sync_id", msg.SyncID).Error("Sync job failed")
			}
		}()
	}

	logrus.WithFields(logrus.Fields{
		"sync_id":   job.SyncID,
		"tenant_id": job.TenantID,
	}).Info("Creative sync job queued")
	return job, nil
}

// Get returns a tenant's sync job
func (s *SyncJobService) Get(ctx context.Context, tenantID, syncID string) (*models.SyncJob, error) {
	return s.store.SyncJobs().GetByID(ctx, tenantID, syncID)
}

// Wait blocks until in-process jobs have finished
func (s *SyncJobService) Wait() {
	s.wg.Wait()
}

// StartRabbitMQConsumer consumes the creative_sync_jobs queue
func (s *SyncJobService) StartRabbitMQConsumer() error {
	return s.rabbitMQ.Consume(rabbitmq.QueueCreativeSyncJobs, func(body []byte) error {
		var msg SyncJobMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal sync job message: %w", err)
		}
		return s.Run(context.Background(), msg)
	})
}

// Run executes one recorded job and stores its outcome
func (s *SyncJobService) Run(ctx context.Context, msg SyncJobMessage) error {
	job, err := s.store.SyncJobs().GetByID(ctx, msg.TenantID, msg.SyncID)
	if err != nil {
		return fmt.Errorf("failed to load sync job %s: %w", msg.SyncID, err)
	}
	job.Status = models.SyncJobStatusRunning
	if err := s.store.SyncJobs().Update(ctx, job); err != nil {
		return fmt.Errorf("failed to mark sync job running: %w", err)
	}

	var req models.SyncCreativesRequest
	if err := json.Unmarshal(job.Request, &req); err != nil {
		s.finish(ctx, job, nil, fmt.Errorf("invalid sync request: %w", err))
		return err
	}

	identity := &models.Identity{TenantID: msg.TenantID, PrincipalID: msg.PrincipalID, Protocol: msg.Protocol}
	resp, err := s.syncer.SyncCreatives(ctx, identity, &req)
	s.finish(ctx, job, resp, err)
	return err
}

func (s *SyncJobService) finish(ctx context.Context, job *models.SyncJob, resp *models.SyncCreativesResponse, cause error) {
	now := time.Now().UTC()
	job.CompletedAt = &now
	if cause != nil {
		job.Status = models.SyncJobStatusFailed
		job.ErrorMessage = cause.Error()
		utils.CaptureError(cause, logrus.Fields{"sync_id": job.SyncID})
	} else {
		job.Status = models.SyncJobStatusCompleted
		summary := toJSONMap(resp.Summary)
		summary["message"] = resp.Message
		summary["assignment_count"] = resp.AssignmentCount
		summary["approval_required_count"] = resp.ApprovalRequiredCount
		job.Summary = summary
	}
	if err := s.store.SyncJobs().Update(ctx, job); err != nil {
		logrus.WithError(err).WithField("sync_id", job.SyncID).Error("Failed to record sync job outcome")
	}
}
