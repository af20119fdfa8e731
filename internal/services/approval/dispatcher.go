package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/numaras/salesagent-sub000/internal/database/repository"
	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/utils"
)

var (
	// ErrQueueFull is returned when the review queue has no free slot
	ErrQueueFull = errors.New("review queue is full")
	// ErrQueueClosed is returned after the queue has been stopped
	ErrQueueClosed = errors.New("review queue is closed")
)

// ReviewTaskMessage is the descriptor handed to review workers
type ReviewTaskMessage struct {
	TaskID      string `json:"task_id"`
	TenantID    string `json:"tenant_id"`
	PrincipalID string `json:"principal_id"`
	CreativeID  string `json:"creative_id"`
}

// TaskQueue hands review tasks to workers without waiting for them
type TaskQueue interface {
	Publish(ctx context.Context, msg ReviewTaskMessage) error
}

// Dispatcher records review tasks and queues them
type Dispatcher struct {
	store repository.Store
	queue TaskQueue
}

func NewDispatcher(store repository.Store, queue TaskQueue) *Dispatcher {
	return &Dispatcher{store: store, queue: queue}
}

// Submit queues an AI review of a persisted creative and returns its task ID.
// The task row is the inspectable record of the review.
func (d *Dispatcher) Submit(ctx context.Context, tenantID, principalID, creativeID string) (string, error) {
	task := &models.ReviewTask{
		TaskID:      utils.NewID("review"),
		TenantID:    tenantID,
		PrincipalID: principalID,
		CreativeID:  creativeID,
		Status:      models.ReviewTaskStatusQueued,
	}
	if err := d.store.ReviewTasks().Create(ctx, task); err != nil {
		return "", fmt.Errorf("failed to record review task: %w", err)
	}

	msg := ReviewTaskMessage{
		TaskID:      task.TaskID,
		TenantID:    tenantID,
		PrincipalID: principalID,
		CreativeID:  creativeID,
	}
	if err := d.queue.Publish(ctx, msg); err != nil {
		task.Status = models.ReviewTaskStatusFailed
		task.Reason = err.Error()
		if uerr := d.store.ReviewTasks().Update(ctx, task); uerr != nil {
			logrus.WithError(uerr).WithField("task_id", task.TaskID).Warn("Failed to mark review task failed")
		}
		return "", fmt.Errorf("failed to queue review task: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"task_id":     task.TaskID,
		"tenant_id":   tenantID,
		"creative_id": creativeID,
	}).Info("AI review task queued")
	return task.TaskID, nil
}
