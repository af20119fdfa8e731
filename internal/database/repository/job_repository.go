package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/numaras/salesagent-sub000/internal/models"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create creates a new audit log entry
func (r *AuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByTenant retrieves a page of a tenant's audit entries, newest first,
// with the total count
func (r *AuditLogRepository) ListByTenant(ctx context.Context, tenantID string, offset, limit int) ([]*models.AuditLog, int64, error) {
	var entries []*models.AuditLog
	var total int64

	q := r.db.WithContext(ctx).Model(&models.AuditLog{}).Where("tenant_id = ?", tenantID).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&entries).Error
	return entries, total, err
}

type SyncJobRepository struct {
	db *gorm.DB
}

func NewSyncJobRepository(db *gorm.DB) *SyncJobRepository {
	return &SyncJobRepository{db: db}
}

// Create creates a new sync job
func (r *SyncJobRepository) Create(ctx context.Context, job *models.SyncJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// Update updates a sync job
func (r *SyncJobRepository) Update(ctx context.Context, job *models.SyncJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// GetByID retrieves a tenant's sync job
func (r *SyncJobRepository) GetByID(ctx context.Context, tenantID, syncID string) (*models.SyncJob, error) {
	var job models.SyncJob
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sync_id = ?", tenantID, syncID).
		First(&job).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &job, nil
}

type ReviewTaskRepository struct {
	db *gorm.DB
}

func NewReviewTaskRepository(db *gorm.DB) *ReviewTaskRepository {
	return &ReviewTaskRepository{db: db}
}

// Create creates a new review task
func (r *ReviewTaskRepository) Create(ctx context.Context, task *models.ReviewTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// Update updates a review task
func (r *ReviewTaskRepository) Update(ctx context.Context, task *models.ReviewTask) error {
	return r.db.WithContext(ctx).Save(task).Error
}

// GetByID retrieves a review task by ID
func (r *ReviewTaskRepository) GetByID(ctx context.Context, taskID string) (*models.ReviewTask, error) {
	var task models.ReviewTask
	if err := r.db.WithContext(ctx).First(&task, "task_id = ?", taskID).Error; err != nil {
		return nil, translateError(err)
	}
	return &task, nil
}
