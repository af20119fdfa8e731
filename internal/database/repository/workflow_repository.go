package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/utils"
)

type WorkflowRepository struct {
	db *gorm.DB
}

func NewWorkflowRepository(db *gorm.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// GetOrCreateContext returns the principal's async context, creating it on
// first use
func (r *WorkflowRepository) GetOrCreateContext(ctx context.Context, tenantID, principalID string) (*models.WorkflowContext, error) {
	var wc models.WorkflowContext
	err := r.db.WithContext(ctx).
		Where(models.WorkflowContext{TenantID: tenantID, PrincipalID: principalID}).
		Attrs(models.WorkflowContext{ContextID: utils.NewID("ctx")}).
		FirstOrCreate(&wc).Error
	if err != nil {
		return nil, err
	}
	return &wc, nil
}

// CreateStep creates a new workflow step
func (r *WorkflowRepository) CreateStep(ctx context.Context, step *models.WorkflowStep) error {
	return r.db.WithContext(ctx).Create(step).Error
}

// GetStep retrieves a workflow step by ID
func (r *WorkflowRepository) GetStep(ctx context.Context, stepID string) (*models.WorkflowStep, error) {
	var step models.WorkflowStep
	if err := r.db.WithContext(ctx).First(&step, "step_id = ?", stepID).Error; err != nil {
		return nil, translateError(err)
	}
	return &step, nil
}

// UpdateStep updates a workflow step
func (r *WorkflowRepository) UpdateStep(ctx context.Context, step *models.WorkflowStep) error {
	return r.db.WithContext(ctx).Save(step).Error
}

// ListSteps retrieves the steps of a context, oldest first
func (r *WorkflowRepository) ListSteps(ctx context.Context, contextID string) ([]*models.WorkflowStep, error) {
	var steps []*models.WorkflowStep
	err := r.db.WithContext(ctx).
		Where("context_id = ?", contextID).
		Order("created_at ASC").
		Find(&steps).Error
	return steps, err
}

// CreateMapping links an object to a workflow step
func (r *WorkflowRepository) CreateMapping(ctx context.Context, mapping *models.ObjectWorkflowMapping) error {
	return r.db.WithContext(ctx).Create(mapping).Error
}

// ListMappings retrieves the workflow links of an object
func (r *WorkflowRepository) ListMappings(ctx context.Context, objectType, objectID string) ([]*models.ObjectWorkflowMapping, error) {
	var mappings []*models.ObjectWorkflowMapping
	err := r.db.WithContext(ctx).
		Where("object_type = ? AND object_id = ?", objectType, objectID).
		Order("created_at ASC").
		Find(&mappings).Error
	return mappings, err
}
