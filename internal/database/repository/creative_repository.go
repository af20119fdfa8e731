package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/numaras/salesagent-sub000/internal/models"
)

type CreativeRepository struct {
	db *gorm.DB
}

func NewCreativeRepository(db *gorm.DB) *CreativeRepository {
	return &CreativeRepository{db: db}
}

// GetByPrincipal retrieves a creative owned by the given principal
func (r *CreativeRepository) GetByPrincipal(ctx context.Context, tenantID, principalID, creativeID string) (*models.Creative, error) {
	var creative models.Creative
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND principal_id = ? AND creative_id = ?", tenantID, principalID, creativeID).
		First(&creative).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &creative, nil
}

// ListByCreativeIDs retrieves the principal's creatives among the given IDs
func (r *CreativeRepository) ListByCreativeIDs(ctx context.Context, tenantID, principalID string, creativeIDs []string) ([]*models.Creative, error) {
	var creatives []*models.Creative
	if len(creativeIDs) == 0 {
		return creatives, nil
	}
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND principal_id = ? AND creative_id IN ?", tenantID, principalID, creativeIDs).
		Order("creative_id").
		Find(&creatives).Error
	return creatives, err
}

// Create creates a new creative
func (r *CreativeRepository) Create(ctx context.Context, creative *models.Creative) error {
	return translateError(r.db.WithContext(ctx).Create(creative).Error)
}

// Update updates a creative
func (r *CreativeRepository) Update(ctx context.Context, creative *models.Creative) error {
	return translateError(r.db.WithContext(ctx).Save(creative).Error)
}

// UpdateStatus sets the approval status of a principal's creative
func (r *CreativeRepository) UpdateStatus(ctx context.Context, tenantID, principalID, creativeID, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Creative{}).
		Where("tenant_id = ? AND principal_id = ? AND creative_id = ?", tenantID, principalID, creativeID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Find looks an assignment up by its full identity tuple
func (r *AssignmentRepository) Find(ctx context.Context, tenantID, mediaBuyID, packageID, creativeID string) (*models.CreativeAssignment, error) {
	var assignment models.CreativeAssignment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND media_buy_id = ? AND package_id = ? AND creative_id = ?",
			tenantID, mediaBuyID, packageID, creativeID).
		First(&assignment).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &assignment, nil
}

// Create creates a new assignment
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.CreativeAssignment) error {
	return translateError(r.db.WithContext(ctx).Create(assignment).Error)
}

// Update updates an assignment
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.CreativeAssignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

// ListByMediaBuy retrieves all assignments of a media buy
func (r *AssignmentRepository) ListByMediaBuy(ctx context.Context, tenantID, mediaBuyID string) ([]*models.CreativeAssignment, error) {
	var assignments []*models.CreativeAssignment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND media_buy_id = ?", tenantID, mediaBuyID).
		Order("package_id, creative_id").
		Find(&assignments).Error
	return assignments, err
}

// DeleteByPackageExcept removes a package's assignments to creatives not in keep
func (r *AssignmentRepository) DeleteByPackageExcept(ctx context.Context, tenantID, mediaBuyID, packageID string, keep []string) error {
	q := r.db.WithContext(ctx).
		Where("tenant_id = ? AND media_buy_id = ? AND package_id = ?", tenantID, mediaBuyID, packageID)
	if len(keep) > 0 {
		q = q.Where("creative_id NOT IN ?", keep)
	}
	return q.Delete(&models.CreativeAssignment{}).Error
}
