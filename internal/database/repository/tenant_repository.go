package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/numaras/salesagent-sub000/internal/models"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, tenantID string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, "tenant_id = ?", tenantID).Error; err != nil {
		return nil, translateError(err)
	}
	return &tenant, nil
}

type PrincipalRepository struct {
	db *gorm.DB
}

func NewPrincipalRepository(db *gorm.DB) *PrincipalRepository {
	return &PrincipalRepository{db: db}
}

// GetByID retrieves a principal of a tenant
func (r *PrincipalRepository) GetByID(ctx context.Context, tenantID, principalID string) (*models.Principal, error) {
	var principal models.Principal
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND principal_id = ?", tenantID, principalID).
		First(&principal).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &principal, nil
}
