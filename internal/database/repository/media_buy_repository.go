package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/numaras/salesagent-sub000/internal/models"
)

type MediaBuyRepository struct {
	db *gorm.DB
}

func NewMediaBuyRepository(db *gorm.DB) *MediaBuyRepository {
	return &MediaBuyRepository{db: db}
}

// GetByID retrieves a tenant's media buy
func (r *MediaBuyRepository) GetByID(ctx context.Context, tenantID, mediaBuyID string) (*models.MediaBuy, error) {
	var buy models.MediaBuy
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND media_buy_id = ?", tenantID, mediaBuyID).
		First(&buy).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &buy, nil
}

// GetByBuyerRef resolves a media buy from the buyer's own reference
func (r *MediaBuyRepository) GetByBuyerRef(ctx context.Context, tenantID, principalID, buyerRef string) (*models.MediaBuy, error) {
	var buy models.MediaBuy
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND principal_id = ? AND buyer_ref = ?", tenantID, principalID, buyerRef).
		First(&buy).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &buy, nil
}

// Update updates a media buy
func (r *MediaBuyRepository) Update(ctx context.Context, buy *models.MediaBuy) error {
	return r.db.WithContext(ctx).Save(buy).Error
}

// UpdateStatus sets the status of a tenant's media buy
func (r *MediaBuyRepository) UpdateStatus(ctx context.Context, tenantID, mediaBuyID, status string) error {
	return r.db.WithContext(ctx).Model(&models.MediaBuy{}).
		Where("tenant_id = ? AND media_buy_id = ?", tenantID, mediaBuyID).
		Update("status", status).Error
}

// FindPackage resolves a package joined against its media buy
func (r *MediaBuyRepository) FindPackage(ctx context.Context, tenantID, packageID string) (*models.MediaPackage, *models.MediaBuy, error) {
	var pkg models.MediaPackage
	err := r.db.WithContext(ctx).
		Joins("JOIN media_buys ON media_buys.media_buy_id = media_packages.media_buy_id").
		Where("media_packages.package_id = ? AND media_buys.tenant_id = ?", packageID, tenantID).
		First(&pkg).Error
	if err != nil {
		return nil, nil, translateError(err)
	}

	buy, err := r.GetByID(ctx, tenantID, pkg.MediaBuyID)
	if err != nil {
		return nil, nil, err
	}
	return &pkg, buy, nil
}

// GetPackage retrieves one package of a media buy
func (r *MediaBuyRepository) GetPackage(ctx context.Context, mediaBuyID, packageID string) (*models.MediaPackage, error) {
	var pkg models.MediaPackage
	err := r.db.WithContext(ctx).
		Where("media_buy_id = ? AND package_id = ?", mediaBuyID, packageID).
		First(&pkg).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &pkg, nil
}

// ListPackages retrieves all packages of a media buy
func (r *MediaBuyRepository) ListPackages(ctx context.Context, mediaBuyID string) ([]*models.MediaPackage, error) {
	var pkgs []*models.MediaPackage
	err := r.db.WithContext(ctx).
		Where("media_buy_id = ?", mediaBuyID).
		Order("package_id").
		Find(&pkgs).Error
	return pkgs, err
}

// UpdatePackage updates a package
func (r *MediaBuyRepository) UpdatePackage(ctx context.Context, pkg *models.MediaPackage) error {
	return r.db.WithContext(ctx).Save(pkg).Error
}

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByID retrieves a tenant's product
func (r *ProductRepository) GetByID(ctx context.Context, tenantID, productID string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		First(&product).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

type CurrencyLimitRepository struct {
	db *gorm.DB
}

func NewCurrencyLimitRepository(db *gorm.DB) *CurrencyLimitRepository {
	return &CurrencyLimitRepository{db: db}
}

// Get retrieves a tenant's limits for a currency
func (r *CurrencyLimitRepository) Get(ctx context.Context, tenantID, currencyCode string) (*models.CurrencyLimit, error) {
	var limit models.CurrencyLimit
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND currency_code = ?", tenantID, currencyCode).
		First(&limit).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &limit, nil
}
