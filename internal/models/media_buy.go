package models

import (
	"time"

	"gorm.io/datatypes"
)

// Media buy statuses
const (
	MediaBuyStatusDraft            = "draft"
	MediaBuyStatusPendingCreatives = "pending_creatives"
	MediaBuyStatusPendingApproval  = "pending_approval"
	MediaBuyStatusApproved         = "approved"
	MediaBuyStatusActive           = "active"
	MediaBuyStatusPaused           = "paused"
	MediaBuyStatusCompleted        = "completed"
)

// MediaBuy represents an advertising campaign order
type MediaBuy struct {
	MediaBuyID  string `json:"media_buy_id" gorm:"primaryKey;type:varchar(100)"`
	TenantID    string `json:"tenant_id" gorm:"type:varchar(50);not null;index"`
	PrincipalID string `json:"principal_id" gorm:"type:varchar(50);not null;index"`
	BuyerRef    string `json:"buyer_ref,omitempty" gorm:"type:varchar(100);index"`
	OrderName   string `json:"order_name" gorm:"type:varchar(255)"`
	Status      string `json:"status" gorm:"type:varchar(30);not null;index;default:'draft'"`

	Budget   float64 `json:"budget"`
	Currency string  `json:"currency" gorm:"type:varchar(3);default:'USD'"`

	StartTime  *time.Time `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
	ApprovedAt *time.Time `json:"approved_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the MediaBuy model
func (MediaBuy) TableName() string {
	return "media_buys"
}

// MediaPackage is a line-item equivalent unit within a media buy
type MediaPackage struct {
	MediaBuyID string `json:"media_buy_id" gorm:"primaryKey;type:varchar(100)"`
	PackageID  string `json:"package_id" gorm:"primaryKey;type:varchar(100);index"`

	// product_id, platform_line_item_id, budget, bid_price, targeting_overlay, paused
	PackageConfig datatypes.JSONMap `json:"package_config" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the MediaPackage model
func (MediaPackage) TableName() string {
	return "media_packages"
}

// ProductID returns the product the package was bought against
func (p *MediaPackage) ProductID() string {
	s, _ := p.PackageConfig["product_id"].(string)
	return s
}

// LineItemID returns the ad server line item backing the package, if any
func (p *MediaPackage) LineItemID() string {
	s, _ := p.PackageConfig["platform_line_item_id"].(string)
	return s
}

// Budget returns the package budget stored in package_config
func (p *MediaPackage) Budget() (float64, bool) {
	return toFloat(p.PackageConfig["budget"])
}

// Product is a sellable inventory product
type Product struct {
	TenantID   string                         `json:"tenant_id" gorm:"primaryKey;type:varchar(50)"`
	ProductID  string                         `json:"product_id" gorm:"primaryKey;type:varchar(100)"`
	Name       string                         `json:"name" gorm:"type:varchar(255);not null"`
	FormatIDs  datatypes.JSONSlice[FormatRef] `json:"format_ids" gorm:"type:jsonb"`
	Placements datatypes.JSONSlice[Placement] `json:"placements" gorm:"type:jsonb"`
	CreatedAt  time.Time                      `json:"created_at"`
	UpdatedAt  time.Time                      `json:"updated_at"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// Placement is an ad-server placement a product can target
type Placement struct {
	PlacementID string `json:"placement_id"`
	Name        string `json:"name,omitempty"`
}

// CurrencyLimit holds per-tenant budget limits for one currency
type CurrencyLimit struct {
	TenantID             string    `json:"tenant_id" gorm:"primaryKey;type:varchar(50)"`
	CurrencyCode         string    `json:"currency_code" gorm:"primaryKey;type:varchar(3)"`
	MinPackageBudget     *float64  `json:"min_package_budget"`
	MaxDailyPackageSpend *float64  `json:"max_daily_package_spend"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName specifies the table name for the CurrencyLimit model
func (CurrencyLimit) TableName() string {
	return "currency_limits"
}
