package models

import (
	"time"

	"gorm.io/datatypes"
)

// Tenant is a publisher running the sales agent
type Tenant struct {
	TenantID string `json:"tenant_id" gorm:"primaryKey;type:varchar(50)"`
	Name     string `json:"name" gorm:"type:varchar(255);not null"`

	// auto-approve | ai-powered | require-human
	ApprovalMode    string `json:"approval_mode" gorm:"type:varchar(20);not null;default:'require-human'"`
	SlackWebhookURL string `json:"slack_webhook_url,omitempty" gorm:"type:text"`

	// Ad server adapter: mock | google_ad_manager
	AdServer                 string                      `json:"ad_server" gorm:"type:varchar(50);not null;default:'mock'"`
	ManualApprovalRequired   bool                        `json:"manual_approval_required" gorm:"default:false"`
	ManualApprovalOperations datatypes.JSONSlice[string] `json:"manual_approval_operations" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

// Principal is an authenticated buyer (advertiser or agency) within a tenant
type Principal struct {
	TenantID         string            `json:"tenant_id" gorm:"primaryKey;type:varchar(50)"`
	PrincipalID      string            `json:"principal_id" gorm:"primaryKey;type:varchar(50)"`
	Name             string            `json:"name" gorm:"type:varchar(255);not null"`
	PlatformMappings datatypes.JSONMap `json:"platform_mappings,omitempty" gorm:"type:jsonb"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// TableName specifies the table name for the Principal model
func (Principal) TableName() string {
	return "principals"
}

// Identity is the authenticated caller context resolved by the transport
// layer before any core operation runs.
type Identity struct {
	TenantID    string `json:"tenant_id"`
	PrincipalID string `json:"principal_id"`
	// Protocol is "mcp" or "a2a"; webhook payloads are shaped per protocol
	Protocol string `json:"protocol"`
	// DryRun comes from the testing context; no writes are performed
	DryRun bool `json:"dry_run"`
}
