package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/numaras/salesagent-sub000/internal/utils"
)

// AuditLog records one operation performed on behalf of a principal
type AuditLog struct {
	// Primary key
	ID string `json:"id" gorm:"primaryKey;type:varchar(100)"`

	TenantID      string `json:"tenant_id" gorm:"type:varchar(50);not null;index"`
	PrincipalID   string `json:"principal_id,omitempty" gorm:"type:varchar(50);index"`
	PrincipalName string `json:"principal_name,omitempty" gorm:"type:varchar(255)"`

	// "AdCP.sync_creatives", "sync_creatives", "update_media_buy"
	Operation string `json:"operation" gorm:"type:varchar(100);not null;index"`
	Success   bool   `json:"success"`

	ErrorMessage string            `json:"error_message,omitempty" gorm:"type:text"`
	Details      datatypes.JSONMap `json:"details,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (l *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = utils.NewID("audit")
	}
	return nil
}

// TableName specifies the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
