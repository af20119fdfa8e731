package models

import (
	"time"

	"gorm.io/datatypes"
)

// Sync job statuses
const (
	SyncJobStatusPending   = "pending"
	SyncJobStatusRunning   = "running"
	SyncJobStatusCompleted = "completed"
	SyncJobStatusFailed    = "failed"
)

// SyncJob tracks a creative sync executed in the background
type SyncJob struct {
	SyncID      string `json:"sync_id" gorm:"primaryKey;type:varchar(100)"`
	TenantID    string `json:"tenant_id" gorm:"type:varchar(50);not null;index"`
	PrincipalID string `json:"principal_id" gorm:"type:varchar(50);not null"`
	SyncType    string `json:"sync_type" gorm:"type:varchar(50);not null"`
	Status      string `json:"status" gorm:"type:varchar(20);not null;index"`

	// Request holds the serialized SyncCreativesRequest
	Request      datatypes.JSON    `json:"-" gorm:"type:jsonb"`
	Summary      datatypes.JSONMap `json:"summary,omitempty" gorm:"type:jsonb"`
	ErrorMessage string            `json:"error_message,omitempty" gorm:"type:text"`
	TriggeredBy  string            `json:"triggered_by" gorm:"type:varchar(50)"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName specifies the table name for the SyncJob model
func (SyncJob) TableName() string {
	return "sync_jobs"
}

// Review task statuses
const (
	ReviewTaskStatusQueued    = "queued"
	ReviewTaskStatusRunning   = "running"
	ReviewTaskStatusCompleted = "completed"
	ReviewTaskStatusFailed    = "failed"
)

// ReviewTask is an inspectable record of one asynchronous AI creative review
type ReviewTask struct {
	TaskID      string `json:"task_id" gorm:"primaryKey;type:varchar(100)"`
	TenantID    string `json:"tenant_id" gorm:"type:varchar(50);not null;index"`
	PrincipalID string `json:"principal_id" gorm:"type:varchar(50);not null"`
	CreativeID  string `json:"creative_id" gorm:"type:varchar(100);not null;index"`
	Status      string `json:"status" gorm:"type:varchar(20);not null;index"`

	// approved | rejected | pending_review
	Decision   string  `json:"decision,omitempty" gorm:"type:varchar(20)"`
	Reason     string  `json:"reason,omitempty" gorm:"type:text"`
	Confidence float64 `json:"confidence,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName specifies the table name for the ReviewTask model
func (ReviewTask) TableName() string {
	return "review_tasks"
}
