package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/numaras/salesagent-sub000/internal/utils"
)

// Workflow step statuses
const (
	StepStatusPending          = "pending"
	StepStatusInProgress       = "in_progress"
	StepStatusRequiresApproval = "requires_approval"
	StepStatusCompleted        = "completed"
	StepStatusFailed           = "failed"
)

// WorkflowContext is a persistent async context grouping workflow steps for
// one principal
type WorkflowContext struct {
	ContextID   string    `json:"context_id" gorm:"primaryKey;type:varchar(100)"`
	TenantID    string    `json:"tenant_id" gorm:"type:varchar(50);not null;index:idx_contexts_owner,priority:1"`
	PrincipalID string    `json:"principal_id" gorm:"type:varchar(50);not null;index:idx_contexts_owner,priority:2"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for the WorkflowContext model
func (WorkflowContext) TableName() string {
	return "contexts"
}

// WorkflowComment is one entry in a step's comment thread
type WorkflowComment struct {
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// WorkflowStep tracks one unit of work that may need publisher action
type WorkflowStep struct {
	StepID       string                               `json:"step_id" gorm:"primaryKey;type:varchar(100)"`
	ContextID    string                               `json:"context_id" gorm:"type:varchar(100);not null;index"`
	StepType     string                               `json:"step_type" gorm:"type:varchar(50);not null"`
	Tool         string                               `json:"tool_name" gorm:"type:varchar(100)"`
	Owner        string                               `json:"owner" gorm:"type:varchar(20);not null"`
	Status       string                               `json:"status" gorm:"type:varchar(30);not null;index"`
	RequestData  datatypes.JSONMap                    `json:"request_data" gorm:"type:jsonb"`
	ResponseData datatypes.JSONMap                    `json:"response_data,omitempty" gorm:"type:jsonb"`
	Comments     datatypes.JSONSlice[WorkflowComment] `json:"comments,omitempty" gorm:"type:jsonb"`
	ErrorMessage string                               `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt    time.Time                            `json:"created_at"`
	CompletedAt  *time.Time                           `json:"completed_at,omitempty"`
}

// TableName specifies the table name for the WorkflowStep model
func (WorkflowStep) TableName() string {
	return "workflow_steps"
}

// ObjectWorkflowMapping links a domain object to a workflow step. The
// approval-completion webhook dispatcher finds steps through it.
type ObjectWorkflowMapping struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(100)"`
	ObjectType string    `json:"object_type" gorm:"type:varchar(50);not null;index:idx_object_workflow,priority:1"`
	ObjectID   string    `json:"object_id" gorm:"type:varchar(100);not null;index:idx_object_workflow,priority:2"`
	StepID     string    `json:"step_id" gorm:"type:varchar(100);not null;index"`
	Action     string    `json:"action" gorm:"type:varchar(50)"`
	CreatedAt  time.Time `json:"created_at"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (m *ObjectWorkflowMapping) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.NewID("owm")
	}
	return nil
}

// TableName specifies the table name for the ObjectWorkflowMapping model
func (ObjectWorkflowMapping) TableName() string {
	return "object_workflow_mappings"
}
