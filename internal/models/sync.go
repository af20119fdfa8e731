package models

// Sync actions reported per creative
const (
	SyncActionCreated   = "created"
	SyncActionUpdated   = "updated"
	SyncActionUnchanged = "unchanged"
	SyncActionFailed    = "failed"
	SyncActionDeleted   = "deleted"
)

// Assignment validation modes
const (
	ValidationModeStrict  = "strict"
	ValidationModeLenient = "lenient"
)

// CreativeInput is a named generative input with a free-text description
type CreativeInput struct {
	Name               string `json:"name"`
	ContextDescription string `json:"context_description,omitempty"`
}

// CreativeAsset is one buyer-submitted creative in a sync batch
type CreativeAsset struct {
	CreativeID string    `json:"creative_id"`
	Name       string    `json:"name"`
	FormatID   *FormatID `json:"format_id,omitempty"`

	// Assets keyed by asset role (image, message, brief, click_url, ...)
	Assets map[string]map[string]interface{} `json:"assets,omitempty"`
	Inputs []CreativeInput                   `json:"inputs,omitempty"`

	URL         string   `json:"url,omitempty"`
	ClickURL    string   `json:"click_url,omitempty"`
	Width       *int     `json:"width,omitempty"`
	Height      *int     `json:"height,omitempty"`
	Duration    *float64 `json:"duration,omitempty"`
	Snippet     string   `json:"snippet,omitempty"`
	SnippetType string   `json:"snippet_type,omitempty"`

	// Generative build inputs
	PromotedOfferings map[string]interface{} `json:"promoted_offerings,omitempty"`
	ContextID         string                 `json:"context_id,omitempty"`
}

// PushNotificationConfig is the webhook a buyer wants approval outcomes sent to
type PushNotificationConfig struct {
	URL            string                 `json:"url"`
	Token          string                 `json:"token,omitempty"`
	Authentication map[string]interface{} `json:"authentication,omitempty"`
}

// SyncCreativesRequest is the sync_creatives input
type SyncCreativesRequest struct {
	Creatives              []CreativeAsset         `json:"creatives" binding:"required"`
	Assignments            map[string][]string     `json:"assignments,omitempty"`
	CreativeIDs            []string                `json:"creative_ids,omitempty"`
	DeleteMissing          bool                    `json:"delete_missing,omitempty"`
	DryRun                 bool                    `json:"dry_run,omitempty"`
	ValidationMode         string                  `json:"validation_mode,omitempty"`
	PushNotificationConfig *PushNotificationConfig `json:"push_notification_config,omitempty"`
	Context                map[string]interface{}  `json:"context,omitempty"`
}

// SyncCreativeResult is the outcome of one creative in a sync batch
type SyncCreativeResult struct {
	CreativeID       string            `json:"creative_id"`
	Action           string            `json:"action"`
	Status           string            `json:"status,omitempty"`
	Changes          []string          `json:"changes,omitempty"`
	Errors           []string          `json:"errors,omitempty"`
	Warnings         []string          `json:"warnings,omitempty"`
	AssignedTo       []string          `json:"assigned_to,omitempty"`
	AssignmentErrors map[string]string `json:"assignment_errors,omitempty"`
}

// SyncSummary aggregates per-action counts of a sync batch
type SyncSummary struct {
	TotalProcessed int `json:"total_processed"`
	Created        int `json:"created"`
	Updated        int `json:"updated"`
	Unchanged      int `json:"unchanged"`
	Failed         int `json:"failed"`
	Deleted        int `json:"deleted"`
}

// SyncCreativesResponse is the sync_creatives result
type SyncCreativesResponse struct {
	Creatives             []SyncCreativeResult   `json:"creatives"`
	Summary               SyncSummary            `json:"summary"`
	AssignmentCount       int                    `json:"assignment_count"`
	ApprovalRequiredCount int                    `json:"approval_required_count"`
	DryRun                bool                   `json:"dry_run"`
	Message               string                 `json:"message"`
	Context               map[string]interface{} `json:"context,omitempty"`
}

// ErrorDetail is a structured boundary error with a stable code
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
