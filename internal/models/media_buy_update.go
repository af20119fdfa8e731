package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Stable error codes returned by update_media_buy
const (
	ErrCodePrincipalNotFound              = "principal_not_found"
	ErrCodeMediaBuyNotFound               = "media_buy_not_found"
	ErrCodeInvalidBudget                  = "invalid_budget"
	ErrCodeBudgetLimitExceeded            = "budget_limit_exceeded"
	ErrCodeBudgetBelowMinimum             = "budget_below_minimum"
	ErrCodeInvalidDateRange               = "invalid_date_range"
	ErrCodePackageNotFound                = "package_not_found"
	ErrCodeCreativesNotFound              = "creatives_not_found"
	ErrCodeInvalidPlacementIDs            = "invalid_placement_ids"
	ErrCodePlacementTargetingNotSupported = "placement_targeting_not_supported"
	ErrCodeAdapterError                   = "adapter_error"
	ErrCodeInternalError                  = "internal_error"
)

// Budget is a campaign budget. Buyers may send a plain number, which is
// read as the total in the buy's currency.
type Budget struct {
	Total    float64  `json:"total"`
	Currency string   `json:"currency,omitempty"`
	DailyCap *float64 `json:"daily_cap,omitempty"`
	Pacing   string   `json:"pacing,omitempty"`
}

// UnmarshalJSON accepts both `5000` and `{"total": 5000, "currency": "USD"}`
func (b *Budget) UnmarshalJSON(data []byte) error {
	var total float64
	if err := json.Unmarshal(data, &total); err == nil {
		*b = Budget{Total: total}
		return nil
	}

	type budgetAlias Budget
	var alias budgetAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("invalid budget: %w", err)
	}
	*b = Budget(alias)
	return nil
}

// CreativeAssignmentUpdate replaces a package's assignment to one creative
type CreativeAssignmentUpdate struct {
	CreativeID   string   `json:"creative_id"`
	Weight       *int     `json:"weight,omitempty"`
	PlacementIDs []string `json:"placement_ids,omitempty"`
}

// PackageUpdate carries the per-package part of an update_media_buy call
type PackageUpdate struct {
	PackageID           string                     `json:"package_id"`
	Paused              *bool                      `json:"paused,omitempty"`
	Budget              *float64                   `json:"budget,omitempty"`
	TargetingOverlay    map[string]interface{}     `json:"targeting_overlay,omitempty"`
	CreativeIDs         []string                   `json:"creative_ids,omitempty"`
	CreativeAssignments []CreativeAssignmentUpdate `json:"creative_assignments,omitempty"`
}

// UpdateMediaBuyRequest is the update_media_buy input. Either MediaBuyID or
// BuyerRef identifies the buy.
type UpdateMediaBuyRequest struct {
	MediaBuyID string                 `json:"media_buy_id,omitempty"`
	BuyerRef   string                 `json:"buyer_ref,omitempty"`
	Paused     *bool                  `json:"paused,omitempty"`
	StartTime  *time.Time             `json:"start_time,omitempty"`
	EndTime    *time.Time             `json:"end_time,omitempty"`
	Budget     *Budget                `json:"budget,omitempty"`
	Packages   []PackageUpdate        `json:"packages,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// AffectedPackage reports what an update did to one package
type AffectedPackage struct {
	PackageID      string                 `json:"package_id"`
	BuyerRef       string                 `json:"buyer_ref,omitempty"`
	ChangesApplied map[string]interface{} `json:"changes_applied"`
}

// Update task statuses
const (
	UpdateStatusCompleted = "completed"
	UpdateStatusSubmitted = "submitted"
	UpdateStatusFailed    = "failed"
)

// UpdateMediaBuyResponse is the update_media_buy result. A non-empty Errors
// list means nothing was applied.
type UpdateMediaBuyResponse struct {
	Status           string                 `json:"status"`
	MediaBuyID       string                 `json:"media_buy_id,omitempty"`
	BuyerRef         string                 `json:"buyer_ref,omitempty"`
	AffectedPackages []AffectedPackage      `json:"affected_packages"`
	Errors           []ErrorDetail          `json:"errors,omitempty"`
	WorkflowStepID   string                 `json:"workflow_step_id,omitempty"`
	Message          string                 `json:"message,omitempty"`
	Context          map[string]interface{} `json:"context,omitempty"`
}

// Success reports whether the update was accepted
func (r *UpdateMediaBuyResponse) Success() bool {
	return len(r.Errors) == 0
}
