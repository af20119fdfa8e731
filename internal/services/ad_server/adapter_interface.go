package ad_server

import (
	"context"
	"time"

	"github.com/numaras/salesagent-sub000/internal/models"
)

// Actions understood by every adapter's UpdateMediaBuy
const (
	ActionPauseMediaBuy        = "pause_media_buy"
	ActionResumeMediaBuy       = "resume_media_buy"
	ActionUpdateMediaBuyBudget = "update_media_buy_budget"
	ActionUpdateMediaBuyDates  = "update_media_buy_dates"
	ActionPausePackage         = "pause_package"
	ActionResumePackage        = "resume_package"
	ActionUpdatePackageBudget  = "update_package_budget"
)

// OperationUpdateMediaBuy is the operation name tenants list in
// manual_approval_operations to hold updates for a human
const OperationUpdateMediaBuy = "update_media_buy"

// Update is one change pushed to the ad server
type Update struct {
	MediaBuyID string
	BuyerRef   string
	Action     string

	// Package-level actions only
	PackageID  string
	LineItemID string

	Budget    *float64
	Currency  string
	StartTime *time.Time
	EndTime   *time.Time
}

// Adapter is an ad server the sales agent pushes media buy changes to
type Adapter interface {
	Name() string
	// ManualApprovalRequired and ManualApprovalOperations decide whether an
	// operation is held for a publisher before it reaches the ad server
	ManualApprovalRequired() bool
	ManualApprovalOperations() []string
	UpdateMediaBuy(ctx context.Context, principal *models.Principal, update *Update) error
}

// RequiresApproval reports whether adapter holds operation for manual approval
func RequiresApproval(adapter Adapter, operation string) bool {
	if !adapter.ManualApprovalRequired() {
		return false
	}
	for _, op := range adapter.ManualApprovalOperations() {
		if op == operation {
			return true
		}
	}
	return false
}
