package approval

import (
	"strings"

	"github.com/numaras/salesagent-sub000/internal/models"
)

// Mode is a tenant's creative approval policy
type Mode int

const (
	// RequireHuman holds every creative for a publisher decision
	RequireHuman Mode = iota
	// AutoApprove approves creatives as soon as they are synced
	AutoApprove
	// AIPowered holds creatives while an AI reviewer decides
	AIPowered
)

// ParseMode maps a tenant's approval_mode column to a Mode. Unknown or empty
// values fall back to RequireHuman.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto-approve":
		return AutoApprove
	case "ai-powered":
		return AIPowered
	default:
		return RequireHuman
	}
}

func (m Mode) String() string {
	switch m {
	case AutoApprove:
		return "auto-approve"
	case AIPowered:
		return "ai-powered"
	default:
		return "require-human"
	}
}

// Transition is the outcome of running a creative through the approval
// state machine
type Transition struct {
	Status string
	// NeedsApproval asks the caller to open a workflow step
	NeedsApproval bool
	// SubmitReview asks the caller to queue an AI review once the creative
	// row is persisted
	SubmitReview bool
}

// Transition computes the status a freshly synced creative moves to
func (m Mode) Transition() Transition {
	switch m {
	case AutoApprove:
		return Transition{Status: models.CreativeStatusApproved}
	case AIPowered:
		return Transition{Status: models.CreativeStatusPendingReview, NeedsApproval: true, SubmitReview: true}
	case RequireHuman:
		return Transition{Status: models.CreativeStatusPendingReview, NeedsApproval: true}
	default:
		panic("approval: unhandled mode")
	}
}

// NotifiesOnSync reports whether publishers are notified as soon as a sync
// opens workflow steps. AI-powered tenants are notified after the review
// finishes so the message can carry the reviewer's reasoning.
func (m Mode) NotifiesOnSync() bool {
	return m == RequireHuman
}
