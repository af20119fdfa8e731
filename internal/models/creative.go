package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/numaras/salesagent-sub000/internal/utils"
)

// Creative lifecycle states
const (
	CreativeStatusProcessing    = "processing"
	CreativeStatusApproved      = "approved"
	CreativeStatusRejected      = "rejected"
	CreativeStatusPendingReview = "pending_review"
)

// Creative represents a buyer-submitted advertising asset owned by a principal
type Creative struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	TenantID    string `json:"tenant_id" gorm:"type:varchar(50);not null;uniqueIndex:idx_creatives_owner_creative,priority:1"`
	PrincipalID string `json:"principal_id" gorm:"type:varchar(50);not null;uniqueIndex:idx_creatives_owner_creative,priority:2"`
	CreativeID  string `json:"creative_id" gorm:"type:varchar(100);not null;uniqueIndex:idx_creatives_owner_creative,priority:3"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`

	// Format identity: agent URL + format string + optional parameters
	AgentURL         string            `json:"agent_url" gorm:"type:text;not null"`
	Format           string            `json:"format" gorm:"type:varchar(255);not null"`
	FormatParameters datatypes.JSONMap `json:"format_parameters,omitempty" gorm:"type:jsonb"`

	Status string `json:"status" gorm:"type:varchar(20);not null;index;default:'pending_review'"`

	// url, click_url, dimensions, snippet, generative build and preview results
	Data datatypes.JSONMap `json:"data" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Creative model
func (Creative) TableName() string {
	return "creatives"
}

// FormatID rebuilds the composite format identifier of the stored creative
func (c *Creative) FormatID() FormatID {
	fid := FormatID{AgentURL: c.AgentURL, ID: c.Format}
	if w, ok := intParam(c.FormatParameters, "width"); ok {
		fid.Width = &w
	}
	if h, ok := intParam(c.FormatParameters, "height"); ok {
		fid.Height = &h
	}
	if v, ok := c.FormatParameters["duration_ms"]; ok {
		if d, ok := toFloat(v); ok {
			fid.DurationMs = &d
		}
	}
	return fid
}

// CreativeAssignment links a creative to a package of a media buy
type CreativeAssignment struct {
	AssignmentID string                      `json:"assignment_id" gorm:"primaryKey;type:varchar(100)"`
	TenantID     string                      `json:"tenant_id" gorm:"type:varchar(50);not null;uniqueIndex:idx_assignments_unique,priority:1"`
	MediaBuyID   string                      `json:"media_buy_id" gorm:"type:varchar(100);not null;uniqueIndex:idx_assignments_unique,priority:2"`
	PackageID    string                      `json:"package_id" gorm:"type:varchar(100);not null;uniqueIndex:idx_assignments_unique,priority:3"`
	CreativeID   string                      `json:"creative_id" gorm:"type:varchar(100);not null;uniqueIndex:idx_assignments_unique,priority:4"`
	Weight       int                         `json:"weight" gorm:"not null;default:100"`
	PlacementIDs datatypes.JSONSlice[string] `json:"placement_ids,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time                   `json:"created_at"`
}

// BeforeCreate is a GORM hook that assigns the assignment ID
func (a *CreativeAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.AssignmentID == "" {
		a.AssignmentID = utils.NewID("assign")
	}
	return nil
}

// TableName specifies the table name for the CreativeAssignment model
func (CreativeAssignment) TableName() string {
	return "creative_assignments"
}

// DefaultAssignmentWeight is the weight every assignment is forced to
const DefaultAssignmentWeight = 100

func intParam(m map[string]interface{}, key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
