package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/numaras/salesagent-sub000/internal/models"
)

func TestParseMode(t *testing.T) {
	assert.Equal(t, AutoApprove, ParseMode("auto-approve"))
	assert.Equal(t, AIPowered, ParseMode(" AI-Powered "))
	assert.Equal(t, RequireHuman, ParseMode("require-human"))
	assert.Equal(t, RequireHuman, ParseMode(""))
	assert.Equal(t, RequireHuman, ParseMode("something-new"))
}

func TestModeTransition(t *testing.T) {
	tests := []struct {
		mode Mode
		want Transition
	}{
		{AutoApprove, Transition{Status: models.CreativeStatusApproved}},
		{AIPowered, Transition{Status: models.CreativeStatusPendingReview, NeedsApproval: true, SubmitReview: true}},
		{RequireHuman, Transition{Status: models.CreativeStatusPendingReview, NeedsApproval: true}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mode.Transition())
		})
	}
}

func TestNotifiesOnSync(t *testing.T) {
	assert.True(t, RequireHuman.NotifiesOnSync())
	assert.False(t, AIPowered.NotifiesOnSync())
	assert.False(t, AutoApprove.NotifiesOnSync())
}
