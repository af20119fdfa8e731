package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlackNotifierPostsText(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(time.Second)
	msg := CreativesPendingApproval("Acme Publisher", "Buyer Co", []PendingCreative{
		{CreativeID: "c1", Name: "Banner", Format: "display_300x250"},
	})
	require.NoError(t, n.Notify(context.Background(), srv.URL, msg))

	assert.Contains(t, got.Text, "1 creative(s) from Buyer Co need approval on Acme Publisher")
	assert.Contains(t, got.Text, "Banner (c1) format display_300x250")
}

func TestSlackNotifierReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewSlackNotifier(time.Second)
	err := n.Notify(context.Background(), srv.URL, Message{Text: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")

	assert.NoError(t, n.Notify(context.Background(), "", Message{Text: "dropped"}))
}

func TestCreativeReviewedMessage(t *testing.T) {
	msg := CreativeReviewed("c1", "Banner", "rejected", "Contains prohibited content", 0.92)
	assert.Equal(t, ":robot_face: AI review of creative Banner (c1): rejected (confidence 92%)\nReason: Contains prohibited content", msg.Text)
}
