package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Message is a Slack-compatible incoming webhook payload
type Message struct {
	Text string `json:"text"`
}

// Notifier delivers publisher-facing notifications to a webhook
type Notifier interface {
	Notify(ctx context.Context, webhookURL string, msg Message) error
}

// SlackNotifier posts messages to Slack-style incoming webhooks
type SlackNotifier struct {
	httpClient *resty.Client
}

func NewSlackNotifier(timeout time.Duration) *SlackNotifier {
	return &SlackNotifier{
		httpClient: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

func (n *SlackNotifier) Notify(ctx context.Context, webhookURL string, msg Message) error {
	if webhookURL == "" {
		return nil
	}
	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(msg).
		Post(webhookURL)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode())
	}
	logrus.Debug("Notification delivered")
	return nil
}

// PendingCreative is one creative listed in an approval notification
type PendingCreative struct {
	CreativeID string
	Name       string
	Format     string
	Status     string
}

// CreativesPendingApproval builds the notification sent when creatives wait
// for a publisher decision
func CreativesPendingApproval(tenantName, principalName string, creatives []PendingCreative) Message {
	var b strings.Builder
	fmt.Fprintf(&b, ":art: %d creative(s) from %s need approval", len(creatives), principalName)
	if tenantName != "" {
		fmt.Fprintf(&b, " on %s", tenantName)
	}
	b.WriteString("\n")
	for _, c := range creatives {
		fmt.Fprintf(&b, "• %s (%s) format %s\n", c.Name, c.CreativeID, c.Format)
	}
	return Message{Text: strings.TrimSuffix(b.String(), "\n")}
}

// CreativeReviewed builds the notification sent once an AI review finished
func CreativeReviewed(creativeID, name, status, reason string, confidence float64) Message {
	text := fmt.Sprintf(":robot_face: AI review of creative %s (%s): %s", name, creativeID, status)
	if confidence > 0 {
		text += fmt.Sprintf(" (confidence %.0f%%)", confidence*100)
	}
	if reason != "" {
		text += "\nReason: " + reason
	}
	return Message{Text: text}
}

// MediaBuyApprovalRequired builds the notification sent when an update is
// held for manual approval
func MediaBuyApprovalRequired(mediaBuyID, principalID, stepID string) Message {
	return Message{Text: fmt.Sprintf(":hourglass: update_media_buy for %s by %s requires manual approval (step %s)",
		mediaBuyID, principalID, stepID)}
}
