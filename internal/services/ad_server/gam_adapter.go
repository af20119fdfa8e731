package ad_server

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/numaras/salesagent-sub000/internal/config"
	"github.com/numaras/salesagent-sub000/internal/models"
)

// GAMAdapter forwards updates to a Google Ad Manager gateway service, which
// owns the SOAP session and the network credentials
type GAMAdapter struct {
	approvalSettings
	httpClient *resty.Client
}

type gamUpdateRequest struct {
	Action       string     `json:"action"`
	BuyerRef     string     `json:"buyer_ref,omitempty"`
	AdvertiserID string     `json:"advertiser_id,omitempty"`
	PackageID    string     `json:"package_id,omitempty"`
	LineItemID   string     `json:"line_item_id,omitempty"`
	Budget       *float64   `json:"budget,omitempty"`
	Currency     string     `json:"currency,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
}

type gamErrorResponse struct {
	Error string `json:"error"`
}

func NewGAMAdapter(cfg *config.AdServerConfig, manualApproval bool, operations ...string) *GAMAdapter {
	client := resty.New().
		SetBaseURL(cfg.GAMGatewayURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.GAMAPIKey != "" {
		client.SetHeader("X-API-Key", cfg.GAMAPIKey)
	}
	return &GAMAdapter{
		approvalSettings: approvalSettings{required: manualApproval, operations: operations},
		httpClient:       client,
	}
}

func (a *GAMAdapter) Name() string {
	return PlatformGoogleAdManager
}

func (a *GAMAdapter) UpdateMediaBuy(ctx context.Context, principal *models.Principal, update *Update) error {
	var apiErr gamErrorResponse
	resp, err := a.httpClient.R().
		SetContext(ctx).
		SetPathParam("media_buy_id", update.MediaBuyID).
		SetBody(gamUpdateRequest{
			Action:       update.Action,
			BuyerRef:     update.BuyerRef,
			AdvertiserID: advertiserID(principal),
			PackageID:    update.PackageID,
			LineItemID:   update.LineItemID,
			Budget:       update.Budget,
			Currency:     update.Currency,
			StartTime:    update.StartTime,
			EndTime:      update.EndTime,
		}).
		SetError(&apiErr).
		Post("/media-buys/{media_buy_id}/actions")
	if err != nil {
		return fmt.Errorf("failed to call GAM gateway: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error != "" {
			return fmt.Errorf("GAM gateway rejected %s: %s", update.Action, apiErr.Error)
		}
		return fmt.Errorf("GAM gateway returned status %d for %s", resp.StatusCode(), update.Action)
	}

	logrus.WithFields(logrus.Fields{
		"adapter":      PlatformGoogleAdManager,
		"media_buy_id": update.MediaBuyID,
		"action":       update.Action,
	}).Info("GAM gateway applied update")
	return nil
}

// advertiserID reads the principal's GAM advertiser from platform_mappings
func advertiserID(principal *models.Principal) string {
	if principal == nil || principal.PlatformMappings == nil {
		return ""
	}
	m, ok := principal.PlatformMappings[PlatformGoogleAdManager].(map[string]interface{})
	if !ok {
		return ""
	}
	switch v := m["advertiser_id"].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
